// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package didkey encodes compressed public keys as did:key:z... strings.
//
// A did:key identifier is a self-contained DID: it carries the public
// key itself rather than pointing at a document that must be fetched.
// The identifier is a multibase base58btc encoding (always prefixed
// "z" for base58btc) of a multicodec-prefixed key: a varint codec tag
// followed by the raw key bytes. [EncodeP256] and [EncodeSecp256k1]
// cover the two key types that DID documents in this service resolve
// to (see lib/didresolve).
package didkey
