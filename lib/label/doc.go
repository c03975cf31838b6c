// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package label implements the label domain type: the deterministic
// signable encoding signatures are computed over, signing and
// verification, and the display form served on the wire.
//
// A [Label] carries the logical fields of a moderation-label
// assertion. [Sign] produces the deterministic signable encoding
// (via lib/codec) of the populated non-signature fields and attaches
// a raw secp256k1 signature (via lib/signing). [Verify] re-encodes
// and checks the signature without trusting a previously stored sig.
// [Label.Display] converts to the wire-visible form, wrapping the
// raw signature bytes in the {"$bytes": "<base64>"} convention.
package label
