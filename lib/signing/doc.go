// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package signing provides secp256k1 signing and verification for the
// labeler's own signing key.
//
// [LoadKey] parses a 32-byte private key from hex or base64 text,
// rejecting a did:key:... string with a clear error (that is a public
// identifier, not a secret). [Sign] hashes the message with SHA-256
// and produces a low-S-normalized 64-byte compact signature. [Verify]
// accepts either low-S or high-S signatures for interop with other
// implementations.
package signing
