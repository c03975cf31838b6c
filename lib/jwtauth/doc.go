// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package jwtauth verifies the compact JWTs callers present on the
// emitEvent procedure, per spec §4.A's exact step order: decode the
// payload and check its claims before ever touching the signature, so
// a cheap rejection (expired, wrong audience, wrong lexicon method)
// never pays for a DID resolution.
//
// [Verifier.Verify] resolves the issuer's signing key through a
// [KeyResolver] (satisfied by lib/didresolve.Resolver) and verifies
// the signature for either curve a resolved key may use: ES256
// (P-256, via golang-jwt's SigningMethod) or ES256K (secp256k1, via
// lib/signing, since golang-jwt does not register that algorithm). On
// a signature mismatch the resolver is asked for a forced refresh and,
// if the refreshed key differs from the one first tried, verification
// is retried once against it, covering key rotation on the issuer's
// side.
package jwtauth
