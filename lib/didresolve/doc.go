// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package didresolve resolves a DID to its atproto signing key by
// fetching and parsing the DID document.
//
// [Resolver] supports the two DID methods this service's callers
// (other labelers' issuer DIDs in JWTs, and this labeler's own DID)
// are expected to use: did:plc, resolved against plc.directory, and
// did:web, resolved against the host's own .well-known/did.json.
// Positive results are cached in memory with a one-hour TTL; [Resolve]
// takes a forceRefresh flag to bypass and replace a cached entry, used
// by lib/jwtauth's signature-verification retry path.
package didresolve
