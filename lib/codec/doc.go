// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides labelerd's standard CBOR encoding configuration.
//
// labelerd uses two serialization formats with a clear boundary:
//
//   - JSON for the xrpc HTTP surface: queryLabels responses, emitEvent
//     request/response bodies, and CLI/config output.
//   - CBOR for the signable and wire forms: the deterministic label
//     encoding that signatures are computed over, and the two-object
//     subscribeLabels frame codec.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes, which is what lets a verifier recompute a label's signable
// form and get the exact bytes that were signed.
//
// For buffer-oriented operations (signable forms, signed payloads):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (subscription frames):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR. It will
//     never be marshaled to JSON or interact with the xrpc surface.
//     Examples: frame headers, signable label maps.
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats. Examples: the label display
//     form, which is returned from queryLabels as JSON and also
//     appears embedded in subscribeLabels frame bodies as CBOR.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract — doubling up is noise that obscures
// whether a type participates in JSON serialization.
package codec
