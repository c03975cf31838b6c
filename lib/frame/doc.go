// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package frame implements the subscribeLabels wire format: each
// frame is two deterministically encoded CBOR values written back to
// back on the connection, a header discriminating the frame kind
// followed by its body (spec §4.H). lib/codec's stream encoder
// already writes exactly one CBOR item per Encode call, so a frame
// is just two consecutive Encode calls with no extra length prefix
// or delimiter.
package frame
