// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package xrpc implements the HTTP and WebSocket surface of labelerd:
// the fixed route table (spec §4.I), the queryLabels and emitEvent
// handlers, the subscribeLabels join protocol, and the health probe.
// It translates between the public wire contract and the
// lib/labelstore, lib/sequencer, lib/broadcast, and lib/jwtauth
// packages beneath it, and is the single place that maps an
// apierr.Kind to an HTTP status or a frame error string.
package xrpc
