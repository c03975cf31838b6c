// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sequencer implements the label pipeline's single write
// path: sign a draft label if needed, append it to the store, and
// hand the stored result to the broadcaster, all under one mutex so
// id allocation and broadcast enqueue are observed in a single global
// order (spec §4.D, §9 "Append-broadcast atomicity").
package sequencer
