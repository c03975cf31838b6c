// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package broadcast fans a single append-only label stream out to
// many concurrent subscribers. Each subscriber gets a bounded
// channel and is evicted the instant that channel fills, rather than
// blocking the publisher or silently dropping events: the caller
// observes the eviction on [Subscription.Evicted] and is responsible
// for reporting it to its own transport (spec §4.E, "ConsumerTooSlow").
package broadcast
