// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command labelerd runs the label-log service: it loads its
// configuration and signing key, opens the sqlite-backed label
// store, and serves queryLabels, emitEvent, subscribeLabels, and
// _health over HTTP on the configured listen address.
package main
