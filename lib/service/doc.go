// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides shared HTTP server infrastructure for
// labelerd.
//
// [HTTPServer] binds a TCP listener and serves the xrpc surface
// (queryLabels, emitEvent, subscribeLabels, _health) with graceful
// shutdown: Serve(ctx) blocks until ctx is cancelled, then stops
// accepting new connections and waits up to ShutdownTimeout for
// in-flight requests to finish. Hijacked connections, such as open
// subscribeLabels WebSockets, are not tracked by this drain;
// cmd/labelerd closes those through the broadcast hub's Shutdown.
//
// Ready() reports when the listener is bound and accepting
// connections, which cmd/labelerd uses to avoid calling Addr() before
// the OS-assigned port (when Address ends in ":0") is known.
package service
