// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal connection termination:
// EOF, closed connection, broken pipe, or connection reset. These errors occur
// routinely when a subscribeLabels client disconnects mid-write — the
// broadcaster's per-subscriber writer goroutine is blocked on a Write call
// when the peer goes away, and the resulting error is not a server fault.
//
// Clients that close abruptly rather than performing a clean WebSocket close
// handshake produce ECONNRESET and EPIPE instead of EOF. All four are expected
// and should not be logged as errors.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
