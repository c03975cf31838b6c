// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for labelerd's
// command-line binaries. These functions centralize the two legitimate raw
// I/O patterns that exist before or after the structured logger:
//
//   - Fatal error reporting to stderr when the logger may not be
//     initialized (pre-logger).
//   - Process exit after an unrecoverable error in main().
//
// Apart from lib/version, this is the only non-test package in
// labelerd that writes to stdout or stderr with fmt.Fprintf or
// fmt.Printf directly.
package process
