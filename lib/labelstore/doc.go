// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package labelstore defines the append-only label log's storage
// contract and a sqlite-backed implementation.
//
// [Store] is the capability interface every write and read path in
// this service goes through: [Store.Append] assigns the next
// monotonic id, [Store.Query] serves paginated historical lookups
// with prefix-wildcard URI matching, [Store.Scan] streams a
// subscriber's replay range, and [Store.MaxID] answers the
// subscription join protocol's future-cursor check. [SQLiteStore] is
// the reference implementation, built on lib/sqlitepool; alternative
// backends only need to satisfy [Store].
package labelstore
