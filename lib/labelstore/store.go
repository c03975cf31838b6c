// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package labelstore

import (
	"context"

	"github.com/bslabeler/labeler/lib/label"
)

// StoredLabel is a persisted label plus its assigned id.
type StoredLabel struct {
	ID int64
	label.Label
}

// QueryParams selects a page of stored labels per spec §4.C.
type QueryParams struct {
	// URIPatterns, if non-empty, is OR'd together: a stored label
	// matches if its uri satisfies any pattern. A pattern of exactly
	// "*" is a no-op filter (matches everything); any other "*" must
	// be the final character (a prefix match) or the pattern is
	// rejected by [TranslateURIPattern].
	URIPatterns []string

	// Sources, if non-empty, restricts results to labels whose src is
	// one of the given DIDs.
	Sources []string

	// AfterID, if positive, restricts results to id > AfterID.
	AfterID int64

	// Limit caps the number of returned rows. Callers are expected to
	// have already validated this against the public [1, 250] range;
	// the store applies whatever value it is given.
	Limit int
}

// Store is the append-only label log's storage contract (spec §4.C).
// The sequencer is the only writer; queries, scans, and the health
// probe are concurrent readers.
type Store interface {
	// Init prepares the store for traffic: schema creation, journal
	// mode, anything that must complete before Append or Query are
	// safe to call. The service refuses to accept requests until Init
	// returns successfully.
	Init(ctx context.Context) error

	// Close releases the store's resources. Safe to call once, after
	// which no other method may be called.
	Close() error

	// Append inserts l, which must already carry a signature, and
	// returns its newly assigned id. The assigned id is not visible
	// to Query or Scan until Append returns.
	Append(ctx context.Context, l *label.Label) (int64, error)

	// Query returns stored labels matching params, ordered by
	// ascending id.
	Query(ctx context.Context, params QueryParams) ([]StoredLabel, error)

	// Scan streams every stored label with id > afterID, in ascending
	// id order, calling fn once per row. Scan stops and returns fn's
	// error the first time fn returns a non-nil error.
	Scan(ctx context.Context, afterID int64, fn func(StoredLabel) error) error

	// MaxID returns the highest assigned id, or 0 if the store is
	// empty.
	MaxID(ctx context.Context) (int64, error)
}
