// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sequencer

import (
	"context"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/bslabeler/labeler/lib/apierr"
	"github.com/bslabeler/labeler/lib/clock"
	"github.com/bslabeler/labeler/lib/label"
	"github.com/bslabeler/labeler/lib/labelstore"
)

// timestampLayout is the ISO-8601 UTC form every cts/exp value in
// this service uses: millisecond precision, "Z" suffix.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Publisher delivers a freshly appended label to live subscribers.
// A caller wrapping a *lib/broadcast.Hub's PublishLabel method should
// use PublisherFunc rather than implementing this by hand.
type Publisher interface {
	Publish(stored labelstore.StoredLabel)
}

// PublisherFunc adapts a plain function to Publisher, the way
// http.HandlerFunc adapts a function to http.Handler.
type PublisherFunc func(labelstore.StoredLabel)

// Publish calls f.
func (f PublisherFunc) Publish(stored labelstore.StoredLabel) {
	f(stored)
}

// Draft is an unsigned label with its required fields populated and
// its optional fields left to [Sequencer.CreateLabel]'s defaulting.
type Draft struct {
	Src string // optional; defaults to the labeler's own DID
	Uri string
	Cid string
	Val string
	Neg bool
	Cts string // optional; defaults to now
	Exp string
}

// Subject identifies what a batch of labels created by
// [Sequencer.CreateLabels] is about.
type Subject struct {
	Uri string
	Cid string
}

// Sequencer is the label pipeline's exclusive writer (spec §4.D).
// Append and publish are serialized under a single mutex so the id
// order observed by the store and the order observed by the
// broadcaster never diverge.
type Sequencer struct {
	mu sync.Mutex

	store      labelstore.Store
	publisher  Publisher
	signingKey *secp256k1.PrivateKey
	labelerDID string
	clock      clock.Clock
}

// New constructs a Sequencer. signingKey signs every label this
// sequencer creates; labelerDID is the default src for a draft that
// omits one.
func New(store labelstore.Store, publisher Publisher, signingKey *secp256k1.PrivateKey, labelerDID string, clk clock.Clock) *Sequencer {
	return &Sequencer{
		store:      store,
		publisher:  publisher,
		signingKey: signingKey,
		labelerDID: labelerDID,
		clock:      clk,
	}
}

// CreateLabel signs and appends a single label built from draft,
// defaulting Src and Cts, and returns the stored result with its
// assigned id.
func (s *Sequencer) CreateLabel(ctx context.Context, draft Draft) (labelstore.StoredLabel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.buildLabel(draft)
	if _, err := l.Sign(s.signingKey); err != nil {
		return labelstore.StoredLabel{}, apierr.Internal(err)
	}
	return s.appendAndPublishLocked(ctx, l)
}

// CreateLabels builds and appends one label per entry in createVals
// (non-negating) followed by one per entry in negateVals (negating),
// each about subject, each with Src and Cts defaulted. Returns the
// resulting stored labels in insertion order. An empty createVals and
// negateVals yields an empty, non-error result; callers are
// responsible for rejecting that case earlier (spec §4.D).
func (s *Sequencer) CreateLabels(ctx context.Context, subject Subject, createVals, negateVals []string) ([]labelstore.StoredLabel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]labelstore.StoredLabel, 0, len(createVals)+len(negateVals))

	for _, val := range createVals {
		l := s.buildLabel(Draft{Uri: subject.Uri, Cid: subject.Cid, Val: val, Neg: false})
		if _, err := l.Sign(s.signingKey); err != nil {
			return nil, apierr.Internal(err)
		}
		stored, err := s.appendAndPublishLocked(ctx, l)
		if err != nil {
			return nil, err
		}
		results = append(results, stored)
	}

	for _, val := range negateVals {
		l := s.buildLabel(Draft{Uri: subject.Uri, Cid: subject.Cid, Val: val, Neg: true})
		if _, err := l.Sign(s.signingKey); err != nil {
			return nil, apierr.Internal(err)
		}
		stored, err := s.appendAndPublishLocked(ctx, l)
		if err != nil {
			return nil, err
		}
		results = append(results, stored)
	}

	return results, nil
}

// buildLabel fills in a draft's optional fields and returns the
// resulting (unsigned) label. Must be called with s.mu held so the
// Cts default reflects this caller's position in write order.
func (s *Sequencer) buildLabel(draft Draft) *label.Label {
	src := draft.Src
	if src == "" {
		src = s.labelerDID
	}
	cts := draft.Cts
	if cts == "" {
		cts = s.clock.Now().UTC().Format(timestampLayout)
	}

	return &label.Label{
		Src: src,
		Uri: draft.Uri,
		Cid: draft.Cid,
		Val: draft.Val,
		Neg: draft.Neg,
		Cts: cts,
		Exp: draft.Exp,
	}
}

// appendAndPublishLocked appends l and publishes the stored result.
// Must be called with s.mu held.
func (s *Sequencer) appendAndPublishLocked(ctx context.Context, l *label.Label) (labelstore.StoredLabel, error) {
	id, err := s.store.Append(ctx, l)
	if err != nil {
		return labelstore.StoredLabel{}, apierr.Internal(err)
	}

	stored := labelstore.StoredLabel{ID: id, Label: *l}
	if s.publisher != nil {
		s.publisher.Publish(stored)
	}
	return stored, nil
}
