// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package broadcast

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bslabeler/labeler/lib/labelstore"
)

// subscriberChannelSize is the buffer depth for a subscriber's event
// channel. A subscriber reading slower than this many labels behind
// the publisher is evicted rather than allowed to stall fan-out for
// everyone else.
const subscriberChannelSize = 256

// LabelsStream is the stream name subscribeLabels joins and the
// sequencer publishes to. The live set is indexed by stream name so
// a future stream could share the same Hub without a new registry
// (spec §4.E, "Concurrency").
const LabelsStream = "#labels"

// Hub fans out published events to every live [Subscription],
// keeping a separate subscriber set per stream name. The zero value
// is not usable; construct with [NewHub].
type Hub struct {
	mu        sync.Mutex
	streams   map[string]map[uuid.UUID]*Subscription
	closeOnce sync.Once
	shutdown  chan struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{
		streams:  make(map[string]map[uuid.UUID]*Subscription),
		shutdown: make(chan struct{}),
	}
}

// Join registers a new subscription on stream. Every event
// Published to stream after Join returns is delivered to it, until
// it is evicted or Closed.
func (h *Hub) Join(stream string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription{
		id:      uuid.New(),
		stream:  stream,
		hub:     h,
		channel: make(chan labelstore.StoredLabel, subscriberChannelSize),
		evicted: make(chan struct{}),
	}
	if h.streams[stream] == nil {
		h.streams[stream] = make(map[uuid.UUID]*Subscription)
	}
	h.streams[stream][sub.id] = sub
	return sub
}

// Publish delivers stored to every subscription joined on stream via
// a non-blocking send. A subscription whose channel is full is
// evicted immediately: its Evicted channel is closed and it is
// removed from the hub, so it receives no further events.
func (h *Hub) Publish(stream string, stored labelstore.StoredLabel) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.streams[stream] {
		select {
		case sub.channel <- stored:
		default:
			close(sub.evicted)
			delete(h.streams[stream], id)
		}
	}
}

// PublishLabel publishes stored on [LabelsStream]. It satisfies
// lib/sequencer's Publisher interface.
func (h *Hub) PublishLabel(stored labelstore.StoredLabel) {
	h.Publish(LabelsStream, stored)
}

// Count returns the number of subscriptions currently joined on
// stream.
func (h *Hub) Count(stream string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.streams[stream])
}

func (h *Hub) leave(stream string, id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.streams[stream], id)
}

// Shutdown signals every subscription on every stream to stop,
// present and future. A WebSocket connection that has been hijacked
// out of net/http's request tracking is invisible to
// [lib/service.HTTPServer]'s graceful drain, so the service shell
// calls this directly on shutdown to make sure every subscribeLabels
// goroutine still exits.
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() { close(h.shutdown) })
}

// Subscription is one subscriber's view of a Hub stream.
type Subscription struct {
	id      uuid.UUID
	stream  string
	hub     *Hub
	channel chan labelstore.StoredLabel
	evicted chan struct{}
}

// Events returns the channel on which published labels arrive.
func (s *Subscription) Events() <-chan labelstore.StoredLabel {
	return s.channel
}

// Evicted returns a channel that is closed the moment this
// subscription falls too far behind to keep up with the publisher.
// Once closed, no further events will arrive on Events.
func (s *Subscription) Evicted() <-chan struct{} {
	return s.evicted
}

// ShuttingDown returns a channel that is closed when the owning
// Hub's [Hub.Shutdown] is called.
func (s *Subscription) ShuttingDown() <-chan struct{} {
	return s.hub.shutdown
}

// Close unregisters the subscription. Safe to call even after
// eviction; safe to call more than once.
func (s *Subscription) Close() {
	s.hub.leave(s.stream, s.id)
}
