// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package xrpc

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/bslabeler/labeler/lib/apierr"
	"github.com/bslabeler/labeler/lib/broadcast"
	"github.com/bslabeler/labeler/lib/frame"
	"github.com/bslabeler/labeler/lib/label"
	"github.com/bslabeler/labeler/lib/labelstore"
)

// upgrader upgrades the subscribeLabels HTTP request to a WebSocket
// connection. CheckOrigin always allows: this is a public federated
// endpoint with no browser-session credential to protect, the same
// trust model as the REST routes beside it.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleSubscribeLabels serves spec §4.E's join protocol over a
// WebSocket connection.
func (r *Router) handleSubscribeLabels(w http.ResponseWriter, req *http.Request) {
	if r.deps.MaxSubscribers > 0 && r.deps.Hub.Count(broadcast.LabelsStream) >= r.deps.MaxSubscribers {
		writeError(w, r.deps.Logger, apierr.New(apierr.ServiceUnavailable, "too many concurrent subscribers"))
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.deps.Logger.Warn("xrpc: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := req.Context()

	cursor, hasCursor := parseCursor(req)
	if !hasCursor {
		// No cursor, or an unparseable one: join the live tail
		// immediately, no replay (spec §4.E).
		r.runSubscriber(ctx, conn, r.deps.Hub.Join(broadcast.LabelsStream), 0)
		return
	}

	maxID, err := r.deps.Store.MaxID(ctx)
	if err != nil {
		_ = writeFrameError(conn, apierr.InternalServerError, "could not determine current cursor")
		return
	}
	if cursor > maxID {
		_ = writeFrameError(conn, apierr.FutureCursor, "cursor exceeds the current sequence")
		return
	}

	// Join before replaying: every label appended from this point on
	// is queued for this subscriber, so the live loop below can pick
	// up exactly where the replay leaves off with no gap and no
	// duplicate (spec §5 "no gap and no overlap at the cursor
	// boundary").
	sub := r.deps.Hub.Join(broadcast.LabelsStream)

	lastSent := cursor
	scanErr := r.deps.Store.Scan(ctx, cursor, func(stored labelstore.StoredLabel) error {
		if err := writeFrameLabels(conn, stored.ID, stored.Label.Display()); err != nil {
			return err
		}
		lastSent = stored.ID
		return nil
	})
	if scanErr != nil {
		sub.Close()
		_ = writeFrameError(conn, apierr.InternalServerError, "replay failed")
		return
	}

	r.runSubscriber(ctx, conn, sub, lastSent)
}

// parseCursor reads the cursor query parameter. hasCursor is false
// when the parameter is absent or not an integer; per spec §4.E, "if
// cursor is not an integer (missing or unparseable), the subscriber
// joins the live tail immediately" — both cases are treated
// identically by the caller.
func parseCursor(req *http.Request) (cursor int64, hasCursor bool) {
	raw := req.URL.Query().Get("cursor")
	if raw == "" {
		return 0, false
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// runSubscriber drains sub's event channel to conn until the
// connection closes, the subscriber is evicted, or ctx is
// cancelled. lastSent is the highest id already delivered (from
// replay, or 0 for a live-only join) — any live event at or below it
// is a duplicate of the replay and is dropped.
func (r *Router) runSubscriber(ctx context.Context, conn *websocket.Conn, sub *broadcast.Subscription, lastSent int64) {
	defer sub.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case <-sub.ShuttingDown():
			return
		case <-sub.Evicted():
			_ = writeFrameError(conn, apierr.ConsumerTooSlow, "subscriber did not keep up with the label stream")
			return
		case stored, ok := <-sub.Events():
			if !ok {
				return
			}
			if stored.ID <= lastSent {
				continue
			}
			lastSent = stored.ID
			if err := writeFrameLabels(conn, stored.ID, stored.Label.Display()); err != nil {
				return
			}
		}
	}
}

// writeFrameLabels writes a single #labels message frame as one
// WebSocket binary message.
func writeFrameLabels(conn *websocket.Conn, seq int64, labels ...label.Display) error {
	w, err := conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}
	if err := frame.NewWriter(w).WriteLabels(seq, labels); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// writeFrameError writes a single error frame as one WebSocket
// binary message. The caller is expected to close the connection
// immediately afterward, per spec §4.E.
func writeFrameError(conn *websocket.Conn, kind apierr.Kind, message string) error {
	w, err := conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}
	if err := frame.NewWriter(w).WriteError(kind, message); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
