// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package xrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bslabeler/labeler/lib/sequencer"
)

func seedLabels(t *testing.T, env *testEnv, specs ...struct{ uri, val string }) {
	t.Helper()
	for _, s := range specs {
		if _, err := env.seq.CreateLabels(context.Background(), sequencer.Subject{Uri: s.uri}, []string{s.val}, nil); err != nil {
			t.Fatalf("CreateLabels: %v", err)
		}
	}
}

func TestHandleQueryLabels_DefaultsAndCursor(t *testing.T) {
	env := newTestEnv(t)
	seedLabels(t, env,
		struct{ uri, val string }{"did:plc:a", "spam"},
		struct{ uri, val string }{"did:plc:b", "scam"},
		struct{ uri, val string }{"did:plc:c", "spam"},
	)

	req := httptest.NewRequest(http.MethodGet, "/xrpc/com.atproto.label.queryLabels", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body queryLabelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Labels) != 3 {
		t.Fatalf("len(Labels) = %d, want 3", len(body.Labels))
	}
	if body.Cursor != "3" {
		t.Errorf("Cursor = %q, want %q", body.Cursor, "3")
	}
}

func TestHandleQueryLabels_AfterCursorExcludesEarlierRows(t *testing.T) {
	env := newTestEnv(t)
	seedLabels(t, env,
		struct{ uri, val string }{"did:plc:a", "spam"},
		struct{ uri, val string }{"did:plc:b", "scam"},
	)

	req := httptest.NewRequest(http.MethodGet, "/xrpc/com.atproto.label.queryLabels?cursor=1", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var body queryLabelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Labels) != 1 || body.Labels[0].Uri != "did:plc:b" {
		t.Fatalf("unexpected labels: %+v", body.Labels)
	}
}

func TestHandleQueryLabels_URIPatternPrefix(t *testing.T) {
	env := newTestEnv(t)
	seedLabels(t, env,
		struct{ uri, val string }{"at://did:plc:a/app.bsky.feed.post/1", "spam"},
		struct{ uri, val string }{"did:plc:b", "spam"},
	)

	req := httptest.NewRequest(http.MethodGet, "/xrpc/com.atproto.label.queryLabels?"+url.Values{
		"uriPatterns": {"at://did:plc:a/*"},
	}.Encode(), nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var body queryLabelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Labels) != 1 {
		t.Fatalf("len(Labels) = %d, want 1: %+v", len(body.Labels), body.Labels)
	}
}

func TestHandleQueryLabels_InvalidLimit(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/xrpc/com.atproto.label.queryLabels?limit=0", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleQueryLabels_InvalidCursor(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/xrpc/com.atproto.label.queryLabels?cursor=abc", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleQueryLabels_InvalidURIPattern(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/xrpc/com.atproto.label.queryLabels?"+url.Values{
		"uriPatterns": {"at://did:plc:a/*/app.bsky.feed.post"},
	}.Encode(), nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleQueryLabels_NoRows(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/xrpc/com.atproto.label.queryLabels", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var body queryLabelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Cursor != "0" || len(body.Labels) != 0 {
		t.Errorf("body = %+v", body)
	}
}
