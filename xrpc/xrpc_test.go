// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package xrpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/bslabeler/labeler/lib/broadcast"
	"github.com/bslabeler/labeler/lib/clock"
	"github.com/bslabeler/labeler/lib/didresolve"
	"github.com/bslabeler/labeler/lib/jwtauth"
	"github.com/bslabeler/labeler/lib/label"
	"github.com/bslabeler/labeler/lib/labelstore"
	"github.com/bslabeler/labeler/lib/sequencer"
	"github.com/bslabeler/labeler/lib/signing"
)

// fakeStore is an in-memory labelstore.Store for xrpc handler tests.
// Pattern matching is a plain prefix/exact check rather than SQL
// LIKE — sufficient for the non-%/_ patterns these tests use; the
// real escaping rules are covered by lib/labelstore's own tests.
type fakeStore struct {
	mu   sync.Mutex
	rows []labelstore.StoredLabel
}

func (f *fakeStore) Init(ctx context.Context) error  { return nil }
func (f *fakeStore) Close() error                     { return nil }

func (f *fakeStore) Append(ctx context.Context, l *label.Label) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := int64(len(f.rows) + 1)
	f.rows = append(f.rows, labelstore.StoredLabel{ID: id, Label: *l})
	return id, nil
}

func (f *fakeStore) Query(ctx context.Context, params labelstore.QueryParams) ([]labelstore.StoredLabel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var results []labelstore.StoredLabel
	for _, row := range f.rows {
		if row.ID <= params.AfterID {
			continue
		}
		if len(params.URIPatterns) > 0 && !anyPatternMatches(params.URIPatterns, row.Uri) {
			continue
		}
		if len(params.Sources) > 0 && !contains(params.Sources, row.Src) {
			continue
		}
		results = append(results, row)
		if len(results) == params.Limit {
			break
		}
	}
	return results, nil
}

func (f *fakeStore) Scan(ctx context.Context, afterID int64, fn func(labelstore.StoredLabel) error) error {
	f.mu.Lock()
	rows := append([]labelstore.StoredLabel(nil), f.rows...)
	f.mu.Unlock()

	for _, row := range rows {
		if row.ID <= afterID {
			continue
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) MaxID(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) == 0 {
		return 0, nil
	}
	return f.rows[len(f.rows)-1].ID, nil
}

func anyPatternMatches(patterns []string, uri string) bool {
	for _, pattern := range patterns {
		if pattern == "*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(uri, prefix) {
				return true
			}
			continue
		}
		if uri == pattern {
			return true
		}
	}
	return false
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// fakeKeyResolver resolves exactly the DID it was primed with to a
// fixed secp256k1 key. A lookup for any other DID fails, the same
// shape of failure an unregistered issuer would hit against the real
// resolver.
type fakeKeyResolver struct {
	did string
	key *didresolve.Key
}

func (f *fakeKeyResolver) Resolve(ctx context.Context, did string, forceRefresh bool) (*didresolve.Key, error) {
	if did != f.did {
		return nil, didresolve.ErrUnsupportedMethod
	}
	return f.key, nil
}

// buildSecp256k1Token hand-assembles a compact JWT signed with priv,
// the way a genuine atproto secp256k1 signing key would produce one.
// jwtauth.Verifier.Verify dispatches on the resolved key's type, not
// the JWT header, so the header's alg value is cosmetic here.
func buildSecp256k1Token(t *testing.T, priv *secp256k1.PrivateKey, iss, aud, lxm string, exp time.Time) string {
	t.Helper()
	claims := map[string]any{
		"iss": iss,
		"aud": aud,
		"exp": exp.Unix(),
	}
	if lxm != "" {
		claims["lxm"] = lxm
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"ES256K","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString(payloadJSON)
	signingInput := header + "." + body
	sig := signing.Sign(priv, []byte(signingInput))
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig)
}

// testEnv wires every dependency a Router needs, in-memory and
// deterministic, so xrpc's handlers can be exercised directly without
// a running store or network resolver.
type testEnv struct {
	store      *fakeStore
	hub        *broadcast.Hub
	clock      *clock.FakeClock
	seq        *sequencer.Sequencer
	verifier   *jwtauth.Verifier
	resolver   *fakeKeyResolver
	router     *Router
	labelerDID string
	issuerDID  string
	issuerKey  *secp256k1.PrivateKey
}

const testLabelerDID = "did:plc:labeler"
const testIssuerDID = "did:plc:issuer"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	signingKey, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	issuerKey, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}

	store := &fakeStore{}
	hub := broadcast.NewHub()
	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	seq := sequencer.New(store, sequencer.PublisherFunc(hub.PublishLabel), signingKey, testLabelerDID, clk)

	resolver := &fakeKeyResolver{
		did: testIssuerDID,
		key: &didresolve.Key{Type: didresolve.KeyTypeSecp256k1, PublicKey: issuerKey.PubKey().SerializeCompressed()},
	}
	verifier := jwtauth.New(resolver, clk)

	env := &testEnv{
		store:      store,
		hub:        hub,
		clock:      clk,
		seq:        seq,
		verifier:   verifier,
		resolver:   resolver,
		labelerDID: testLabelerDID,
		issuerDID:  testIssuerDID,
		issuerKey:  issuerKey,
	}

	env.router = New(Deps{
		Store:      store,
		Sequencer:  seq,
		Hub:        hub,
		Verifier:   verifier,
		LabelerDID: testLabelerDID,
		AuthPolicy: func(issuerDID string) bool { return issuerDID == testIssuerDID },
		Clock:      clk,
		Version:    "test",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return env
}

// validToken returns a bearer token from the test issuer, valid for
// the given lexicon method and the labeler's own DID as audience.
func (e *testEnv) validToken(t *testing.T, lxm string) string {
	t.Helper()
	return buildSecp256k1Token(t, e.issuerKey, e.issuerDID, e.labelerDID, lxm, e.clock.Now().Add(time.Hour))
}
