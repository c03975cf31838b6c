// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jwtauth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bslabeler/labeler/lib/clock"
	"github.com/bslabeler/labeler/lib/didresolve"
	"github.com/bslabeler/labeler/lib/signing"
)

// fakeResolver returns a fixed key for every DID, or a fixed error if
// primed with one. Records forceRefresh calls so tests can assert the
// retry protocol fired.
type fakeResolver struct {
	key           *didresolve.Key
	refreshedKey  *didresolve.Key
	err           error
	refreshCalled bool
}

func (f *fakeResolver) Resolve(ctx context.Context, did string, forceRefresh bool) (*didresolve.Key, error) {
	if forceRefresh {
		f.refreshCalled = true
		if f.refreshedKey != nil {
			return f.refreshedKey, nil
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.key, nil
}

func buildES256Token(t *testing.T, priv *ecdsa.PrivateKey, iss, aud, lxm string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss": iss,
		"aud": aud,
		"exp": exp.Unix(),
	}
	if lxm != "" {
		claims["lxm"] = lxm
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(priv)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return signed
}

func p256Key(t *testing.T) (*ecdsa.PrivateKey, *didresolve.Key) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	compressed := elliptic.MarshalCompressed(elliptic.P256(), priv.X, priv.Y)
	return priv, &didresolve.Key{Type: didresolve.KeyTypeP256, PublicKey: compressed, DIDKey: "did:key:zP256"}
}

func TestVerify_ValidES256Token(t *testing.T) {
	priv, key := p256Key(t)
	token := buildES256Token(t, priv, "did:plc:aaa", "did:plc:labeler", "tools.ozone.moderation.emitEvent", time.Now().Add(time.Hour))

	resolver := &fakeResolver{key: key}
	verifier := New(resolver, clock.Real())

	claims, err := verifier.Verify(context.Background(), token, "did:plc:labeler", "tools.ozone.moderation.emitEvent")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Issuer != "did:plc:aaa" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	priv, key := p256Key(t)
	token := buildES256Token(t, priv, "did:plc:aaa", "did:plc:labeler", "", time.Now().Add(-time.Hour))

	resolver := &fakeResolver{key: key}
	verifier := New(resolver, clock.Real())

	_, err := verifier.Verify(context.Background(), token, "", "")
	assertKind(t, err, "JwtExpired")
}

func TestVerify_WrongAudience(t *testing.T) {
	priv, key := p256Key(t)
	token := buildES256Token(t, priv, "did:plc:aaa", "did:plc:someone-else", "", time.Now().Add(time.Hour))

	resolver := &fakeResolver{key: key}
	verifier := New(resolver, clock.Real())

	_, err := verifier.Verify(context.Background(), token, "did:plc:labeler", "")
	assertKind(t, err, "BadJwtAudience")
}

func TestVerify_WrongLexiconMethod(t *testing.T) {
	priv, key := p256Key(t)
	token := buildES256Token(t, priv, "did:plc:aaa", "did:plc:labeler", "com.other.method", time.Now().Add(time.Hour))

	resolver := &fakeResolver{key: key}
	verifier := New(resolver, clock.Real())

	_, err := verifier.Verify(context.Background(), token, "did:plc:labeler", "tools.ozone.moderation.emitEvent")
	assertKind(t, err, "BadJwtLexiconMethod")
}

func TestVerify_MalformedShape(t *testing.T) {
	verifier := New(&fakeResolver{}, clock.Real())
	_, err := verifier.Verify(context.Background(), "not-a-jwt", "", "")
	assertKind(t, err, "BadJwt")
}

func TestVerify_RetriesAfterKeyRotation(t *testing.T) {
	oldPriv, oldKey := p256Key(t)
	_, newKey := p256Key(t)
	token := buildES256Token(t, oldPriv, "did:plc:aaa", "did:plc:labeler", "", time.Now().Add(time.Hour))

	// The resolver's cached key is stale (rotated); the first
	// verification attempt against oldKey succeeds because the
	// signature really was produced with oldPriv, so this test instead
	// simulates the scenario where the *first* resolve returns a key
	// that does not match what actually signed the token.
	resolver := &fakeResolver{key: newKey, refreshedKey: oldKey}
	verifier := New(resolver, clock.Real())

	claims, err := verifier.Verify(context.Background(), token, "", "")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !resolver.refreshCalled {
		t.Error("expected a forced-refresh resolve after the first verification attempt failed")
	}
	if claims.Issuer != "did:plc:aaa" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
}

func TestVerify_FailsWhenRefreshedKeyStillDoesNotMatch(t *testing.T) {
	_, wrongKey := p256Key(t)
	_, stillWrongKey := p256Key(t)
	oldPriv, _ := p256Key(t)
	token := buildES256Token(t, oldPriv, "did:plc:aaa", "did:plc:labeler", "", time.Now().Add(time.Hour))

	resolver := &fakeResolver{key: wrongKey, refreshedKey: stillWrongKey}
	verifier := New(resolver, clock.Real())

	_, err := verifier.Verify(context.Background(), token, "", "")
	assertKind(t, err, "BadJwtSignature")
}

func TestVerify_ResolveFailureSurfacesAsBadJwtSignature(t *testing.T) {
	priv, _ := p256Key(t)
	token := buildES256Token(t, priv, "did:plc:aaa", "did:plc:labeler", "", time.Now().Add(time.Hour))

	resolver := &fakeResolver{err: errNotFound}
	verifier := New(resolver, clock.Real())

	_, err := verifier.Verify(context.Background(), token, "", "")
	assertKind(t, err, "BadJwtSignature")
}

func TestVerify_Secp256k1Signature(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = 0x33
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	key := &didresolve.Key{Type: didresolve.KeyTypeSecp256k1, PublicKey: priv.PubKey().SerializeCompressed()}

	claims := map[string]any{
		"iss": "did:plc:aaa",
		"aud": "did:plc:labeler",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		t.Fatal(err)
	}
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"ES256K","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString(payloadJSON)
	signingInput := header + "." + body
	sig := signing.Sign(priv, []byte(signingInput))
	token := signingInput + "." + base64.RawURLEncoding.EncodeToString(sig)

	resolver := &fakeResolver{key: key}
	verifier := New(resolver, clock.Real())

	result, err := verifier.Verify(context.Background(), token, "did:plc:labeler", "")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Issuer != "did:plc:aaa" {
		t.Errorf("Issuer = %q", result.Issuer)
	}
}

var errNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "did not found" }

func assertKind(t *testing.T, err error, wantKind string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error of kind %s, got nil", wantKind)
	}
	if !strings.Contains(err.Error(), wantKind) {
		t.Errorf("error %q does not mention kind %s", err.Error(), wantKind)
	}
}
