// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jwtauth

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bslabeler/labeler/lib/apierr"
	"github.com/bslabeler/labeler/lib/clock"
	"github.com/bslabeler/labeler/lib/didresolve"
	"github.com/bslabeler/labeler/lib/signing"
)

// KeyResolver resolves a DID to its atproto signing key. Satisfied by
// *lib/didresolve.Resolver; abstracted here so tests can substitute a
// fixed key without an HTTP round trip.
type KeyResolver interface {
	Resolve(ctx context.Context, did string, forceRefresh bool) (*didresolve.Key, error)
}

// Claims is the subset of a verified JWT payload callers need.
type Claims struct {
	Issuer        string
	Audience      string
	LexiconMethod string
	Nonce         string
}

// payload is the raw JSON shape of the JWT's second segment, decoded
// before the signature is checked. Field types match spec §4.A step
// 2: encoding/json rejects a wrong-shaped value (e.g. a numeric aud)
// outright, giving BadJwt for free on a malformed claim type.
type payload struct {
	Iss   string  `json:"iss"`
	Aud   string  `json:"aud"`
	Exp   float64 `json:"exp"`
	Lxm   string  `json:"lxm,omitempty"`
	Nonce string  `json:"nonce,omitempty"`
}

// Verifier checks compact JWTs against a resolvable issuer key.
type Verifier struct {
	resolver KeyResolver
	clock    clock.Clock
}

// New constructs a Verifier. resolver is asked for the issuer's key
// (and, on a verification failure, a forcibly refreshed key) during
// [Verifier.Verify].
func New(resolver KeyResolver, clk clock.Clock) *Verifier {
	return &Verifier{resolver: resolver, clock: clk}
}

// Verify checks tokenString per spec §4.A. expectedAudience and
// expectedLxm are checked only when non-empty — every call site in
// this service (emitEvent) always supplies both, but an empty value
// is treated as "no constraint" rather than "must be empty" to match
// the spec's "if expected audience is non-null" phrasing.
func (v *Verifier) Verify(ctx context.Context, tokenString, expectedAudience, expectedLxm string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, apierr.New(apierr.BadJwt, "malformed JWT: expected three dot-separated parts")
	}
	headerB64, payloadB64, sigB64 := parts[0], parts[1], parts[2]

	payloadBytes, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, apierr.New(apierr.BadJwt, "malformed JWT: payload is not valid base64url")
	}

	var claims payload
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, apierr.New(apierr.BadJwt, "malformed JWT: payload is not a valid claims object")
	}
	if claims.Iss == "" || claims.Aud == "" {
		return nil, apierr.New(apierr.BadJwt, "malformed JWT: iss and aud are required")
	}

	if float64(v.clock.Now().Unix()) > claims.Exp {
		return nil, apierr.New(apierr.JwtExpired, "JWT has expired")
	}
	if expectedAudience != "" && claims.Aud != expectedAudience {
		return nil, apierr.New(apierr.BadJwtAudience, "JWT audience does not match this labeler")
	}
	if expectedLxm != "" && claims.Lxm != expectedLxm {
		return nil, apierr.New(apierr.BadJwtLexiconMethod, "JWT lxm does not match this procedure")
	}

	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, apierr.New(apierr.BadJwt, "malformed JWT: signature is not valid base64url")
	}
	signingInput := headerB64 + "." + payloadB64

	key, resolveErr := v.resolver.Resolve(ctx, claims.Iss, false)
	if resolveErr == nil && verifySignature(key, signingInput, sig) {
		return toClaims(&claims), nil
	}

	refreshed, refreshErr := v.resolver.Resolve(ctx, claims.Iss, true)
	if refreshErr != nil {
		return nil, apierr.New(apierr.BadJwtSignature, "could not resolve issuer's signing key")
	}
	if resolveErr == nil && keysEqual(key, refreshed) {
		// No rotation occurred; retrying against the same key would
		// only reproduce the failure already observed above.
		return nil, apierr.New(apierr.BadJwtSignature, "signature does not verify against issuer's key")
	}
	if !verifySignature(refreshed, signingInput, sig) {
		return nil, apierr.New(apierr.BadJwtSignature, "signature does not verify against issuer's key")
	}

	return toClaims(&claims), nil
}

func toClaims(p *payload) *Claims {
	return &Claims{Issuer: p.Iss, Audience: p.Aud, LexiconMethod: p.Lxm, Nonce: p.Nonce}
}

func keysEqual(a, b *didresolve.Key) bool {
	return a.Type == b.Type && bytes.Equal(a.PublicKey, b.PublicKey)
}

// verifySignature checks sig over signingInput under key, dispatching
// on the curve the resolved key uses. A resolution or parse failure
// of the public key bytes counts as a verification failure, not an
// error, so callers can uniformly fall through to the refresh retry.
func verifySignature(key *didresolve.Key, signingInput string, sig []byte) bool {
	switch key.Type {
	case didresolve.KeyTypeP256:
		x, y := elliptic.UnmarshalCompressed(elliptic.P256(), key.PublicKey)
		if x == nil {
			return false
		}
		pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
		return jwt.SigningMethodES256.Verify(signingInput, sig, pub) == nil
	case didresolve.KeyTypeSecp256k1:
		pub, err := secp256k1.ParsePubKey(key.PublicKey)
		if err != nil {
			return false
		}
		return signing.Verify(pub, []byte(signingInput), sig)
	default:
		return false
	}
}
