// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package didresolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/multiformats/go-multibase"

	"github.com/bslabeler/labeler/lib/clock"
	"github.com/bslabeler/labeler/lib/didkey"
	"github.com/bslabeler/labeler/lib/netutil"
)

// cacheTTL is the lifetime of a positive resolution result, per spec
// §4.A "Cache positive results with a one-hour TTL".
const cacheTTL = time.Hour

// fetchTimeout bounds a single DID-document fetch. §5 "DID-document
// fetches SHOULD carry a bounded timeout".
const fetchTimeout = 5 * time.Second

var (
	ErrUnsupportedMethod  = errors.New("didresolve: unsupported DID method")
	ErrNoVerificationKey  = errors.New("didresolve: no atproto verification method in document")
	ErrUnsupportedKeyType = errors.New("didresolve: unrecognized publicKeyMultibase prefix")
)

// KeyType identifies which curve a resolved key uses.
type KeyType int

const (
	KeyTypeP256 KeyType = iota
	KeyTypeSecp256k1
)

// p256MulticodecPrefix and secp256k1MulticodecPrefix are the two-byte
// varint multicodec prefixes spec §4.A names: 0x8024 for p256-pub,
// 0xe701 for secp256k1-pub.
var (
	p256MulticodecPrefix      = []byte{0x80, 0x24}
	secp256k1MulticodecPrefix = []byte{0xe7, 0x01}
)

// Key is a resolved atproto signing key: its curve, the compressed
// public key bytes, and the did:key:z... form lib/jwtauth logs for
// diagnostics.
type Key struct {
	Type      KeyType
	PublicKey []byte // compressed, 33 bytes
	DIDKey    string
}

// Resolver fetches and caches DID documents' atproto verification
// keys. The zero value is not usable; construct with [New].
//
// Safe for concurrent use: the cache is guarded by a mutex, per spec
// §5 "The DID→key cache is shared mutable state guarded by a mutex;
// entries are immutable between insert and eviction."
type Resolver struct {
	httpClient *http.Client
	clock      clock.Clock

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	key       *Key
	expiresAt time.Time
}

// New constructs a Resolver. httpClient is used for all DID-document
// fetches; pass http.DefaultClient if no special transport is needed.
func New(httpClient *http.Client, clk clock.Clock) *Resolver {
	return &Resolver{
		httpClient: httpClient,
		clock:      clk,
		cache:      make(map[string]cacheEntry),
	}
}

// Resolve returns the atproto signing key for did. A cached, unexpired
// result is returned unless forceRefresh is true, in which case the
// document is refetched and the cache entry replaced on success (a
// failed forced refresh does not evict the existing entry, so a
// transient outage does not strand a caller that only needed the old
// key).
func (r *Resolver) Resolve(ctx context.Context, did string, forceRefresh bool) (*Key, error) {
	if !forceRefresh {
		if key, ok := r.lookup(did); ok {
			return key, nil
		}
	}

	key, err := r.fetch(ctx, did)
	if err != nil {
		return nil, err
	}

	r.store(did, key)
	return key, nil
}

func (r *Resolver) lookup(did string) (*Key, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.cache[did]
	if !ok || r.clock.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.key, true
}

func (r *Resolver) store(did string, key *Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache[did] = cacheEntry{
		key:       key,
		expiresAt: r.clock.Now().Add(cacheTTL),
	}
}

func (r *Resolver) fetch(ctx context.Context, did string) (*Key, error) {
	url, err := documentURL(did)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("didresolve: building request for %s: %w", did, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("didresolve: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("didresolve: fetching %s: status %d", url, resp.StatusCode)
	}

	var doc document
	if err := netutil.DecodeResponse(resp.Body, &doc); err != nil {
		return nil, fmt.Errorf("didresolve: decoding document for %s: %w", did, err)
	}

	return keyFromDocument(did, &doc)
}

// documentURL returns the fetch location for a DID document per spec
// §4.A: did:plc:<id> resolves against plc.directory; did:web:<host>
// resolves against the host's own well-known path.
func documentURL(did string) (string, error) {
	switch {
	case strings.HasPrefix(did, "did:plc:"):
		return "https://plc.directory/" + did, nil
	case strings.HasPrefix(did, "did:web:"):
		host := strings.TrimPrefix(did, "did:web:")
		return "https://" + host + "/.well-known/did.json", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, did)
	}
}

// document is the subset of a DID document this resolver reads.
type document struct {
	ID                 string               `json:"id"`
	VerificationMethod []verificationMethod `json:"verificationMethod"`
}

type verificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	PublicKeyMultibase string `json:"publicKeyMultibase"`
}

// keyFromDocument selects the atproto verification method (id ending
// in "#atproto" under this did, or the bare "#atproto" fragment) and
// decodes its multicodec-prefixed public key.
func keyFromDocument(did string, doc *document) (*Key, error) {
	var multibaseKey string
	for _, vm := range doc.VerificationMethod {
		if vm.ID == did+"#atproto" || vm.ID == "#atproto" {
			multibaseKey = vm.PublicKeyMultibase
			break
		}
	}
	if multibaseKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoVerificationKey, did)
	}

	_, data, err := multibase.Decode(multibaseKey)
	if err != nil {
		return nil, fmt.Errorf("didresolve: decoding publicKeyMultibase for %s: %w", did, err)
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, did)
	}

	prefix, pubKey := data[:2], data[2:]
	switch {
	case prefix[0] == p256MulticodecPrefix[0] && prefix[1] == p256MulticodecPrefix[1]:
		didKeyStr, err := didkey.EncodeP256(pubKey)
		if err != nil {
			return nil, fmt.Errorf("didresolve: re-encoding did:key for %s: %w", did, err)
		}
		return &Key{Type: KeyTypeP256, PublicKey: pubKey, DIDKey: didKeyStr}, nil
	case prefix[0] == secp256k1MulticodecPrefix[0] && prefix[1] == secp256k1MulticodecPrefix[1]:
		didKeyStr, err := didkey.EncodeSecp256k1(pubKey)
		if err != nil {
			return nil, fmt.Errorf("didresolve: re-encoding did:key for %s: %w", did, err)
		}
		return &Key{Type: KeyTypeSecp256k1, PublicKey: pubKey, DIDKey: didKeyStr}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, did)
	}
}
