// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package didkey

import (
	"fmt"

	"github.com/multiformats/go-multibase"
)

// Multicodec varint prefixes for the two key types this service
// resolves from DID documents. These are the two-byte varint
// encodings of the multicodec table entries p256-pub (0x1200) and
// secp256k1-pub (0xe7), not raw codec numbers.
var (
	p256Prefix      = []byte{0x80, 0x24}
	secp256k1Prefix = []byte{0xe7, 0x01}
)

// EncodeP256 returns the did:key:z... identifier for a compressed
// P-256 public key (33 bytes).
func EncodeP256(compressedPubKey []byte) (string, error) {
	return encode(p256Prefix, compressedPubKey)
}

// EncodeSecp256k1 returns the did:key:z... identifier for a
// compressed secp256k1 public key (33 bytes).
func EncodeSecp256k1(compressedPubKey []byte) (string, error) {
	return encode(secp256k1Prefix, compressedPubKey)
}

func encode(prefix, compressedPubKey []byte) (string, error) {
	if len(compressedPubKey) != 33 {
		return "", fmt.Errorf("didkey: compressed public key must be 33 bytes, got %d", len(compressedPubKey))
	}

	prefixed := make([]byte, 0, len(prefix)+len(compressedPubKey))
	prefixed = append(prefixed, prefix...)
	prefixed = append(prefixed, compressedPubKey...)

	encoded, err := multibase.Encode(multibase.Base58BTC, prefixed)
	if err != nil {
		return "", fmt.Errorf("didkey: multibase encode: %w", err)
	}

	return "did:key:" + encoded, nil
}
