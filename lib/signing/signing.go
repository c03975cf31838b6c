// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signing

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// signatureSize is the length in bytes of a compact secp256k1
// signature: 32-byte R concatenated with 32-byte S. No recovery byte
// and no DER envelope.
const signatureSize = 32 + 32

// keySize is the length in bytes of a raw secp256k1 private key.
const keySize = 32

// LoadKey parses a 32-byte secp256k1 private key from raw text that
// is either hex- or base64-encoded. A did:key:... string is a public
// identifier and is rejected outright rather than mistaken for a
// secret.
func LoadKey(raw string) (*secp256k1.PrivateKey, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "did:key:") {
		return nil, fmt.Errorf("signing: refusing to load a did:key: string as a private key; " +
			"did:key: identifiers are public")
	}

	data, err := decodeKeyBytes(trimmed)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	if len(data) != keySize {
		return nil, fmt.Errorf("signing: private key must be %d bytes, got %d", keySize, len(data))
	}

	priv := secp256k1.PrivKeyFromBytes(data)
	return priv, nil
}

func decodeKeyBytes(s string) ([]byte, error) {
	if data, err := hex.DecodeString(s); err == nil {
		return data, nil
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	if data, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return nil, fmt.Errorf("key is neither valid hex nor valid base64")
}

// Sign produces a low-S-normalized compact signature over the
// SHA-256 digest of message. The returned slice is always 64 bytes:
// 32-byte R followed by 32-byte S.
func Sign(priv *secp256k1.PrivateKey, message []byte) []byte {
	digest := sha256.Sum256(message)

	// ecdsa.SignCompact returns a 65-byte signature with a leading
	// recovery-id byte; the remaining 64 bytes are the low-S-normalized
	// compact R||S form we want.
	compact := ecdsa.SignCompact(priv, digest[:], false)
	return compact[1:]
}

// Verify reports whether sig is a valid secp256k1 signature over the
// SHA-256 digest of message under pub. Both low-S and high-S
// signatures are accepted: a high-S signature is normalized to its
// low-S equivalent (S, N-S both verify the same message under ECDSA)
// before verification.
func Verify(pub *secp256k1.PublicKey, message, sig []byte) bool {
	if len(sig) != signatureSize {
		return false
	}

	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(sig[:32]) {
		// Overflowed the curve order; not a valid signature component.
		return false
	}
	if s.SetByteSlice(sig[32:]) {
		return false
	}
	if s.IsOverHalfOrder() {
		s.Negate()
	}

	digest := sha256.Sum256(message)
	signature := ecdsa.NewSignature(&r, &s)
	return signature.Verify(digest[:], pub)
}
