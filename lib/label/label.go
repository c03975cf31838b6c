// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package label

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/bslabeler/labeler/lib/codec"
	"github.com/bslabeler/labeler/lib/signing"
)

// Label is the logical form of a moderation-label assertion (spec
// §3). Sig is populated once the label has been signed; a zero-value
// Sig means the label has not yet been through [Sign].
type Label struct {
	Src string // DID of the issuer.
	Uri string // the subject: a DID or a resource URI.
	Cid string // optional content hash pinning a version of Uri.
	Val string // the label vocabulary identifier.
	Neg bool   // true retracts a prior (Src, Uri, Val) assertion.
	Cts string // ISO-8601 UTC creation timestamp.
	Exp string // optional ISO-8601 UTC expiry.
	Sig []byte // raw 64-byte secp256k1 signature, populated by Sign.
}

// signable is the CBOR map encoded for signing and verification. Its
// field set is exactly spec §4.B's "populated non-signature fields":
// omitempty fields are absent from the encoding entirely, never
// encoded as null, and the bare struct tag names sort under Core
// Deterministic Encoding the same way regardless of field
// declaration order.
type signable struct {
	Ver int64  `cbor:"ver"`
	Src string `cbor:"src"`
	Uri string `cbor:"uri"`
	Cid string `cbor:"cid,omitempty"`
	Val string `cbor:"val"`
	Neg bool   `cbor:"neg,omitempty"`
	Cts string `cbor:"cts"`
	Exp string `cbor:"exp,omitempty"`
}

func (l *Label) signableForm() signable {
	return signable{
		Ver: 1,
		Src: l.Src,
		Uri: l.Uri,
		Cid: l.Cid,
		Val: l.Val,
		Neg: l.Neg,
		Cts: l.Cts,
		Exp: l.Exp,
	}
}

// EncodeSignable returns the deterministic binary encoding that Sign
// and Verify operate over.
func (l *Label) EncodeSignable() ([]byte, error) {
	data, err := codec.Marshal(l.signableForm())
	if err != nil {
		return nil, fmt.Errorf("label: encoding signable form: %w", err)
	}
	return data, nil
}

// Sign encodes l's signable form and attaches a fresh signature
// produced with priv, overwriting any prior Sig. It returns the
// encoded bytes that were signed so the caller (the sequencer) need
// not re-encode to log or inspect them.
func (l *Label) Sign(priv *secp256k1.PrivateKey) ([]byte, error) {
	data, err := l.EncodeSignable()
	if err != nil {
		return nil, err
	}
	l.Sig = signing.Sign(priv, data)
	return data, nil
}

// Verify re-encodes l's signable form and checks Sig against pub. It
// does not trust that Sig was produced honestly; a caller verifying a
// label it did not just sign should always use this rather than
// assuming a stored Sig is valid.
func (l *Label) Verify(pub *secp256k1.PublicKey) (bool, error) {
	data, err := l.EncodeSignable()
	if err != nil {
		return false, err
	}
	return signing.Verify(pub, data, l.Sig), nil
}

// Display is the wire-visible form of a label: JSON for queryLabels
// responses, and CBOR (via the same json-tag fallback lib/codec
// documents) inside subscribeLabels frame bodies.
type Display struct {
	Ver int64    `json:"ver"`
	Src string   `json:"src"`
	Uri string   `json:"uri"`
	Cid string   `json:"cid,omitempty"`
	Val string   `json:"val"`
	Neg bool     `json:"neg"`
	Cts string   `json:"cts"`
	Exp string   `json:"exp,omitempty"`
	Sig SigBytes `json:"sig"`
}

// SigBytes is a raw signature rendered as the {"$bytes": "<base64>"}
// wrapper atproto records use for binary fields embedded in JSON.
type SigBytes []byte

// bytesWrapper is the JSON shape SigBytes marshals to and unmarshals
// from.
type bytesWrapper struct {
	Bytes string `json:"$bytes"`
}

func (b SigBytes) MarshalJSON() ([]byte, error) {
	wrapper := bytesWrapper{Bytes: base64.StdEncoding.EncodeToString(b)}
	return json.Marshal(wrapper)
}

func (b *SigBytes) UnmarshalJSON(data []byte) error {
	var wrapper bytesWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("label: decoding $bytes wrapper: %w", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(wrapper.Bytes)
	if err != nil {
		return fmt.Errorf("label: decoding $bytes: %w", err)
	}
	*b = decoded
	return nil
}

// Display converts l to its wire-visible form. Neg is always
// rendered as a JSON boolean (display form never omits it, unlike
// the signable form).
func (l *Label) Display() Display {
	return Display{
		Ver: 1,
		Src: l.Src,
		Uri: l.Uri,
		Cid: l.Cid,
		Val: l.Val,
		Neg: l.Neg,
		Cts: l.Cts,
		Exp: l.Exp,
		Sig: SigBytes(l.Sig),
	}
}
