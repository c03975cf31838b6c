// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package label

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/bslabeler/labeler/lib/codec"
)

func testKey(t *testing.T) *secp256k1.PrivateKey {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = 0x11
	}
	return secp256k1.PrivKeyFromBytes(raw)
}

func TestSignVerifyRoundtrip(t *testing.T) {
	priv := testKey(t)
	l := &Label{
		Src: "did:plc:aaa",
		Uri: "did:plc:bbb",
		Val: "spam",
		Cts: "2026-01-01T00:00:00.000Z",
	}

	if _, err := l.Sign(priv); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(l.Sig) != 64 {
		t.Fatalf("Sig length = %d, want 64", len(l.Sig))
	}

	ok, err := l.Verify(priv.PubKey())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("Verify rejected a freshly signed label")
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	priv := testKey(t)
	l := &Label{
		Src: "did:plc:aaa",
		Uri: "did:plc:bbb",
		Val: "spam",
		Cts: "2026-01-01T00:00:00.000Z",
	}
	if _, err := l.Sign(priv); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	l.Val = "porn"

	ok, err := l.Verify(priv.PubKey())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("Verify accepted a tampered label")
	}
}

func TestEncodeSignable_OmitsAbsentOptionalFields(t *testing.T) {
	l := &Label{
		Src: "did:plc:aaa",
		Uri: "did:plc:bbb",
		Val: "spam",
		Cts: "2026-01-01T00:00:00.000Z",
	}

	data, err := l.EncodeSignable()
	if err != nil {
		t.Fatalf("EncodeSignable: %v", err)
	}

	notation, err := codec.Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}

	for _, absent := range []string{`"cid"`, `"neg"`, `"exp"`} {
		if strings.Contains(notation, absent) {
			t.Errorf("signable encoding %q should not contain %s", notation, absent)
		}
	}
	for _, present := range []string{`"ver"`, `"src"`, `"uri"`, `"val"`, `"cts"`} {
		if !strings.Contains(notation, present) {
			t.Errorf("signable encoding %q should contain %s", notation, present)
		}
	}
}

func TestEncodeSignable_NegFalseOmittedButTrueIncluded(t *testing.T) {
	base := &Label{Src: "did:plc:a", Uri: "did:plc:b", Val: "x", Cts: "2026-01-01T00:00:00.000Z"}

	negFalse, err := base.EncodeSignable()
	if err != nil {
		t.Fatal(err)
	}

	negTrue := *base
	negTrue.Neg = true
	dataTrue, err := negTrue.EncodeSignable()
	if err != nil {
		t.Fatal(err)
	}

	if len(dataTrue) <= len(negFalse) {
		t.Error("expected neg:true to add bytes relative to omitted neg:false")
	}

	notation, err := codec.Diagnose(negFalse)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(notation, `"neg"`) {
		t.Errorf("neg:false should be omitted, got %q", notation)
	}
}

func TestEncodeSignable_Deterministic(t *testing.T) {
	l := &Label{Src: "did:plc:a", Uri: "did:plc:b", Val: "x", Cts: "2026-01-01T00:00:00.000Z"}

	first, err := l.EncodeSignable()
	if err != nil {
		t.Fatal(err)
	}
	second, err := l.EncodeSignable()
	if err != nil {
		t.Fatal(err)
	}

	if hex.EncodeToString(first) != hex.EncodeToString(second) {
		t.Errorf("EncodeSignable is not deterministic: %x != %x", first, second)
	}
}

func TestDisplay_RendersSigAsBytesWrapper(t *testing.T) {
	priv := testKey(t)
	l := &Label{Src: "did:plc:a", Uri: "did:plc:b", Val: "x", Cts: "2026-01-01T00:00:00.000Z"}
	if _, err := l.Sign(priv); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(l.Display())
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}

	if !strings.Contains(string(data), `"$bytes"`) {
		t.Errorf("display JSON %s does not contain $bytes wrapper", data)
	}

	var roundtrip Display
	if err := json.Unmarshal(data, &roundtrip); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if hex.EncodeToString(roundtrip.Sig) != hex.EncodeToString(l.Sig) {
		t.Error("Sig did not round-trip through Display JSON")
	}
}

func TestDisplay_VerAlwaysOne(t *testing.T) {
	l := &Label{Src: "did:plc:a", Uri: "did:plc:b", Val: "x", Cts: "2026-01-01T00:00:00.000Z"}
	if l.Display().Ver != 1 {
		t.Errorf("Display().Ver = %d, want 1", l.Display().Ver)
	}
}

func TestValidateCid(t *testing.T) {
	if err := ValidateCid(""); err != nil {
		t.Errorf("empty cid should be valid (optional field absent): %v", err)
	}
	if err := ValidateCid("not a cid at all"); err == nil {
		t.Error("expected error for malformed cid")
	}
}
