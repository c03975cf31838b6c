// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"bytes"
	"io"
	"testing"

	"github.com/bslabeler/labeler/lib/apierr"
	"github.com/bslabeler/labeler/lib/codec"
	"github.com/bslabeler/labeler/lib/label"
)

func TestWriteReadLabelsFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	displayed := []label.Display{{
		Ver: 1, Src: "did:plc:aaa", Uri: "did:plc:bbb", Val: "spam",
		Cts: "2026-01-01T00:00:00.000Z", Sig: label.SigBytes{1, 2, 3},
	}}

	if err := w.WriteLabels(42, displayed); err != nil {
		t.Fatalf("WriteLabels: %v", err)
	}

	got, err := NewReader(&buf).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.IsError() {
		t.Fatalf("expected a message frame, got error %q: %q", got.ErrorKind, got.ErrorMessage)
	}
	if got.Labels.Seq != 42 {
		t.Errorf("Seq = %d, want 42", got.Labels.Seq)
	}
	if len(got.Labels.Labels) != 1 || got.Labels.Labels[0].Uri != "did:plc:bbb" {
		t.Errorf("unexpected labels: %+v", got.Labels.Labels)
	}
}

func TestWriteReadErrorFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.WriteError(apierr.FutureCursor, "cursor exceeds maxId"); err != nil {
		t.Fatalf("WriteError: %v", err)
	}

	got, err := NewReader(&buf).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !got.IsError() {
		t.Fatal("expected an error frame")
	}
	if got.ErrorKind != string(apierr.FutureCursor) {
		t.Errorf("ErrorKind = %q, want %q", got.ErrorKind, apierr.FutureCursor)
	}
	if got.ErrorMessage != "cursor exceeds maxId" {
		t.Errorf("ErrorMessage = %q", got.ErrorMessage)
	}
}

func TestRead_MultipleFramesInSequence(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	label1 := []label.Display{{Ver: 1, Src: "did:plc:a", Uri: "did:plc:x", Val: "spam", Cts: "t1", Sig: label.SigBytes{1}}}
	label2 := []label.Display{{Ver: 1, Src: "did:plc:a", Uri: "did:plc:y", Val: "scam", Cts: "t2", Sig: label.SigBytes{2}}}

	if err := w.WriteLabels(1, label1); err != nil {
		t.Fatalf("WriteLabels: %v", err)
	}
	if err := w.WriteLabels(2, label2); err != nil {
		t.Fatalf("WriteLabels: %v", err)
	}

	reader := NewReader(&buf)

	first, err := reader.Read()
	if err != nil {
		t.Fatalf("Read first: %v", err)
	}
	if first.Labels.Seq != 1 {
		t.Errorf("first Seq = %d, want 1", first.Labels.Seq)
	}

	second, err := reader.Read()
	if err != nil {
		t.Fatalf("Read second: %v", err)
	}
	if second.Labels.Seq != 2 {
		t.Errorf("second Seq = %d, want 2", second.Labels.Seq)
	}

	if _, err := reader.Read(); err != io.EOF {
		t.Errorf("expected io.EOF after last frame, got %v", err)
	}
}

func TestRead_UnknownOpIsAnError(t *testing.T) {
	var buf bytes.Buffer

	// Hand-encode a header with an op Writer never produces.
	if err := codec.NewEncoder(&buf).Encode(header{Op: 99}); err != nil {
		t.Fatalf("encoding header: %v", err)
	}

	if _, err := NewReader(&buf).Read(); err == nil {
		t.Fatal("expected an error for an unrecognized op")
	}
}
