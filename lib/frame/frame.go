// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"fmt"
	"io"

	"github.com/bslabeler/labeler/lib/apierr"
	"github.com/bslabeler/labeler/lib/codec"
	"github.com/bslabeler/labeler/lib/label"
)

const (
	opMessage = 1
	opError   = -1

	// LabelsType is the message frame's t value for a labels delivery.
	LabelsType = "#labels"
)

// header is the first CBOR object of every frame. T is absent
// (zero value) on error frames.
type header struct {
	Op int64  `cbor:"op"`
	T  string `cbor:"t,omitempty"`
}

// LabelsPayload is the body of a #labels message frame: one or more
// labels sharing a single assigned sequence id.
type LabelsPayload struct {
	Seq    int64           `cbor:"seq"`
	Labels []label.Display `cbor:"labels"`
}

// errorPayload is the body of an error frame.
type errorPayload struct {
	Error   string `cbor:"error"`
	Message string `cbor:"message"`
}

// Writer writes frames to an underlying connection.
type Writer struct {
	enc *codec.Encoder
}

// NewWriter returns a Writer that writes frames to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: codec.NewEncoder(w)}
}

// WriteLabels writes a #labels message frame carrying seq and labels.
func (w *Writer) WriteLabels(seq int64, labels []label.Display) error {
	if err := w.enc.Encode(header{Op: opMessage, T: LabelsType}); err != nil {
		return fmt.Errorf("frame: writing header: %w", err)
	}
	if err := w.enc.Encode(LabelsPayload{Seq: seq, Labels: labels}); err != nil {
		return fmt.Errorf("frame: writing labels body: %w", err)
	}
	return nil
}

// WriteError writes an error frame carrying kind and message. The
// connection is expected to close after an error frame.
func (w *Writer) WriteError(kind apierr.Kind, message string) error {
	if err := w.enc.Encode(header{Op: opError}); err != nil {
		return fmt.Errorf("frame: writing header: %w", err)
	}
	if err := w.enc.Encode(errorPayload{Error: string(kind), Message: message}); err != nil {
		return fmt.Errorf("frame: writing error body: %w", err)
	}
	return nil
}

// Frame is a decoded frame, as returned by [Reader.Read].
type Frame struct {
	// Labels is set for a #labels message frame.
	Labels *LabelsPayload

	// ErrorKind and ErrorMessage are set for an error frame.
	ErrorKind    string
	ErrorMessage string
}

// IsError reports whether f is an error frame.
func (f *Frame) IsError() bool {
	return f.Labels == nil
}

// Reader reads frames from an underlying connection.
type Reader struct {
	dec *codec.Decoder
}

// NewReader returns a Reader that reads frames from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: codec.NewDecoder(r)}
}

// Read decodes the next frame. Returns io.EOF when the connection has
// no further frames.
func (r *Reader) Read() (*Frame, error) {
	var h header
	if err := r.dec.Decode(&h); err != nil {
		return nil, err
	}

	switch h.Op {
	case opMessage:
		var payload LabelsPayload
		if err := r.dec.Decode(&payload); err != nil {
			return nil, fmt.Errorf("frame: reading labels body: %w", err)
		}
		return &Frame{Labels: &payload}, nil
	case opError:
		var payload errorPayload
		if err := r.dec.Decode(&payload); err != nil {
			return nil, fmt.Errorf("frame: reading error body: %w", err)
		}
		return &Frame{ErrorKind: payload.Error, ErrorMessage: payload.Message}, nil
	default:
		return nil, fmt.Errorf("frame: unknown op %d", h.Op)
	}
}
