// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apierr

import "net/http"

// Kind identifies a wire-visible error category.
type Kind string

const (
	InvalidRequest       Kind = "InvalidRequest"
	AuthRequired         Kind = "AuthRequired"
	MissingJwt           Kind = "MissingJwt"
	BadJwt               Kind = "BadJwt"
	JwtExpired           Kind = "JwtExpired"
	BadJwtAudience       Kind = "BadJwtAudience"
	BadJwtLexiconMethod  Kind = "BadJwtLexiconMethod"
	BadJwtSignature      Kind = "BadJwtSignature"
	FutureCursor         Kind = "FutureCursor"
	ConsumerTooSlow      Kind = "ConsumerTooSlow"
	MethodNotImplemented Kind = "MethodNotImplemented"
	InternalServerError  Kind = "InternalServerError"
	ServiceUnavailable   Kind = "ServiceUnavailable"
)

// httpStatus maps each Kind to the HTTP status code it is reported
// with. Kept as a single table per the "Error mapping" design note:
// one place decides the wire status for every kind.
var httpStatus = map[Kind]int{
	InvalidRequest:       http.StatusBadRequest,
	AuthRequired:         http.StatusUnauthorized,
	MissingJwt:           http.StatusUnauthorized,
	BadJwt:               http.StatusUnauthorized,
	JwtExpired:           http.StatusUnauthorized,
	BadJwtAudience:       http.StatusUnauthorized,
	BadJwtLexiconMethod:  http.StatusUnauthorized,
	BadJwtSignature:      http.StatusUnauthorized,
	FutureCursor:         http.StatusBadRequest,
	ConsumerTooSlow:      http.StatusBadRequest,
	MethodNotImplemented: http.StatusNotImplemented,
	InternalServerError:  http.StatusInternalServerError,
	ServiceUnavailable:   http.StatusServiceUnavailable,
}

// Error is a classified, wire-visible error.
type Error struct {
	Kind    Kind
	Message string
}

// New constructs an Error of the given kind with message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// HTTPStatus returns the HTTP status code for e.Kind, defaulting to
// 500 for a kind outside the known table (should not occur for a
// value constructed through this package, but guards against a
// string literal cast finding its way in).
func (e *Error) HTTPStatus() int {
	if status, ok := httpStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Internal returns an InternalServerError carrying only a generic
// message. err is not retained in the result, so none of its text
// reaches the caller. Use this at boundaries where an unclassified
// error needs a wire-safe kind.
func Internal(err error) *Error {
	return &Error{Kind: InternalServerError, Message: "internal server error"}
}
