// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package xrpc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bslabeler/labeler/lib/apierr"
)

// errorBody is the wire shape of an HTTP error response, per spec §6
// ("Error responses JSON {error: <kind>, message: <text>}").
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON encodes v as the response body with status and the
// standard Content-Type header.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("xrpc: failed to encode response body", "error", err)
	}
}

// writeError classifies err and writes it as a JSON error response.
// An unclassified err (not an *apierr.Error) is logged with its full
// text and reported to the caller as InternalServerError, never
// leaking internal detail onto the wire — this is also where a
// recovered panic (see [Router.ServeHTTP]) lands.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		logger.Error("xrpc: unclassified error", "error", err)
		apiErr = apierr.Internal(err)
	}
	writeJSON(w, apiErr.HTTPStatus(), errorBody{Error: string(apiErr.Kind), Message: apiErr.Message})
}
