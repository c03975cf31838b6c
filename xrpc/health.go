// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package xrpc

import (
	"net/http"

	"github.com/bslabeler/labeler/lib/apierr"
)

// healthResponse is the body of a _health response, per spec §6:
// 200 {version} on success, 503 {version, error} otherwise.
type healthResponse struct {
	Version string `json:"version"`
	Error   string `json:"error,omitempty"`
}

// handleHealth probes the store and reports the result. A probe
// failure is ServiceUnavailable, not InternalServerError — a down
// store is an operational signal for the caller (load balancer,
// orchestrator), not an unclassified bug.
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeError(w, r.deps.Logger, apierr.New(apierr.MethodNotImplemented, "_health only supports GET"))
		return
	}

	if _, err := r.deps.Store.MaxID(req.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Version: r.deps.Version,
			Error:   "store probe failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Version: r.deps.Version})
}
