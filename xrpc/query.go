// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package xrpc

import (
	"net/http"
	"strconv"

	"github.com/bslabeler/labeler/lib/apierr"
	"github.com/bslabeler/labeler/lib/label"
	"github.com/bslabeler/labeler/lib/labelstore"
)

const (
	defaultQueryLimit = 50
	minQueryLimit     = 1
	maxQueryLimit     = 250
)

// queryLabelsResponse is the body of a queryLabels response, per
// spec §4.F.
type queryLabelsResponse struct {
	Cursor string          `json:"cursor"`
	Labels []label.Display `json:"labels"`
}

// handleQueryLabels serves spec §4.F: parse and validate the query
// string, translate to a [labelstore.QueryParams], and format the
// result.
func (r *Router) handleQueryLabels(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeError(w, r.deps.Logger, apierr.New(apierr.MethodNotImplemented, "queryLabels only supports GET"))
		return
	}

	query := req.URL.Query()

	limit := defaultQueryLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < minQueryLimit || parsed > maxQueryLimit {
			writeError(w, r.deps.Logger, apierr.New(apierr.InvalidRequest, "limit must be an integer in [1, 250]"))
			return
		}
		limit = parsed
	}

	var afterID int64
	if raw := query.Get("cursor"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r.deps.Logger, apierr.New(apierr.InvalidRequest, "cursor must be an integer"))
			return
		}
		afterID = parsed
	}

	uriPatterns := query["uriPatterns"]
	for _, pattern := range uriPatterns {
		if _, _, err := labelstore.TranslateURIPattern(pattern); err != nil {
			writeError(w, r.deps.Logger, apierr.New(apierr.InvalidRequest, err.Error()))
			return
		}
	}

	stored, err := r.deps.Store.Query(req.Context(), labelstore.QueryParams{
		URIPatterns: uriPatterns,
		Sources:     query["sources"],
		AfterID:     afterID,
		Limit:       limit,
	})
	if err != nil {
		writeError(w, r.deps.Logger, apierr.Internal(err))
		return
	}

	response := queryLabelsResponse{Cursor: "0", Labels: make([]label.Display, len(stored))}
	for i, s := range stored {
		response.Labels[i] = s.Label.Display()
	}
	if len(stored) > 0 {
		response.Cursor = strconv.FormatInt(stored[len(stored)-1].ID, 10)
	}

	writeJSON(w, http.StatusOK, response)
}
