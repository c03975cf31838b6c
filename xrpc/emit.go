// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package xrpc

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bslabeler/labeler/lib/apierr"
	"github.com/bslabeler/labeler/lib/label"
	"github.com/bslabeler/labeler/lib/netutil"
	"github.com/bslabeler/labeler/lib/sequencer"
)

// emitTimestampLayout matches the ISO-8601 millisecond form every
// other cts/exp value in this service uses.
const emitTimestampLayout = "2006-01-02T15:04:05.000Z"

// modEventLabelType is the required event.$type value, per spec
// §4.G step 3.
const modEventLabelType = "tools.ozone.moderation.defs#modEventLabel"

// repoRefType and strongRefType are the two subject shapes spec
// §4.G step 5 recognizes.
const (
	repoRefType   = "com.atproto.admin.defs#repoRef"
	strongRefType = "com.atproto.repo.strongRef"
)

// emitEventRequest is the body of an emitEvent request. Event and
// Subject are kept as raw messages for the response echo (step 7)
// and decoded separately for validation.
type emitEventRequest struct {
	Event           json.RawMessage `json:"event"`
	Subject         json.RawMessage `json:"subject"`
	SubjectBlobCids []string        `json:"subjectBlobCids,omitempty"`
	CreatedBy       string          `json:"createdBy"`
}

// modEventLabel is the shape of Event once its $type is confirmed.
type modEventLabel struct {
	Type            string   `json:"$type"`
	CreateLabelVals []string `json:"createLabelVals,omitempty"`
	NegateLabelVals []string `json:"negateLabelVals,omitempty"`
	Comment         string   `json:"comment,omitempty"`
}

// subjectRef is the shape of Subject once its $type is confirmed.
type subjectRef struct {
	Type string `json:"$type"`
	Did  string `json:"did,omitempty"` // repoRef
	Uri  string `json:"uri,omitempty"` // strongRef
	Cid  string `json:"cid,omitempty"` // strongRef
}

// emitEventResponse is the body of an emitEvent response, per spec
// §4.G step 7.
type emitEventResponse struct {
	ID              int64           `json:"id"`
	Event           json.RawMessage `json:"event"`
	Subject         json.RawMessage `json:"subject"`
	SubjectBlobCids []string        `json:"subjectBlobCids,omitempty"`
	CreatedBy       string          `json:"createdBy"`
	CreatedAt       string          `json:"createdAt"`
}

// handleEmitEvent serves spec §4.G's seven-step procedure.
func (r *Router) handleEmitEvent(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeError(w, r.deps.Logger, apierr.New(apierr.MethodNotImplemented, "emitEvent only supports POST"))
		return
	}
	ctx := req.Context()

	// Step 1: extract and verify the bearer JWT.
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		writeError(w, r.deps.Logger, apierr.New(apierr.AuthRequired, "missing Authorization header"))
		return
	}
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		writeError(w, r.deps.Logger, apierr.New(apierr.MissingJwt, "Authorization header is not a bearer token"))
		return
	}

	claims, err := r.deps.Verifier.Verify(ctx, token, r.deps.Audience, emitLexiconMethod)
	if err != nil {
		writeError(w, r.deps.Logger, err)
		return
	}

	// Step 2: policy hook over the verified issuer.
	if !r.deps.AuthPolicy(claims.Issuer) {
		writeError(w, r.deps.Logger, apierr.New(apierr.AuthRequired, "issuer is not permitted to emit events"))
		return
	}

	body, err := netutil.ReadResponse(req.Body)
	if err != nil {
		writeError(w, r.deps.Logger, apierr.Internal(err))
		return
	}
	var reqBody emitEventRequest
	if err := json.Unmarshal(body, &reqBody); err != nil {
		writeError(w, r.deps.Logger, apierr.New(apierr.InvalidRequest, "malformed request body"))
		return
	}

	// Step 3: event.$type must be modEventLabel.
	var event modEventLabel
	if err := json.Unmarshal(reqBody.Event, &event); err != nil || event.Type != modEventLabelType {
		writeError(w, r.deps.Logger, apierr.New(apierr.InvalidRequest, "event.$type must be "+modEventLabelType))
		return
	}

	// Step 4: at least one of createLabelVals/negateLabelVals.
	if len(event.CreateLabelVals) == 0 && len(event.NegateLabelVals) == 0 {
		writeError(w, r.deps.Logger, apierr.New(apierr.InvalidRequest, "at least one of createLabelVals or negateLabelVals is required"))
		return
	}

	// Step 5: resolve subject to a URI (+ optional CID).
	var subject subjectRef
	if err := json.Unmarshal(reqBody.Subject, &subject); err != nil {
		writeError(w, r.deps.Logger, apierr.New(apierr.InvalidRequest, "malformed subject"))
		return
	}
	var seqSubject sequencer.Subject
	switch subject.Type {
	case repoRefType:
		if subject.Did == "" {
			writeError(w, r.deps.Logger, apierr.New(apierr.InvalidRequest, "repoRef subject requires did"))
			return
		}
		seqSubject = sequencer.Subject{Uri: subject.Did}
	case strongRefType:
		if subject.Uri == "" || subject.Cid == "" {
			writeError(w, r.deps.Logger, apierr.New(apierr.InvalidRequest, "strongRef subject requires uri and cid"))
			return
		}
		if err := label.ValidateCid(subject.Cid); err != nil {
			writeError(w, r.deps.Logger, apierr.New(apierr.InvalidRequest, err.Error()))
			return
		}
		seqSubject = sequencer.Subject{Uri: subject.Uri, Cid: subject.Cid}
	default:
		writeError(w, r.deps.Logger, apierr.New(apierr.InvalidRequest, "subject.$type must be "+repoRefType+" or "+strongRefType))
		return
	}

	// Step 6: expand into label writes.
	created, err := r.deps.Sequencer.CreateLabels(ctx, seqSubject, event.CreateLabelVals, event.NegateLabelVals)
	if err != nil {
		writeError(w, r.deps.Logger, err)
		return
	}

	// Step 7: respond with the first created label's id.
	writeJSON(w, http.StatusOK, emitEventResponse{
		ID:              created[0].ID,
		Event:           reqBody.Event,
		Subject:         reqBody.Subject,
		SubjectBlobCids: reqBody.SubjectBlobCids,
		CreatedBy:       reqBody.CreatedBy,
		CreatedAt:       r.deps.Clock.Now().UTC().Format(emitTimestampLayout),
	})
}
