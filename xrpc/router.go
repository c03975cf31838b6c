// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package xrpc

import (
	"log/slog"
	"net/http"

	"github.com/bslabeler/labeler/lib/apierr"
	"github.com/bslabeler/labeler/lib/broadcast"
	"github.com/bslabeler/labeler/lib/clock"
	"github.com/bslabeler/labeler/lib/jwtauth"
	"github.com/bslabeler/labeler/lib/labelstore"
	"github.com/bslabeler/labeler/lib/sequencer"
)

// emitLexiconMethod is the lxm value emitEvent's JWTs are checked
// against, per spec §4.G step 1.
const emitLexiconMethod = "tools.ozone.moderation.emitEvent"

// AuthPolicy decides whether a verified JWT issuer may call
// emitEvent. The default (see [New]) allows only the labeler's own
// DID, per spec §6 ("auth: optional policy hook... Default:
// did == labelerDid").
type AuthPolicy func(issuerDID string) bool

// Deps are the components the xrpc handlers are built from.
// AuthPolicy and Audience may be left unset (see [New] and Audience
// below) and MaxSubscribers may be zero; every other field is
// required.
type Deps struct {
	Store      labelstore.Store
	Sequencer  *sequencer.Sequencer
	Hub        *broadcast.Hub
	Verifier   *jwtauth.Verifier
	LabelerDID string
	AuthPolicy AuthPolicy
	Clock      clock.Clock
	Version    string
	Logger     *slog.Logger

	// Audience is the expected JWT "aud" claim for emitEvent. If
	// empty, defaults to LabelerDID.
	Audience string

	// MaxSubscribers caps the number of concurrent subscribeLabels
	// connections on [broadcast.LabelsStream]. Zero means unbounded.
	MaxSubscribers int
}

// Router is labelerd's HTTP handler: the fixed route table of spec
// §4.I plus panic recovery, so a handler bug surfaces as
// InternalServerError rather than tearing down the whole server.
type Router struct {
	deps Deps
	mux  *http.ServeMux
}

// New builds a Router over deps. If deps.AuthPolicy is nil, the
// default policy (issuer == labeler DID) is used.
func New(deps Deps) *Router {
	if deps.AuthPolicy == nil {
		deps.AuthPolicy = func(issuerDID string) bool { return issuerDID == deps.LabelerDID }
	}
	if deps.Audience == "" {
		deps.Audience = deps.LabelerDID
	}

	r := &Router{deps: deps, mux: http.NewServeMux()}
	r.mux.HandleFunc("/xrpc/com.atproto.label.queryLabels", r.handleQueryLabels)
	r.mux.HandleFunc("/xrpc/tools.ozone.moderation.emitEvent", r.handleEmitEvent)
	r.mux.HandleFunc("/xrpc/com.atproto.label.subscribeLabels", r.handleSubscribeLabels)
	r.mux.HandleFunc("/xrpc/_health", r.handleHealth)
	r.mux.HandleFunc("/xrpc/", r.handleUnknownRoute)
	return r
}

// ServeHTTP dispatches to the fixed route table, recovering from a
// handler panic and reporting it as InternalServerError per spec §7
// ("Panics/unhandled exceptions must be caught at the service shell
// and reported as InternalServerError").
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.deps.Logger.Error("xrpc: recovered from panic", "panic", recovered, "path", req.URL.Path)
			writeError(w, r.deps.Logger, apierr.New(apierr.InternalServerError, "internal server error"))
		}
	}()
	r.mux.ServeHTTP(w, req)
}

// handleUnknownRoute serves every path under /xrpc/ that has no
// dedicated handler, per spec §4.I's catch-all row.
func (r *Router) handleUnknownRoute(w http.ResponseWriter, req *http.Request) {
	writeError(w, r.deps.Logger, apierr.New(apierr.MethodNotImplemented, "no such xrpc method: "+req.URL.Path))
}
