// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package apierr defines the closed error-kind taxonomy exposed on
// the wire, either as an HTTP JSON body {error, message} or as a
// subscribeLabels error frame.
//
// Every layer that can fail in a way the client needs to distinguish
// returns a *[Error] directly rather than a generic error that gets
// classified later. This is a deliberate departure from sentinel-
// error-plus-errors.Is classification elsewhere in this codebase: the
// wire taxonomy here is small, closed, and known at the point of
// failure, so classifying at the point of construction is simpler
// than reconstructing it downstream. The xrpc package still uses
// errors.As at its boundary to distinguish an already-classified
// *Error from an unexpected error, which maps to InternalServerError.
package apierr
