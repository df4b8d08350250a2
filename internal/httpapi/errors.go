// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package httpapi

import (
	"errors"
	"net/http"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/todo"
	"github.com/tasklist/tasklist/pkg/errutil"
)

type apiError struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []errutil.FieldError `json:"fields,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// classify maps a service error to a status and a client-safe body.
// Only validation failures carry detail; everything else is generic.
func classify(err error) (int, apiError) {
	switch {
	case errors.Is(err, errutil.ErrValidation):
		fields, _ := errutil.ValidationFields(err)
		return http.StatusUnprocessableEntity, apiError{
			Code:    "validation_failed",
			Message: "request validation failed",
			Fields:  fields,
		}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, apiError{Code: "invalid_credentials", Message: "incorrect username or password"}
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, apiError{Code: "unauthenticated", Message: "could not validate credentials"}
	case errors.Is(err, todo.ErrNotFound):
		return http.StatusNotFound, apiError{Code: "not_found", Message: "todo not found"}
	case errors.Is(err, auth.ErrUsernameTaken):
		return http.StatusConflict, apiError{Code: "username_taken", Message: "username already registered"}
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, apiError{Code: "body_too_large", Message: "request body too large"}
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, apiError{Code: "malformed_body", Message: "request body is not valid JSON for this endpoint"}
	default:
		return http.StatusInternalServerError, apiError{Code: "internal", Message: "internal server error"}
	}
}

// writeError renders err. Server faults are logged with their oops context;
// client faults are not.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), a.logger, "request failed", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
	}
	writeJSON(w, status, errorResponse{Error: body})
}
