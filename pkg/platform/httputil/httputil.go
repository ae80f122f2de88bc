// Package httputil centralizes JSON encoding and domain error translation for
// HTTP handlers so every endpoint returns the same error envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
)

// errorResponse is the JSON error envelope returned by every endpoint.
type errorResponse struct {
	Error            string         `json:"error"`
	ErrorDescription string         `json:"error_description,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into an HTTP response. Internal errors
// omit the description so store failures never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorDetails(w, err, nil)
}

// WriteErrorDetails is WriteError with an extra details object for errors the
// client needs context to explain (e.g. geofence failures include the site).
func WriteErrorDetails(w http.ResponseWriter, err error, details map[string]any) {
	code := dErrors.CodeOf(err)

	resp := errorResponse{Error: string(code), Details: details}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.ErrorDescription = de.Message
		}
	}

	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// Decode parses the request body into T, returning a coded error on malformed
// input so handlers can pass it straight to WriteError.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return v, nil
}
