package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"fundwatch-hq/fundwatch/pkg/gate"
	"fundwatch-hq/fundwatch/pkg/holdings"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`

	// Scope, Tier and RetryAfter are set on 429 responses.
	Scope      string `json:"scope,omitempty"`
	Tier       string `json:"tier,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeGateError maps a gate error to a response.
//
//	*gate.RateLimitedError     429 with Retry-After
//	holdings.ErrUnknownFund    404
//	holdings.ErrEmptyQuery     400
//	context.DeadlineExceeded   504
//	anything else              500
func (a *API) writeGateError(w http.ResponseWriter, r *http.Request, key string, err error) {
	var limited *gate.RateLimitedError
	if errors.As(err, &limited) {
		secs := limited.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error:      "Rate limit exceeded",
			Scope:      limited.Scope,
			Tier:       limited.Tier,
			RetryAfter: secs,
		})
		return
	}

	switch {
	case errors.Is(err, holdings.ErrUnknownFund):
		writeError(w, http.StatusNotFound, "Unknown fund")
	case errors.Is(err, holdings.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, `Missing search query parameter "q"`)
	case errors.Is(err, context.DeadlineExceeded):
		a.logger.WarnContext(r.Context(), "lookup timed out", "key", key)
		writeError(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		a.logger.ErrorContext(r.Context(), "lookup failed", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
