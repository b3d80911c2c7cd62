// Package server is the HTTP surface: routing, auth middleware and
// JSON encoding for the trading API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"vse_go/internal/domain"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errorResponse is the standard error body.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError writes a standard error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// parseJSON decodes the request body into v, rejecting unknown fields.
func parseJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("request body must be valid JSON")
	}
	return nil
}

// mapDomainError translates domain sentinels into HTTP responses.
func mapDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, "invalid_order", err.Error())
	case errors.Is(err, domain.ErrDuplicateAccount):
		writeError(w, http.StatusBadRequest, "duplicate_account", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, domain.ErrNoPosition):
		writeError(w, http.StatusNotFound, "no_position", err.Error())
	case errors.Is(err, domain.ErrSymbolNotFound):
		writeError(w, http.StatusNotFound, "symbol_not_found", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient_funds", err.Error())
	case errors.Is(err, domain.ErrInsufficientShares):
		writeError(w, http.StatusConflict, "insufficient_shares", err.Error())
	case errors.Is(err, domain.ErrAlreadyWatched):
		writeError(w, http.StatusBadRequest, "already_watched", err.Error())
	case errors.Is(err, domain.ErrQuoteUnavailable):
		writeError(w, http.StatusBadGateway, "quote_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
