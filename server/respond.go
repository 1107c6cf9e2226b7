package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-vault-server/internal/apperr"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Err(err).Msg("failed to encode response")
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Verification and
// validation failures surface immediately as 4xx; dependency unavailability
// surfaces as 5xx and is safe for the client to retry.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code, description := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Err(err).Msg("request failed")
	}
	s.writeJSON(w, status, errorResponse{Error: code, ErrorDescription: description})
}

func classify(err error) (status int, code, description string) {
	switch {
	case errors.Is(err, apperr.ErrExpiredToken):
		return http.StatusUnauthorized, "expired_token", "Session ended, please sign in again"
	case errors.Is(err, apperr.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token", "Credential is invalid"
	case errors.Is(err, apperr.ErrInvalidAssertion):
		return http.StatusUnauthorized, "invalid_assertion", "Identity assertion was rejected"
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "Authentication required"
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, "forbidden", "You do not own this file"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found", "Resource not found"
	case errors.Is(err, apperr.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, "provider_unavailable", "Identity provider is unavailable, try again"
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable", "Persistence store is unavailable, try again"
	case errors.Is(err, apperr.ErrStorageFailure):
		return http.StatusBadGateway, "storage_failure", "Object storage failed, try again"
	default:
		return http.StatusInternalServerError, "internal_error", "Internal server error"
	}
}
