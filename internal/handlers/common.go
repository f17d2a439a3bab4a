package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"naksha-backend/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// statusFromError maps domain errors to HTTP statuses. Unknown errors are
// infrastructure failures and stay generic.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRecognitionUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage returns the message safe to show the end user. Internal
// detail from infrastructure and upstream failures goes to logs only.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrDuplicateEmail):
		return domain.ErrDuplicateEmail.Error()
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrRecognitionUpstream):
		return "image analysis failed, please retry"
	default:
		return "internal server error"
	}
}
