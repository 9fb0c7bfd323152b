// Package handlers wires the HTTP surface. Handlers stay thin: decode,
// delegate to a service, translate the error taxonomy to status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// PaginatedResponse is the standard envelope for list endpoints. Total is the
// size of the full result set, not the page.
type PaginatedResponse struct {
	Items any `json:"items"`
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// ServiceError translates the shared error taxonomy into an HTTP response.
// Permission denials carry their reason in the message; infrastructure
// failures surface as 503 so clients can retry.
func ServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "An unexpected error occurred"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", "Resource not found"
	case errors.Is(err, apperrors.ErrPermissionDenied):
		status, code = http.StatusForbidden, "forbidden"
		message = "Permission denied"
		if reason := apperrors.DenyReason(err); reason != "" {
			message = "Permission denied: " + reason
		}
	case errors.Is(err, apperrors.ErrAlreadyMember):
		status, code, message = http.StatusConflict, "already_member", "User is already a member"
	case errors.Is(err, apperrors.ErrAlreadyInvited):
		status, code, message = http.StatusConflict, "already_invited", "An invitation is already pending for this email"
	case errors.Is(err, apperrors.ErrConflict):
		status, code, message = http.StatusConflict, "conflict", "Resource conflict"
	case errors.Is(err, apperrors.ErrExpired):
		status, code, message = http.StatusBadRequest, "expired", "Invitation has expired"
	case errors.Is(err, apperrors.ErrInvalidState):
		status, code, message = http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, apperrors.ErrUnavailable):
		status, code, message = http.StatusServiceUnavailable, "unavailable", "Service temporarily unavailable"
		logger.Error("Storage failure", zap.Error(err))
	default:
		logger.Error("Unhandled service error", zap.Error(err))
	}

	if werr := ErrorResponse(w, status, code, message); werr != nil {
		logger.Error("Failed to write error response", zap.Error(werr))
	}
}

// parseUUID reads a UUID path parameter. On failure it writes a 400 response
// and returns false.
func parseUUID(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_"+name, "Invalid "+name+" format"); werr != nil {
			logger.Error("Failed to write error response", zap.Error(werr))
		}
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads skip/limit query parameters with sane bounds.
func parsePagination(r *http.Request) (skip, limit int) {
	skip, limit = 0, 50
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	return skip, limit
}

// parseOptionalUUID reads an optional UUID query parameter, nil when absent.
func parseOptionalUUID(r *http.Request, name string) (*uuid.UUID, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
