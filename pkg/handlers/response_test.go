package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
)

func TestServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"permission denied", apperrors.Denied(apperrors.ReasonNotAMember), http.StatusForbidden, "forbidden"},
		{"already member", apperrors.ErrAlreadyMember, http.StatusConflict, "already_member"},
		{"already invited", apperrors.ErrAlreadyInvited, http.StatusConflict, "already_invited"},
		{"generic conflict", apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{"expired", apperrors.ErrExpired, http.StatusBadRequest, "expired"},
		{"invalid state", apperrors.ErrInvalidState, http.StatusBadRequest, "invalid_request"},
		{"unavailable", apperrors.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ServiceError(rec, zap.NewNop(), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body["error"] != tt.wantCode {
				t.Errorf("expected error code %q, got %q", tt.wantCode, body["error"])
			}
		})
	}
}

func TestServiceError_DenyReasonInMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	ServiceError(rec, zap.NewNop(), apperrors.Denied(apperrors.ReasonPrivateAndNotMember))

	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["message"] != "Permission denied: private-and-not-member" {
		t.Errorf("expected reason in message, got %q", body["message"])
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks?skip=10&limit=20", nil)
	skip, limit := parsePagination(req)
	if skip != 10 || limit != 20 {
		t.Errorf("expected 10/20, got %d/%d", skip, limit)
	}

	// Out-of-range values fall back to defaults.
	req = httptest.NewRequest(http.MethodGet, "/api/tasks?skip=-5&limit=9999", nil)
	skip, limit = parsePagination(req)
	if skip != 0 || limit != 50 {
		t.Errorf("expected defaults 0/50, got %d/%d", skip, limit)
	}
}

func TestParseOptionalUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	id, err := parseOptionalUUID(req, "project_id")
	if err != nil || id != nil {
		t.Errorf("absent param should be nil, got %v %v", id, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tasks?project_id=not-a-uuid", nil)
	if _, err := parseOptionalUUID(req, "project_id"); err == nil {
		t.Error("expected error for malformed UUID")
	}
}
