package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/auth"
	"github.com/doit-inc/doit-engine/pkg/services"
)

// InvitationHandler handles workspace invitation HTTP requests. The inspect
// endpoint is keyed by token so an invitee can preview the invitation before
// authenticating against the right account.
type InvitationHandler struct {
	invitationService services.InvitationService
	logger            *zap.Logger
}

// NewInvitationHandler creates a new invitation handler.
func NewInvitationHandler(invitationService services.InvitationService, logger *zap.Logger) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
		logger:            logger,
	}
}

// RegisterRoutes registers the invitation handler's routes on the given mux.
// Inspect is deliberately unauthenticated: the invitee may not have an
// account yet, and possession of the token is the credential.
func (h *InvitationHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/workspaces/{workspace_id}/invitations", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/invitations/{token}", h.Inspect)
	mux.HandleFunc("POST /api/invitations/{token}/accept", authMiddleware.RequireAuth(h.Accept))
}

type createInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Create handles POST /api/workspaces/{workspace_id}/invitations
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	workspaceID, ok := parseUUID(w, r, "workspace_id", h.logger)
	if !ok {
		return
	}

	var req createInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}

	invitation, err := h.invitationService.Issue(r.Context(), user, workspaceID, req.Email, req.Role)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, invitation); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Inspect handles GET /api/invitations/{token}
func (h *InvitationHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	invitation, err := h.invitationService.Inspect(r.Context(), token)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, invitation); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Accept handles POST /api/invitations/{token}/accept
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	token := r.PathValue("token")

	invitation, err := h.invitationService.Accept(r.Context(), user, token)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, invitation); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
