package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/auth"
	"github.com/doit-inc/doit-engine/pkg/services"
)

// WorkspaceHandler handles workspace HTTP requests.
type WorkspaceHandler struct {
	workspaceService services.WorkspaceService
	logger           *zap.Logger
}

// NewWorkspaceHandler creates a new workspace handler.
func NewWorkspaceHandler(workspaceService services.WorkspaceService, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		logger:           logger,
	}
}

// RegisterRoutes registers the workspace handler's routes on the given mux.
func (h *WorkspaceHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/workspaces", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/workspaces", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/workspaces/{workspace_id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PATCH /api/workspaces/{workspace_id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/workspaces/{workspace_id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("GET /api/workspaces/{workspace_id}/members", authMiddleware.RequireAuth(h.ListMembers))
}

type createWorkspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/workspaces
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	workspace, err := h.workspaceService.Create(r.Context(), user, services.WorkspaceCreate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, workspace); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/workspaces
func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	skip, limit := parsePagination(r)
	workspaces, total, err := h.workspaceService.List(r.Context(), user, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, PaginatedResponse{
		Items: workspaces, Total: total, Skip: skip, Limit: limit,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/workspaces/{workspace_id}
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	workspaceID, ok := parseUUID(w, r, "workspace_id", h.logger)
	if !ok {
		return
	}

	workspace, err := h.workspaceService.Get(r.Context(), user, workspaceID)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, workspace); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

type updateWorkspaceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Update handles PATCH /api/workspaces/{workspace_id}
func (h *WorkspaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	workspaceID, ok := parseUUID(w, r, "workspace_id", h.logger)
	if !ok {
		return
	}

	var req updateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	workspace, err := h.workspaceService.Update(r.Context(), user, workspaceID, services.WorkspaceUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, workspace); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/workspaces/{workspace_id}
func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	workspaceID, ok := parseUUID(w, r, "workspace_id", h.logger)
	if !ok {
		return
	}

	if err := h.workspaceService.Delete(r.Context(), user, workspaceID); err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers handles GET /api/workspaces/{workspace_id}/members
func (h *WorkspaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	workspaceID, ok := parseUUID(w, r, "workspace_id", h.logger)
	if !ok {
		return
	}

	skip, limit := parsePagination(r)
	members, total, err := h.workspaceService.ListMembers(r.Context(), user, workspaceID, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, PaginatedResponse{
		Items: members, Total: total, Skip: skip, Limit: limit,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
