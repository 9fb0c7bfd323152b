package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/auth"
	"github.com/doit-inc/doit-engine/pkg/services"
)

// ProjectHandler handles project HTTP requests. Listing goes through the
// visibility resolver so the response is exactly the readable set.
type ProjectHandler struct {
	projectService services.ProjectService
	visibility     services.VisibilityService
	logger         *zap.Logger
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projectService services.ProjectService, visibility services.VisibilityService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		visibility:     visibility,
		logger:         logger,
	}
}

// RegisterRoutes registers the project handler's routes on the given mux.
func (h *ProjectHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/workspaces/{workspace_id}/projects", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/projects", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/projects/{project_id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PATCH /api/projects/{project_id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/projects/{project_id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("POST /api/projects/{project_id}/members", authMiddleware.RequireAuth(h.AddMember))
	mux.HandleFunc("GET /api/projects/{project_id}/members", authMiddleware.RequireAuth(h.ListMembers))
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	IsPrivate   bool   `json:"is_private"`
}

// Create handles POST /api/workspaces/{workspace_id}/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	workspaceID, ok := parseUUID(w, r, "workspace_id", h.logger)
	if !ok {
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	project, err := h.projectService.Create(r.Context(), user, workspaceID, services.ProjectCreate{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, project); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/projects?workspace_id=...
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	workspaceID, err := parseOptionalUUID(r, "workspace_id")
	if err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_workspace_id", "Invalid workspace_id format"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	skip, limit := parsePagination(r)
	projects, total, err := h.visibility.ListProjects(r.Context(), user, workspaceID, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, PaginatedResponse{
		Items: projects, Total: total, Skip: skip, Limit: limit,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/projects/{project_id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	projectID, ok := parseUUID(w, r, "project_id", h.logger)
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), user, projectID)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, project); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	IsPrivate   *bool   `json:"is_private"`
}

// Update handles PATCH /api/projects/{project_id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	projectID, ok := parseUUID(w, r, "project_id", h.logger)
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	project, err := h.projectService.Update(r.Context(), user, projectID, services.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, project); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/projects/{project_id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	projectID, ok := parseUUID(w, r, "project_id", h.logger)
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), user, projectID); err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addProjectMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// AddMember handles POST /api/projects/{project_id}/members
func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	projectID, ok := parseUUID(w, r, "project_id", h.logger)
	if !ok {
		return
	}

	var req addProjectMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}

	if err := h.projectService.AddMember(r.Context(), user, projectID, req.UserID, req.Role); err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers handles GET /api/projects/{project_id}/members
func (h *ProjectHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	projectID, ok := parseUUID(w, r, "project_id", h.logger)
	if !ok {
		return
	}

	members, err := h.projectService.ListMembers(r.Context(), user, projectID)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, members); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
