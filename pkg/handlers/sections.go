package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/auth"
	"github.com/doit-inc/doit-engine/pkg/services"
)

// SectionHandler handles board section HTTP requests.
type SectionHandler struct {
	sectionService services.SectionService
	logger         *zap.Logger
}

// NewSectionHandler creates a new section handler.
func NewSectionHandler(sectionService services.SectionService, logger *zap.Logger) *SectionHandler {
	return &SectionHandler{
		sectionService: sectionService,
		logger:         logger,
	}
}

// RegisterRoutes registers the section handler's routes on the given mux.
func (h *SectionHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/projects/{project_id}/sections", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/projects/{project_id}/sections", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("PATCH /api/sections/{section_id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/sections/{section_id}", authMiddleware.RequireAuth(h.Delete))
}

type createSectionRequest struct {
	Title string  `json:"title"`
	Order float64 `json:"order"`
}

// Create handles POST /api/projects/{project_id}/sections
func (h *SectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	projectID, ok := parseUUID(w, r, "project_id", h.logger)
	if !ok {
		return
	}

	var req createSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	section, err := h.sectionService.Create(r.Context(), user, projectID, services.SectionCreate{
		Title: req.Title,
		Order: req.Order,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, section); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/projects/{project_id}/sections
func (h *SectionHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	projectID, ok := parseUUID(w, r, "project_id", h.logger)
	if !ok {
		return
	}

	skip, limit := parsePagination(r)
	sections, total, err := h.sectionService.List(r.Context(), user, projectID, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, PaginatedResponse{
		Items: sections, Total: total, Skip: skip, Limit: limit,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

type updateSectionRequest struct {
	Title *string  `json:"title"`
	Order *float64 `json:"order"`
}

// Update handles PATCH /api/sections/{section_id}
func (h *SectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	sectionID, ok := parseUUID(w, r, "section_id", h.logger)
	if !ok {
		return
	}

	var req updateSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	section, err := h.sectionService.Update(r.Context(), user, sectionID, services.SectionUpdate{
		Title: req.Title,
		Order: req.Order,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, section); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/sections/{section_id}
func (h *SectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	sectionID, ok := parseUUID(w, r, "section_id", h.logger)
	if !ok {
		return
	}

	if err := h.sectionService.Delete(r.Context(), user, sectionID); err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
