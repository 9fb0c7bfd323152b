package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/auth"
	"github.com/doit-inc/doit-engine/pkg/services"
)

// AttachmentHandler handles attachment metadata HTTP requests. File bytes are
// uploaded to blob storage out of band; these endpoints track the records.
type AttachmentHandler struct {
	attachmentService services.AttachmentService
	logger            *zap.Logger
}

// NewAttachmentHandler creates a new attachment handler.
func NewAttachmentHandler(attachmentService services.AttachmentService, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		logger:            logger,
	}
}

// RegisterRoutes registers the attachment handler's routes on the given mux.
func (h *AttachmentHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/tasks/{task_id}/attachments", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/tasks/{task_id}/attachments", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("DELETE /api/attachments/{attachment_id}", authMiddleware.RequireAuth(h.Delete))
}

type createAttachmentRequest struct {
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}

// Create handles POST /api/tasks/{task_id}/attachments
func (h *AttachmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	taskID, ok := parseUUID(w, r, "task_id", h.logger)
	if !ok {
		return
	}

	var req createAttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	attachment, err := h.attachmentService.Create(r.Context(), user, taskID, services.AttachmentCreate{
		FileName: req.FileName,
		FilePath: req.FilePath,
		FileType: req.FileType,
		FileSize: req.FileSize,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, attachment); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/tasks/{task_id}/attachments
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	taskID, ok := parseUUID(w, r, "task_id", h.logger)
	if !ok {
		return
	}

	skip, limit := parsePagination(r)
	attachments, total, err := h.attachmentService.List(r.Context(), user, taskID, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, PaginatedResponse{
		Items: attachments, Total: total, Skip: skip, Limit: limit,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/attachments/{attachment_id}
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	attachmentID, ok := parseUUID(w, r, "attachment_id", h.logger)
	if !ok {
		return
	}

	if err := h.attachmentService.Delete(r.Context(), user, attachmentID); err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
