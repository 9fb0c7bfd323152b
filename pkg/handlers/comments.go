package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/auth"
	"github.com/doit-inc/doit-engine/pkg/services"
)

// CommentHandler handles task comment HTTP requests.
type CommentHandler struct {
	commentService services.CommentService
	logger         *zap.Logger
}

// NewCommentHandler creates a new comment handler.
func NewCommentHandler(commentService services.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

// RegisterRoutes registers the comment handler's routes on the given mux.
func (h *CommentHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/tasks/{task_id}/comments", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/tasks/{task_id}/comments", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("DELETE /api/comments/{comment_id}", authMiddleware.RequireAuth(h.Delete))
}

type createCommentRequest struct {
	Content       string      `json:"content"`
	AttachmentIDs []uuid.UUID `json:"attachment_ids"`
}

// Create handles POST /api/tasks/{task_id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	taskID, ok := parseUUID(w, r, "task_id", h.logger)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	comment, err := h.commentService.Create(r.Context(), user, taskID, req.Content, req.AttachmentIDs)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, comment); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/tasks/{task_id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
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
	comments, total, err := h.commentService.List(r.Context(), user, taskID, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, PaginatedResponse{
		Items: comments, Total: total, Skip: skip, Limit: limit,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/comments/{comment_id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	commentID, ok := parseUUID(w, r, "comment_id", h.logger)
	if !ok {
		return
	}

	if err := h.commentService.Delete(r.Context(), user, commentID); err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
