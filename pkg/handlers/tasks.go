package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/auth"
	"github.com/doit-inc/doit-engine/pkg/services"
)

// TaskHandler handles task HTTP requests.
type TaskHandler struct {
	taskService services.TaskService
	visibility  services.VisibilityService
	logger      *zap.Logger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService services.TaskService, visibility services.VisibilityService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		visibility:  visibility,
		logger:      logger,
	}
}

// RegisterRoutes registers the task handler's routes on the given mux.
func (h *TaskHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/projects/{project_id}/tasks", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/tasks", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/tasks/{task_id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PATCH /api/tasks/{task_id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/tasks/{task_id}", authMiddleware.RequireAuth(h.Delete))
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     string     `json:"due_date"`
	SectionID   *uuid.UUID `json:"section_id"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
}

// Create handles POST /api/projects/{project_id}/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	projectID, ok := parseUUID(w, r, "project_id", h.logger)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	task, err := h.taskService.Create(r.Context(), user, projectID, services.TaskCreate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		SectionID:   req.SectionID,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/tasks?project_id=...&assignee_id=...
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	projectID, err := parseOptionalUUID(r, "project_id")
	if err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_project_id", "Invalid project_id format"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}
	assigneeID, err := parseOptionalUUID(r, "assignee_id")
	if err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_assignee_id", "Invalid assignee_id format"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	skip, limit := parsePagination(r)
	tasks, total, err := h.visibility.ListTasks(r.Context(), user, projectID, assigneeID, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, PaginatedResponse{
		Items: tasks, Total: total, Skip: skip, Limit: limit,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/tasks/{task_id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	taskID, ok := parseUUID(w, r, "task_id", h.logger)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), user, taskID)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *string    `json:"due_date"`
	SectionID   *uuid.UUID `json:"section_id"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
}

// Update handles PATCH /api/tasks/{task_id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	taskID, ok := parseUUID(w, r, "task_id", h.logger)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	task, err := h.taskService.Update(r.Context(), user, taskID, services.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		SectionID:   req.SectionID,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/tasks/{task_id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	taskID, ok := parseUUID(w, r, "task_id", h.logger)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), user, taskID); err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
