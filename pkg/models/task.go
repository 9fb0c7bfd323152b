package models

import (
	"time"

	"github.com/google/uuid"
)

// Task belongs to a project (immutable) and optionally to a section. If
// AssigneeID is set, the assignee must hold project membership or be the
// project's owner.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	SectionID   *uuid.UUID `json:"section_id,omitempty"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     string     `json:"due_date,omitempty"` // ISO date YYYY-MM-DD
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Task status constants.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// Task priority constants.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// IsValidTaskStatus checks if the given status is valid.
func IsValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// IsValidTaskPriority checks if the given priority is valid.
func IsValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// TaskWithProject is a task enriched with its parent project's name and color
// for listing views.
type TaskWithProject struct {
	Task
	ProjectName  string `json:"project_name"`
	ProjectColor string `json:"project_color,omitempty"`
}
