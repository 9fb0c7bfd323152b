package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is authored on a task. The author retains delete rights over their
// own comments regardless of current project permissions.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentWithAuthor is a comment enriched with the author's display name.
type CommentWithAuthor struct {
	Comment
	UserFullName string `json:"user_full_name,omitempty"`
}
