package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is file metadata bound to a task, optionally linked to a comment
// on the same task. Blob storage itself is handled by an external store; this
// record only tracks where the file lives.
type Attachment struct {
	ID        uuid.UUID  `json:"id"`
	TaskID    uuid.UUID  `json:"task_id"`
	CommentID *uuid.UUID `json:"comment_id,omitempty"`
	UserID    uuid.UUID  `json:"user_id"`
	FileName  string     `json:"file_name"`
	FilePath  string     `json:"file_path"`
	FileType  string     `json:"file_type"`
	FileSize  int64      `json:"file_size"`
	CreatedAt time.Time  `json:"created_at"`
}
