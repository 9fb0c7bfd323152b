package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/database"
	"github.com/doit-inc/doit-engine/pkg/models"
)

// AttachmentRepository defines data access for attachment metadata. The blob
// itself lives in external storage; only the pointer is kept here.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	Get(ctx context.Context, id uuid.UUID) (*models.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTask(ctx context.Context, taskID uuid.UUID, skip, limit int) ([]*models.Attachment, int, error)
	// LinkToComment binds an attachment to a comment, but only if the
	// attachment belongs to the given task.
	LinkToComment(ctx context.Context, attachmentID, commentID, taskID uuid.UUID) error
}

type attachmentRepository struct {
	db *database.DB
}

// NewAttachmentRepository creates a new attachment repository.
func NewAttachmentRepository(db *database.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

const attachmentColumns = `id, task_id, comment_id, user_id, file_name, file_path, file_type, file_size, created_at`

func (r *attachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	if attachment.ID == uuid.Nil {
		attachment.ID = uuid.New()
	}
	attachment.CreatedAt = time.Now()

	query := `
		INSERT INTO attachments (id, task_id, comment_id, user_id, file_name, file_path, file_type, file_size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		attachment.ID, attachment.TaskID, attachment.CommentID, attachment.UserID,
		attachment.FileName, attachment.FilePath, attachment.FileType,
		attachment.FileSize, attachment.CreatedAt)
	if err != nil {
		return storageErr("create attachment", err)
	}
	return nil
}

func (r *attachmentRepository) Get(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE id = $1`

	var a models.Attachment
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.TaskID, &a.CommentID, &a.UserID, &a.FileName,
		&a.FilePath, &a.FileType, &a.FileSize, &a.CreatedAt,
	)
	if err != nil {
		return nil, scanErr("get attachment", err)
	}
	return &a, nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete attachment", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *attachmentRepository) ListByTask(ctx context.Context, taskID uuid.UUID, skip, limit int) ([]*models.Attachment, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM attachments WHERE task_id = $1`, taskID).Scan(&total); err != nil {
		return nil, 0, storageErr("count attachments", err)
	}

	query := `
		SELECT ` + attachmentColumns + `
		FROM attachments
		WHERE task_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`

	rows, err := r.db.Query(ctx, query, taskID, skip, limit)
	if err != nil {
		return nil, 0, storageErr("list attachments", err)
	}
	defer rows.Close()

	var attachments []*models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.CommentID, &a.UserID, &a.FileName,
			&a.FilePath, &a.FileType, &a.FileSize, &a.CreatedAt); err != nil {
			return nil, 0, storageErr("scan attachment", err)
		}
		attachments = append(attachments, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr("iterate attachments", err)
	}
	return attachments, total, nil
}

func (r *attachmentRepository) LinkToComment(ctx context.Context, attachmentID, commentID, taskID uuid.UUID) error {
	query := `UPDATE attachments SET comment_id = $2 WHERE id = $1 AND task_id = $3`

	tag, err := r.db.Exec(ctx, query, attachmentID, commentID, taskID)
	if err != nil {
		return storageErr("link attachment to comment", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

var _ AttachmentRepository = (*attachmentRepository)(nil)
