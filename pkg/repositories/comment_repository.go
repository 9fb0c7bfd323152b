package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/database"
	"github.com/doit-inc/doit-engine/pkg/models"
)

// CommentRepository defines data access for task comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	Get(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTask(ctx context.Context, taskID uuid.UUID, skip, limit int) ([]*models.CommentWithAuthor, int, error)
}

type commentRepository struct {
	db *database.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *database.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	comment.CreatedAt = time.Now()

	query := `
		INSERT INTO comments (id, task_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		comment.ID, comment.TaskID, comment.UserID, comment.Content, comment.CreatedAt)
	if err != nil {
		return storageErr("create comment", err)
	}
	return nil
}

func (r *commentRepository) Get(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	query := `SELECT id, task_id, user_id, content, created_at FROM comments WHERE id = $1`

	var c models.Comment
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt,
	)
	if err != nil {
		return nil, scanErr("get comment", err)
	}
	return &c, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete comment", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *commentRepository) ListByTask(ctx context.Context, taskID uuid.UUID, skip, limit int) ([]*models.CommentWithAuthor, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE task_id = $1`, taskID).Scan(&total); err != nil {
		return nil, 0, storageErr("count comments", err)
	}

	query := `
		SELECT c.id, c.task_id, c.user_id, c.content, c.created_at,
		       COALESCE(NULLIF(u.full_name, ''), u.email)
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.task_id = $1
		ORDER BY c.created_at
		OFFSET $2 LIMIT $3`

	rows, err := r.db.Query(ctx, query, taskID, skip, limit)
	if err != nil {
		return nil, 0, storageErr("list comments", err)
	}
	defer rows.Close()

	var comments []*models.CommentWithAuthor
	for rows.Next() {
		var c models.CommentWithAuthor
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt, &c.UserFullName); err != nil {
			return nil, 0, storageErr("scan comment", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr("iterate comments", err)
	}
	return comments, total, nil
}

var _ CommentRepository = (*commentRepository)(nil)
