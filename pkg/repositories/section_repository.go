package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/database"
	"github.com/doit-inc/doit-engine/pkg/models"
)

// SectionRepository defines data access for board sections.
type SectionRepository interface {
	Create(ctx context.Context, section *models.Section) error
	Get(ctx context.Context, id uuid.UUID) (*models.Section, error)
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProject(ctx context.Context, projectID uuid.UUID, skip, limit int) ([]*models.Section, int, error)
}

type sectionRepository struct {
	db *database.DB
}

// NewSectionRepository creates a new section repository.
func NewSectionRepository(db *database.DB) SectionRepository {
	return &sectionRepository{db: db}
}

func (r *sectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == uuid.Nil {
		section.ID = uuid.New()
	}
	now := time.Now()
	section.CreatedAt = now
	section.UpdatedAt = now

	query := `
		INSERT INTO sections (id, project_id, title, "order", created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		section.ID, section.ProjectID, section.Title, section.Order,
		section.CreatedAt, section.UpdatedAt)
	if err != nil {
		return storageErr("create section", err)
	}
	return nil
}

func (r *sectionRepository) Get(ctx context.Context, id uuid.UUID) (*models.Section, error) {
	query := `SELECT id, project_id, title, "order", created_at, updated_at FROM sections WHERE id = $1`

	var s models.Section
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.ProjectID, &s.Title, &s.Order, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, scanErr("get section", err)
	}
	return &s, nil
}

func (r *sectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now()

	query := `UPDATE sections SET title = $2, "order" = $3, updated_at = $4 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, section.ID, section.Title, section.Order, section.UpdatedAt)
	if err != nil {
		return storageErr("update section", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *sectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete section", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *sectionRepository) ListByProject(ctx context.Context, projectID uuid.UUID, skip, limit int) ([]*models.Section, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sections WHERE project_id = $1`, projectID).Scan(&total); err != nil {
		return nil, 0, storageErr("count sections", err)
	}

	query := `
		SELECT id, project_id, title, "order", created_at, updated_at
		FROM sections
		WHERE project_id = $1
		ORDER BY "order"
		OFFSET $2 LIMIT $3`

	rows, err := r.db.Query(ctx, query, projectID, skip, limit)
	if err != nil {
		return nil, 0, storageErr("list sections", err)
	}
	defer rows.Close()

	var sections []*models.Section
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Title, &s.Order, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, storageErr("scan section", err)
		}
		sections = append(sections, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr("iterate sections", err)
	}
	return sections, total, nil
}

var _ SectionRepository = (*sectionRepository)(nil)
