package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/database"
	"github.com/doit-inc/doit-engine/pkg/models"
)

// WorkspaceRepository defines data access for workspaces.
type WorkspaceRepository interface {
	// Create inserts the workspace and the owner's membership row in a
	// single transaction. Every workspace has exactly one owner membership
	// from the moment it exists.
	Create(ctx context.Context, workspace *models.Workspace) error
	Get(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	Update(ctx context.Context, workspace *models.Workspace) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.Workspace, int, error)
	ListAll(ctx context.Context, skip, limit int) ([]*models.Workspace, int, error)
}

type workspaceRepository struct {
	db *database.DB
}

// NewWorkspaceRepository creates a new workspace repository.
func NewWorkspaceRepository(db *database.DB) WorkspaceRepository {
	return &workspaceRepository{db: db}
}

func (r *workspaceRepository) Create(ctx context.Context, workspace *models.Workspace) error {
	if workspace.ID == uuid.Nil {
		workspace.ID = uuid.New()
	}
	now := time.Now()
	workspace.CreatedAt = now
	workspace.UpdatedAt = now

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storageErr("begin workspace create", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO workspaces (id, name, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)`,
		workspace.ID, workspace.Name, workspace.Description, workspace.OwnerID,
		workspace.CreatedAt, workspace.UpdatedAt,
	)
	if err != nil {
		return storageErr("create workspace", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)`,
		workspace.ID, workspace.OwnerID, models.WorkspaceRoleOwner, now,
	)
	if err != nil {
		return storageErr("create owner membership", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit workspace create", err)
	}
	return nil
}

func (r *workspaceRepository) Get(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), owner_id, created_at, updated_at
		FROM workspaces WHERE id = $1`

	var w models.Workspace
	err := r.db.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.Name, &w.Description, &w.OwnerID, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, scanErr("get workspace", err)
	}
	return &w, nil
}

func (r *workspaceRepository) Update(ctx context.Context, workspace *models.Workspace) error {
	workspace.UpdatedAt = time.Now()

	query := `
		UPDATE workspaces
		SET name = $2, description = NULLIF($3, ''), updated_at = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		workspace.ID, workspace.Name, workspace.Description, workspace.UpdatedAt)
	if err != nil {
		return storageErr("update workspace", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a workspace. Memberships, projects, and everything nested
// below go with it via CASCADE.
func (r *workspaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete workspace", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *workspaceRepository) ListForUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.Workspace, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM workspaces w
		JOIN workspace_members wm ON wm.workspace_id = w.id
		WHERE wm.user_id = $1`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, storageErr("count workspaces for user", err)
	}

	query := `
		SELECT w.id, w.name, COALESCE(w.description, ''), w.owner_id, w.created_at, w.updated_at
		FROM workspaces w
		JOIN workspace_members wm ON wm.workspace_id = w.id
		WHERE wm.user_id = $1
		ORDER BY w.created_at
		OFFSET $2 LIMIT $3`

	rows, err := r.db.Query(ctx, query, userID, skip, limit)
	if err != nil {
		return nil, 0, storageErr("list workspaces for user", err)
	}
	defer rows.Close()

	workspaces, err := scanWorkspaces(rows)
	if err != nil {
		return nil, 0, err
	}
	return workspaces, total, nil
}

func (r *workspaceRepository) ListAll(ctx context.Context, skip, limit int) ([]*models.Workspace, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM workspaces`).Scan(&total); err != nil {
		return nil, 0, storageErr("count workspaces", err)
	}

	query := `
		SELECT id, name, COALESCE(description, ''), owner_id, created_at, updated_at
		FROM workspaces
		ORDER BY created_at
		OFFSET $1 LIMIT $2`

	rows, err := r.db.Query(ctx, query, skip, limit)
	if err != nil {
		return nil, 0, storageErr("list workspaces", err)
	}
	defer rows.Close()

	workspaces, err := scanWorkspaces(rows)
	if err != nil {
		return nil, 0, err
	}
	return workspaces, total, nil
}

func scanWorkspaces(rows pgx.Rows) ([]*models.Workspace, error) {
	var workspaces []*models.Workspace
	for rows.Next() {
		var w models.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.OwnerID, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, storageErr("scan workspace", err)
		}
		workspaces = append(workspaces, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate workspaces", err)
	}
	return workspaces, nil
}

var _ WorkspaceRepository = (*workspaceRepository)(nil)
