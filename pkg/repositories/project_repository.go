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

// ProjectRepository defines data access for projects. The set-returning
// methods (ListByWorkspace, ListOwnedByUser, ListByIDs) exist so the
// visibility resolver can compute its union without per-item queries.
type ProjectRepository interface {
	// Create inserts the project and the owner's project membership row in
	// a single transaction.
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	// Update never touches workspace_id; a project cannot move between
	// workspaces.
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.Project, error)
	ListOwnedByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Project, error)
	// ListAll is the superuser path: structural filter only, no visibility gate.
	ListAll(ctx context.Context, workspaceID *uuid.UUID) ([]*models.Project, error)
}

type projectRepository struct {
	db *database.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *database.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, workspace_id, owner_id, name, COALESCE(description, ''), COALESCE(color, ''), COALESCE(icon, ''), is_private, created_at, updated_at`

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storageErr("begin project create", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO projects (id, workspace_id, owner_id, name, description, color, icon, is_private, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10)`,
		project.ID, project.WorkspaceID, project.OwnerID, project.Name,
		project.Description, project.Color, project.Icon, project.IsPrivate,
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return storageErr("create project", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)`,
		project.ID, project.OwnerID, models.ProjectRoleOwner, now,
	)
	if err != nil {
		return storageErr("create project owner membership", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit project create", err)
	}
	return nil
}

func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	project, err := scanProject(row)
	if err != nil {
		return nil, scanErr("get project", err)
	}
	return project, nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now()

	query := `
		UPDATE projects
		SET name = $2, description = NULLIF($3, ''), color = NULLIF($4, ''),
		    icon = NULLIF($5, ''), is_private = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		project.ID, project.Name, project.Description, project.Color,
		project.Icon, project.IsPrivate, project.UpdatedAt)
	if err != nil {
		return storageErr("update project", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete project", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *projectRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE workspace_id = $1 ORDER BY created_at`
	return r.queryProjects(ctx, query, workspaceID)
}

func (r *projectRepository) ListOwnedByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = $1 ORDER BY created_at`
	return r.queryProjects(ctx, query, userID)
}

func (r *projectRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ANY($1) ORDER BY created_at`
	return r.queryProjects(ctx, query, ids)
}

func (r *projectRepository) ListAll(ctx context.Context, workspaceID *uuid.UUID) ([]*models.Project, error) {
	if workspaceID != nil {
		return r.ListByWorkspace(ctx, *workspaceID)
	}
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at`
	return r.queryProjects(ctx, query)
}

func (r *projectRepository) queryProjects(ctx context.Context, query string, args ...any) ([]*models.Project, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list projects", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, storageErr("scan project", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate projects", err)
	}
	return projects, nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.WorkspaceID, &p.OwnerID, &p.Name, &p.Description,
		&p.Color, &p.Icon, &p.IsPrivate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var _ ProjectRepository = (*projectRepository)(nil)
