package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/database"
	"github.com/doit-inc/doit-engine/pkg/models"
)

// MembershipRepository is the membership store: workspace-membership and
// project-membership facts keyed by (resource, user). Everything above it --
// the authorization engine, the visibility resolver, the invitation manager --
// consumes these facts.
type MembershipRepository interface {
	GetWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error)
	UpsertWorkspaceMember(ctx context.Context, m *models.WorkspaceMember) error
	ListWorkspaceMembers(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]*models.WorkspaceMemberInfo, int, error)

	GetProjectMember(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectMember, error)
	AddProjectMember(ctx context.Context, m *models.ProjectMember) error
	ListProjectMembers(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMemberInfo, error)

	// ProjectIDsForUser returns every project the user holds explicit
	// membership in. Used for set-based visibility resolution.
	ProjectIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type membershipRepository struct {
	db *database.DB
}

// NewMembershipRepository creates a new membership repository.
func NewMembershipRepository(db *database.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) GetWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	query := `
		SELECT workspace_id, user_id, role, created_at
		FROM workspace_members
		WHERE workspace_id = $1 AND user_id = $2`

	var m models.WorkspaceMember
	err := r.db.QueryRow(ctx, query, workspaceID, userID).Scan(
		&m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt,
	)
	if err != nil {
		return nil, scanErr("get workspace member", err)
	}
	return &m, nil
}

// UpsertWorkspaceMember inserts a membership fact, keeping the existing role
// on conflict. At most one row per (workspace, user) ever exists, which makes
// invitation acceptance retry-safe.
func (r *membershipRepository) UpsertWorkspaceMember(ctx context.Context, m *models.WorkspaceMember) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO workspace_members (workspace_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, user_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query, m.WorkspaceID, m.UserID, m.Role, m.CreatedAt)
	if err != nil {
		return storageErr("upsert workspace member", err)
	}
	return nil
}

func (r *membershipRepository) ListWorkspaceMembers(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]*models.WorkspaceMemberInfo, int, error) {
	countQuery := `SELECT COUNT(*) FROM workspace_members WHERE workspace_id = $1`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, workspaceID).Scan(&total); err != nil {
		return nil, 0, storageErr("count workspace members", err)
	}

	query := `
		SELECT u.id, u.email, COALESCE(u.full_name, ''), COALESCE(u.avatar_url, ''), wm.role
		FROM workspace_members wm
		JOIN users u ON u.id = wm.user_id
		WHERE wm.workspace_id = $1
		ORDER BY wm.created_at
		OFFSET $2 LIMIT $3`

	rows, err := r.db.Query(ctx, query, workspaceID, skip, limit)
	if err != nil {
		return nil, 0, storageErr("list workspace members", err)
	}
	defer rows.Close()

	var members []*models.WorkspaceMemberInfo
	for rows.Next() {
		var m models.WorkspaceMemberInfo
		if err := rows.Scan(&m.ID, &m.Email, &m.FullName, &m.AvatarURL, &m.Role); err != nil {
			return nil, 0, storageErr("scan workspace member", err)
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr("iterate workspace members", err)
	}
	return members, total, nil
}

func (r *membershipRepository) GetProjectMember(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectMember, error) {
	query := `
		SELECT project_id, user_id, role, created_at
		FROM project_members
		WHERE project_id = $1 AND user_id = $2`

	var m models.ProjectMember
	err := r.db.QueryRow(ctx, query, projectID, userID).Scan(
		&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt,
	)
	if err != nil {
		return nil, scanErr("get project member", err)
	}
	return &m, nil
}

func (r *membershipRepository) AddProjectMember(ctx context.Context, m *models.ProjectMember) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO project_members (project_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, user_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query, m.ProjectID, m.UserID, m.Role, m.CreatedAt)
	if err != nil {
		return storageErr("add project member", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAlreadyMember
	}
	return nil
}

func (r *membershipRepository) ListProjectMembers(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMemberInfo, error) {
	query := `
		SELECT u.id, u.email, COALESCE(u.full_name, ''), COALESCE(u.avatar_url, ''), pm.role, pm.project_id
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = $1
		ORDER BY pm.created_at`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, storageErr("list project members", err)
	}
	defer rows.Close()

	var members []*models.ProjectMemberInfo
	for rows.Next() {
		var m models.ProjectMemberInfo
		if err := rows.Scan(&m.ID, &m.Email, &m.FullName, &m.AvatarURL, &m.Role, &m.ProjectID); err != nil {
			return nil, storageErr("scan project member", err)
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate project members", err)
	}
	return members, nil
}

func (r *membershipRepository) ProjectIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT project_id FROM project_members WHERE user_id = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, storageErr("list project ids for user", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan project id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate project ids", err)
	}
	return ids, nil
}

var _ MembershipRepository = (*membershipRepository)(nil)
