package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/database"
	"github.com/doit-inc/doit-engine/pkg/models"
)

// InvitationRepository defines data access for workspace invitations.
type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	GetByToken(ctx context.Context, token string) (*models.Invitation, error)
	// GetPending returns the pending invitation for (workspace, email), if any.
	GetPending(ctx context.Context, workspaceID uuid.UUID, email string) (*models.Invitation, error)
	// Redeem transitions a pending invitation to accepted and grants the
	// workspace membership in the same transaction.
	Redeem(ctx context.Context, id uuid.UUID, member *models.WorkspaceMember) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type invitationRepository struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository.
func NewInvitationRepository(db *database.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

const invitationColumns = `id, workspace_id, email, role, token, status, expires_at, created_at, inviter_id`

// Create inserts a new invitation. Token values are unique across all
// invitations ever issued; a collision surfaces as ErrConflict rather than
// silently overwriting.
func (r *invitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	if invitation.ID == uuid.Nil {
		invitation.ID = uuid.New()
	}
	if invitation.CreatedAt.IsZero() {
		invitation.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO invitations (id, workspace_id, email, role, token, status, expires_at, created_at, inviter_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		invitation.ID, invitation.WorkspaceID, invitation.Email, invitation.Role,
		invitation.Token, invitation.Status, invitation.ExpiresAt,
		invitation.CreatedAt, invitation.InviterID)
	if err != nil {
		if strings.Contains(err.Error(), "invitations_token_key") {
			return apperrors.ErrConflict
		}
		return storageErr("create invitation", err)
	}
	return nil
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token = $1`

	var inv models.Invitation
	err := r.db.QueryRow(ctx, query, token).Scan(
		&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.Token,
		&inv.Status, &inv.ExpiresAt, &inv.CreatedAt, &inv.InviterID,
	)
	if err != nil {
		return nil, scanErr("get invitation by token", err)
	}
	return &inv, nil
}

func (r *invitationRepository) GetPending(ctx context.Context, workspaceID uuid.UUID, email string) (*models.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE workspace_id = $1 AND email = $2 AND status = $3`

	var inv models.Invitation
	err := r.db.QueryRow(ctx, query, workspaceID, email, models.InvitationPending).Scan(
		&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.Token,
		&inv.Status, &inv.ExpiresAt, &inv.CreatedAt, &inv.InviterID,
	)
	if err != nil {
		return nil, scanErr("get pending invitation", err)
	}
	return &inv, nil
}

// Redeem accepts a pending invitation and upserts the resulting workspace
// membership atomically. The status guard makes the transition one-way: a
// concurrent redeem loses the update race and gets ErrInvalidState. The
// membership insert ignores conflicts so re-inviting an existing member's
// email cannot fail the accept.
func (r *invitationRepository) Redeem(ctx context.Context, id uuid.UUID, member *models.WorkspaceMember) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storageErr("begin redeem invitation", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE invitations SET status = $2 WHERE id = $1 AND status = $3`,
		id, models.InvitationAccepted, models.InvitationPending)
	if err != nil {
		return storageErr("mark invitation accepted", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrInvalidState
	}

	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO workspace_members (workspace_id, user_id, role, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (workspace_id, user_id) DO NOTHING`,
		member.WorkspaceID, member.UserID, member.Role, member.CreatedAt)
	if err != nil {
		return storageErr("grant invited membership", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit redeem invitation", err)
	}
	return nil
}

func (r *invitationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete invitation", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

var _ InvitationRepository = (*invitationRepository)(nil)
