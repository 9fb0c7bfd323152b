package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/models"
	"github.com/doit-inc/doit-engine/pkg/repositories"
)

// tokenRetries bounds the retry loop on the astronomically unlikely token
// collision.
const tokenRetries = 3

// InvitationService drives the invitation lifecycle: issue a time-boxed token,
// inspect it, redeem it into a workspace membership. Status only moves
// pending -> accepted; expiry is derived from the clock at read time, and an
// expired pending invitation is replaced in place on re-invite.
type InvitationService interface {
	// Issue creates an invitation to a workspace and emails the recipient a
	// redemption link. The inviter must be a member of the workspace. Returns
	// ErrAlreadyMember if the email belongs to an existing member and
	// ErrAlreadyInvited if a live pending invitation already exists.
	Issue(ctx context.Context, inviter *models.User, workspaceID uuid.UUID, email, role string) (*models.Invitation, error)

	// Inspect resolves a token for display before the recipient commits to
	// accepting. Returns ErrExpired past the deadline and ErrInvalidState for
	// an already-accepted invitation.
	Inspect(ctx context.Context, token string) (*models.Invitation, error)

	// Accept redeems a token for the authenticated user, granting workspace
	// membership at the invited role. Accepting on behalf of a different
	// email than the one invited is allowed; possession of the token is the
	// credential.
	Accept(ctx context.Context, user *models.User, token string) (*models.Invitation, error)
}

type invitationService struct {
	invitationRepo repositories.InvitationRepository
	membershipRepo repositories.MembershipRepository
	workspaceRepo  repositories.WorkspaceRepository
	userRepo       repositories.UserRepository
	mailer         Mailer
	frontendHost   string
	expiryDays     int
	now            func() time.Time
	logger         *zap.Logger
}

// NewInvitationService creates a new invitation service.
func NewInvitationService(
	invitationRepo repositories.InvitationRepository,
	membershipRepo repositories.MembershipRepository,
	workspaceRepo repositories.WorkspaceRepository,
	userRepo repositories.UserRepository,
	mailer Mailer,
	frontendHost string,
	expiryDays int,
	logger *zap.Logger,
) InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		membershipRepo: membershipRepo,
		workspaceRepo:  workspaceRepo,
		userRepo:       userRepo,
		mailer:         mailer,
		frontendHost:   frontendHost,
		expiryDays:     expiryDays,
		now:            time.Now,
		logger:         logger,
	}
}

func (s *invitationService) Issue(ctx context.Context, inviter *models.User, workspaceID uuid.UUID, email, role string) (*models.Invitation, error) {
	workspace, err := s.workspaceRepo.Get(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if !inviter.IsSuperuser {
		if _, err := s.membershipRepo.GetWorkspaceMember(ctx, workspaceID, inviter.ID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.Denied(apperrors.ReasonNotAMember)
			}
			return nil, err
		}
	}

	if !models.IsValidWorkspaceRole(role) {
		return nil, fmt.Errorf("invalid role %q: %w", role, apperrors.ErrInvalidState)
	}

	// An email that already maps to a workspace member has nothing to accept.
	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		if _, err := s.membershipRepo.GetWorkspaceMember(ctx, workspaceID, existing.ID); err == nil {
			return nil, apperrors.ErrAlreadyMember
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	// At most one live pending invitation per (workspace, email). An expired
	// one is dead weight: delete it and issue fresh.
	if pending, err := s.invitationRepo.GetPending(ctx, workspaceID, email); err == nil {
		if !pending.IsExpired(s.now()) {
			return nil, apperrors.ErrAlreadyInvited
		}
		if err := s.invitationRepo.Delete(ctx, pending.ID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	invitation, err := s.create(ctx, workspaceID, email, role, inviter.ID)
	if err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/accept-invite?token=%s", s.frontendHost, invitation.Token)
	notify(s.mailer, s.logger, email,
		fmt.Sprintf("You've been invited to %s", workspace.Name),
		invitationEmailBody(workspace.Name, inviter.DisplayName(), link, s.expiryDays))

	s.logger.Info("Invitation issued",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("email", email),
		zap.String("role", role))
	return invitation, nil
}

// create inserts a fresh invitation, retrying with a new token on the off
// chance of a token collision.
func (s *invitationService) create(ctx context.Context, workspaceID uuid.UUID, email, role string, inviterID uuid.UUID) (*models.Invitation, error) {
	var lastErr error
	for i := 0; i < tokenRetries; i++ {
		token, err := newInviteToken()
		if err != nil {
			return nil, err
		}
		invitation := &models.Invitation{
			WorkspaceID: workspaceID,
			Email:       email,
			Role:        role,
			Token:       token,
			Status:      models.InvitationPending,
			ExpiresAt:   s.now().UTC().Add(time.Duration(s.expiryDays) * 24 * time.Hour),
			InviterID:   inviterID,
		}
		err = s.invitationRepo.Create(ctx, invitation)
		if err == nil {
			return invitation, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to generate unique invitation token: %w", lastErr)
}

func (s *invitationService) Inspect(ctx context.Context, token string) (*models.Invitation, error) {
	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.redeemable(invitation); err != nil {
		return nil, err
	}
	return invitation, nil
}

func (s *invitationService) Accept(ctx context.Context, user *models.User, token string) (*models.Invitation, error) {
	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.redeemable(invitation); err != nil {
		return nil, err
	}

	member := &models.WorkspaceMember{
		WorkspaceID: invitation.WorkspaceID,
		UserID:      user.ID,
		Role:        invitation.Role,
		CreatedAt:   s.now(),
	}
	if err := s.invitationRepo.Redeem(ctx, invitation.ID, member); err != nil {
		return nil, err
	}
	invitation.Status = models.InvitationAccepted

	s.logger.Info("Invitation accepted",
		zap.String("workspace_id", invitation.WorkspaceID.String()),
		zap.String("user_id", user.ID.String()))
	return invitation, nil
}

// redeemable checks the derived lifecycle state. Expiry wins over any stored
// status: a past deadline always reads as expired, accepted or not.
func (s *invitationService) redeemable(invitation *models.Invitation) error {
	if invitation.IsExpired(s.now()) {
		return apperrors.ErrExpired
	}
	if invitation.Status != models.InvitationPending {
		return apperrors.ErrInvalidState
	}
	return nil
}

func newInviteToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

var _ InvitationService = (*invitationService)(nil)
