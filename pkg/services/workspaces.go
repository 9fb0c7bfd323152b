package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/models"
	"github.com/doit-inc/doit-engine/pkg/repositories"
)

// WorkspaceCreate carries the fields a caller supplies when creating a
// workspace.
type WorkspaceCreate struct {
	Name        string
	Description string
}

// WorkspaceUpdate carries partial updates. Nil fields are left unchanged.
type WorkspaceUpdate struct {
	Name        *string
	Description *string
}

// WorkspaceService manages workspaces and their member lists. Creation is
// open to any authenticated user; the creator becomes the owner and gets a
// membership row in the same transaction.
type WorkspaceService interface {
	Create(ctx context.Context, user *models.User, input WorkspaceCreate) (*models.Workspace, error)
	Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Workspace, error)
	Update(ctx context.Context, user *models.User, id uuid.UUID, upd WorkspaceUpdate) (*models.Workspace, error)
	Delete(ctx context.Context, user *models.User, id uuid.UUID) error
	// List returns the workspaces the user belongs to (all workspaces for
	// superusers), with the total before pagination.
	List(ctx context.Context, user *models.User, skip, limit int) ([]*models.Workspace, int, error)
	ListMembers(ctx context.Context, user *models.User, id uuid.UUID, skip, limit int) ([]*models.WorkspaceMemberInfo, int, error)
}

type workspaceService struct {
	workspaceRepo  repositories.WorkspaceRepository
	membershipRepo repositories.MembershipRepository
	authz          AuthzService
	logger         *zap.Logger
}

// NewWorkspaceService creates a new workspace service.
func NewWorkspaceService(
	workspaceRepo repositories.WorkspaceRepository,
	membershipRepo repositories.MembershipRepository,
	authz AuthzService,
	logger *zap.Logger,
) WorkspaceService {
	return &workspaceService{
		workspaceRepo:  workspaceRepo,
		membershipRepo: membershipRepo,
		authz:          authz,
		logger:         logger,
	}
}

func (s *workspaceService) Create(ctx context.Context, user *models.User, input WorkspaceCreate) (*models.Workspace, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("workspace name is required: %w", apperrors.ErrInvalidState)
	}

	workspace := &models.Workspace{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     user.ID,
	}
	if err := s.workspaceRepo.Create(ctx, workspace); err != nil {
		return nil, err
	}

	s.logger.Info("Workspace created",
		zap.String("workspace_id", workspace.ID.String()),
		zap.String("owner_id", user.ID.String()))
	return workspace, nil
}

func (s *workspaceService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Workspace, error) {
	if err := s.authz.Authorize(ctx, user, ActionRead, ResourceRef{Kind: KindWorkspace, ID: id}); err != nil {
		return nil, err
	}
	return s.workspaceRepo.Get(ctx, id)
}

func (s *workspaceService) Update(ctx context.Context, user *models.User, id uuid.UUID, upd WorkspaceUpdate) (*models.Workspace, error) {
	if err := s.authz.Authorize(ctx, user, ActionWrite, ResourceRef{Kind: KindWorkspace, ID: id}); err != nil {
		return nil, err
	}

	workspace, err := s.workspaceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		workspace.Name = *upd.Name
	}
	if upd.Description != nil {
		workspace.Description = *upd.Description
	}
	if workspace.Name == "" {
		return nil, fmt.Errorf("workspace name is required: %w", apperrors.ErrInvalidState)
	}

	if err := s.workspaceRepo.Update(ctx, workspace); err != nil {
		return nil, err
	}
	return workspace, nil
}

func (s *workspaceService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	if err := s.authz.Authorize(ctx, user, ActionDelete, ResourceRef{Kind: KindWorkspace, ID: id}); err != nil {
		return err
	}
	if err := s.workspaceRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Workspace deleted", zap.String("workspace_id", id.String()))
	return nil
}

func (s *workspaceService) List(ctx context.Context, user *models.User, skip, limit int) ([]*models.Workspace, int, error) {
	if user.IsSuperuser {
		return s.workspaceRepo.ListAll(ctx, skip, limit)
	}
	return s.workspaceRepo.ListForUser(ctx, user.ID, skip, limit)
}

func (s *workspaceService) ListMembers(ctx context.Context, user *models.User, id uuid.UUID, skip, limit int) ([]*models.WorkspaceMemberInfo, int, error) {
	if err := s.authz.Authorize(ctx, user, ActionRead, ResourceRef{Kind: KindWorkspace, ID: id}); err != nil {
		return nil, 0, err
	}
	return s.membershipRepo.ListWorkspaceMembers(ctx, id, skip, limit)
}

var _ WorkspaceService = (*workspaceService)(nil)
