package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/models"
	"github.com/doit-inc/doit-engine/pkg/repositories"
)

// ProjectCreate carries the fields a caller supplies when creating a project.
type ProjectCreate struct {
	Name        string
	Description string
	Color       string
	Icon        string
	IsPrivate   bool
}

// ProjectUpdate carries partial updates. Nil fields are left unchanged. The
// owning workspace can never change.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
	IsPrivate   *bool
}

// ProjectService manages projects and project membership rosters.
type ProjectService interface {
	// Create makes a project in a workspace the user belongs to. The creator
	// becomes the project owner with a membership row written atomically.
	Create(ctx context.Context, user *models.User, workspaceID uuid.UUID, input ProjectCreate) (*models.Project, error)
	Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, user *models.User, id uuid.UUID, upd ProjectUpdate) (*models.Project, error)
	Delete(ctx context.Context, user *models.User, id uuid.UUID) error

	// AddMember adds a workspace member to the project roster. Owner only.
	AddMember(ctx context.Context, user *models.User, projectID, memberID uuid.UUID, role string) error
	ListMembers(ctx context.Context, user *models.User, projectID uuid.UUID) ([]*models.ProjectMemberInfo, error)
}

type projectService struct {
	projectRepo    repositories.ProjectRepository
	membershipRepo repositories.MembershipRepository
	authz          AuthzService
	logger         *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	membershipRepo repositories.MembershipRepository,
	authz AuthzService,
	logger *zap.Logger,
) ProjectService {
	return &projectService{
		projectRepo:    projectRepo,
		membershipRepo: membershipRepo,
		authz:          authz,
		logger:         logger,
	}
}

func (s *projectService) Create(ctx context.Context, user *models.User, workspaceID uuid.UUID, input ProjectCreate) (*models.Project, error) {
	if err := s.authz.AuthorizeProjectCreate(ctx, user, workspaceID); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, fmt.Errorf("project name is required: %w", apperrors.ErrInvalidState)
	}

	project := &models.Project{
		WorkspaceID: workspaceID,
		OwnerID:     user.ID,
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		Icon:        input.Icon,
		IsPrivate:   input.IsPrivate,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("workspace_id", workspaceID.String()),
		zap.Bool("is_private", project.IsPrivate))
	return project, nil
}

func (s *projectService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Project, error) {
	project, err := s.projectRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanReadProject(ctx, user, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Update(ctx context.Context, user *models.User, id uuid.UUID, upd ProjectUpdate) (*models.Project, error) {
	if err := s.authz.Authorize(ctx, user, ActionWrite, ResourceRef{Kind: KindProject, ID: id}); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		project.Name = *upd.Name
	}
	if upd.Description != nil {
		project.Description = *upd.Description
	}
	if upd.Color != nil {
		project.Color = *upd.Color
	}
	if upd.Icon != nil {
		project.Icon = *upd.Icon
	}
	if upd.IsPrivate != nil {
		project.IsPrivate = *upd.IsPrivate
	}
	if project.Name == "" {
		return nil, fmt.Errorf("project name is required: %w", apperrors.ErrInvalidState)
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	if err := s.authz.Authorize(ctx, user, ActionDelete, ResourceRef{Kind: KindProject, ID: id}); err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Project deleted", zap.String("project_id", id.String()))
	return nil
}

func (s *projectService) AddMember(ctx context.Context, user *models.User, projectID, memberID uuid.UUID, role string) error {
	if err := s.authz.Authorize(ctx, user, ActionManageMembers, ResourceRef{Kind: KindProject, ID: projectID}); err != nil {
		return err
	}
	if !models.IsValidProjectRole(role) {
		return fmt.Errorf("invalid role %q: %w", role, apperrors.ErrInvalidState)
	}

	project, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return err
	}

	// Project membership presupposes workspace membership.
	if _, err := s.membershipRepo.GetWorkspaceMember(ctx, project.WorkspaceID, memberID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Denied(apperrors.ReasonNotWorkspaceMember)
		}
		return err
	}

	return s.membershipRepo.AddProjectMember(ctx, &models.ProjectMember{
		ProjectID: projectID,
		UserID:    memberID,
		Role:      role,
	})
}

func (s *projectService) ListMembers(ctx context.Context, user *models.User, projectID uuid.UUID) ([]*models.ProjectMemberInfo, error) {
	if err := s.authz.Authorize(ctx, user, ActionRead, ResourceRef{Kind: KindProject, ID: projectID}); err != nil {
		return nil, err
	}
	return s.membershipRepo.ListProjectMembers(ctx, projectID)
}

var _ ProjectService = (*projectService)(nil)
