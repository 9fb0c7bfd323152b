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

// SectionCreate carries the fields for a new board column.
type SectionCreate struct {
	Title string
	Order float64
}

// SectionUpdate carries partial updates. Nil fields are left unchanged.
type SectionUpdate struct {
	Title *string
	Order *float64
}

// SectionService manages board columns within a project.
type SectionService interface {
	Create(ctx context.Context, user *models.User, projectID uuid.UUID, input SectionCreate) (*models.Section, error)
	Update(ctx context.Context, user *models.User, id uuid.UUID, upd SectionUpdate) (*models.Section, error)
	Delete(ctx context.Context, user *models.User, id uuid.UUID) error
	List(ctx context.Context, user *models.User, projectID uuid.UUID, skip, limit int) ([]*models.Section, int, error)
}

type sectionService struct {
	sectionRepo repositories.SectionRepository
	hierarchy   HierarchyResolver
	authz       AuthzService
	logger      *zap.Logger
}

// NewSectionService creates a new section service.
func NewSectionService(
	sectionRepo repositories.SectionRepository,
	hierarchy HierarchyResolver,
	authz AuthzService,
	logger *zap.Logger,
) SectionService {
	return &sectionService{
		sectionRepo: sectionRepo,
		hierarchy:   hierarchy,
		authz:       authz,
		logger:      logger,
	}
}

func (s *sectionService) Create(ctx context.Context, user *models.User, projectID uuid.UUID, input SectionCreate) (*models.Section, error) {
	project, err := s.hierarchy.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanCollaborate(ctx, user, project); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, fmt.Errorf("section title is required: %w", apperrors.ErrInvalidState)
	}

	section := &models.Section{
		ProjectID: projectID,
		Title:     input.Title,
		Order:     input.Order,
	}
	if err := s.sectionRepo.Create(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *sectionService) Update(ctx context.Context, user *models.User, id uuid.UUID, upd SectionUpdate) (*models.Section, error) {
	if err := s.authz.Authorize(ctx, user, ActionWrite, ResourceRef{Kind: KindSection, ID: id}); err != nil {
		return nil, err
	}

	section, err := s.sectionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		section.Title = *upd.Title
	}
	if upd.Order != nil {
		section.Order = *upd.Order
	}
	if section.Title == "" {
		return nil, fmt.Errorf("section title is required: %w", apperrors.ErrInvalidState)
	}

	if err := s.sectionRepo.Update(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *sectionService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	if err := s.authz.Authorize(ctx, user, ActionDelete, ResourceRef{Kind: KindSection, ID: id}); err != nil {
		return err
	}
	return s.sectionRepo.Delete(ctx, id)
}

func (s *sectionService) List(ctx context.Context, user *models.User, projectID uuid.UUID, skip, limit int) ([]*models.Section, int, error) {
	project, err := s.hierarchy.Project(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.authz.CanReadProject(ctx, user, project); err != nil {
		return nil, 0, err
	}
	return s.sectionRepo.ListByProject(ctx, projectID, skip, limit)
}

var _ SectionService = (*sectionService)(nil)
