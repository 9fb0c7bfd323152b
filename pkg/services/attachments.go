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

// AttachmentCreate carries the metadata for a newly stored file.
type AttachmentCreate struct {
	FileName string
	FilePath string
	FileType string
	FileSize int64
}

// AttachmentService manages attachment records on tasks. The engine stores
// metadata only; the bytes live in external blob storage.
type AttachmentService interface {
	Create(ctx context.Context, user *models.User, taskID uuid.UUID, input AttachmentCreate) (*models.Attachment, error)
	Delete(ctx context.Context, user *models.User, id uuid.UUID) error
	List(ctx context.Context, user *models.User, taskID uuid.UUID, skip, limit int) ([]*models.Attachment, int, error)
}

type attachmentService struct {
	attachmentRepo repositories.AttachmentRepository
	hierarchy      HierarchyResolver
	authz          AuthzService
	logger         *zap.Logger
}

// NewAttachmentService creates a new attachment service.
func NewAttachmentService(
	attachmentRepo repositories.AttachmentRepository,
	hierarchy HierarchyResolver,
	authz AuthzService,
	logger *zap.Logger,
) AttachmentService {
	return &attachmentService{
		attachmentRepo: attachmentRepo,
		hierarchy:      hierarchy,
		authz:          authz,
		logger:         logger,
	}
}

func (s *attachmentService) Create(ctx context.Context, user *models.User, taskID uuid.UUID, input AttachmentCreate) (*models.Attachment, error) {
	resolved, err := s.hierarchy.Resolve(ctx, ResourceRef{Kind: KindTask, ID: taskID})
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanCollaborate(ctx, user, resolved.Project); err != nil {
		return nil, err
	}
	if input.FileName == "" || input.FilePath == "" {
		return nil, fmt.Errorf("attachment file name and path are required: %w", apperrors.ErrInvalidState)
	}

	attachment := &models.Attachment{
		TaskID:   taskID,
		UserID:   user.ID,
		FileName: input.FileName,
		FilePath: input.FilePath,
		FileType: input.FileType,
		FileSize: input.FileSize,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

func (s *attachmentService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	if err := s.authz.Authorize(ctx, user, ActionDelete, ResourceRef{Kind: KindAttachment, ID: id}); err != nil {
		return err
	}
	return s.attachmentRepo.Delete(ctx, id)
}

func (s *attachmentService) List(ctx context.Context, user *models.User, taskID uuid.UUID, skip, limit int) ([]*models.Attachment, int, error) {
	resolved, err := s.hierarchy.Resolve(ctx, ResourceRef{Kind: KindTask, ID: taskID})
	if err != nil {
		return nil, 0, err
	}
	if err := s.authz.CanReadProject(ctx, user, resolved.Project); err != nil {
		return nil, 0, err
	}
	return s.attachmentRepo.ListByTask(ctx, taskID, skip, limit)
}

var _ AttachmentService = (*attachmentService)(nil)
