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

// CommentService manages task comments. Writing requires project membership;
// authors keep delete rights over their own comments.
type CommentService interface {
	Create(ctx context.Context, user *models.User, taskID uuid.UUID, content string, attachmentIDs []uuid.UUID) (*models.Comment, error)
	Delete(ctx context.Context, user *models.User, id uuid.UUID) error
	List(ctx context.Context, user *models.User, taskID uuid.UUID, skip, limit int) ([]*models.CommentWithAuthor, int, error)
}

type commentService struct {
	commentRepo    repositories.CommentRepository
	attachmentRepo repositories.AttachmentRepository
	hierarchy      HierarchyResolver
	authz          AuthzService
	logger         *zap.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(
	commentRepo repositories.CommentRepository,
	attachmentRepo repositories.AttachmentRepository,
	hierarchy HierarchyResolver,
	authz AuthzService,
	logger *zap.Logger,
) CommentService {
	return &commentService{
		commentRepo:    commentRepo,
		attachmentRepo: attachmentRepo,
		hierarchy:      hierarchy,
		authz:          authz,
		logger:         logger,
	}
}

func (s *commentService) Create(ctx context.Context, user *models.User, taskID uuid.UUID, content string, attachmentIDs []uuid.UUID) (*models.Comment, error) {
	resolved, err := s.hierarchy.Resolve(ctx, ResourceRef{Kind: KindTask, ID: taskID})
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanCollaborate(ctx, user, resolved.Project); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("comment content is required: %w", apperrors.ErrInvalidState)
	}

	comment := &models.Comment{
		TaskID:  taskID,
		UserID:  user.ID,
		Content: content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	// Bind previously uploaded attachments to this comment. The repository
	// guards against linking an attachment from a different task.
	for _, attachmentID := range attachmentIDs {
		if err := s.attachmentRepo.LinkToComment(ctx, attachmentID, comment.ID, taskID); err != nil {
			s.logger.Warn("Failed to link attachment to comment",
				zap.String("attachment_id", attachmentID.String()),
				zap.String("comment_id", comment.ID.String()),
				zap.Error(err))
		}
	}
	return comment, nil
}

func (s *commentService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	if err := s.authz.Authorize(ctx, user, ActionDelete, ResourceRef{Kind: KindComment, ID: id}); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, id)
}

func (s *commentService) List(ctx context.Context, user *models.User, taskID uuid.UUID, skip, limit int) ([]*models.CommentWithAuthor, int, error) {
	resolved, err := s.hierarchy.Resolve(ctx, ResourceRef{Kind: KindTask, ID: taskID})
	if err != nil {
		return nil, 0, err
	}
	if err := s.authz.CanReadProject(ctx, user, resolved.Project); err != nil {
		return nil, 0, err
	}
	return s.commentRepo.ListByTask(ctx, taskID, skip, limit)
}

var _ CommentService = (*commentService)(nil)
