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

// TaskCreate carries the fields for a new task. Status and Priority default
// to todo/medium when empty.
type TaskCreate struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     string
	SectionID   *uuid.UUID
	AssigneeID  *uuid.UUID
}

// TaskUpdate carries partial updates. Nil fields are left unchanged; for the
// nullable references (section, assignee) a pointer to uuid.Nil clears the
// field. The owning project can never change.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *string
	SectionID   *uuid.UUID
	AssigneeID  *uuid.UUID
}

// TaskService manages tasks. Assignment is validated against the project
// roster and triggers a best-effort notification email to the assignee.
type TaskService interface {
	Create(ctx context.Context, user *models.User, projectID uuid.UUID, input TaskCreate) (*models.Task, error)
	Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, user *models.User, id uuid.UUID, upd TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, user *models.User, id uuid.UUID) error
}

type taskService struct {
	taskRepo    repositories.TaskRepository
	sectionRepo repositories.SectionRepository
	userRepo    repositories.UserRepository
	hierarchy   HierarchyResolver
	authz       AuthzService
	mailer      Mailer
	logger      *zap.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(
	taskRepo repositories.TaskRepository,
	sectionRepo repositories.SectionRepository,
	userRepo repositories.UserRepository,
	hierarchy HierarchyResolver,
	authz AuthzService,
	mailer Mailer,
	logger *zap.Logger,
) TaskService {
	return &taskService{
		taskRepo:    taskRepo,
		sectionRepo: sectionRepo,
		userRepo:    userRepo,
		hierarchy:   hierarchy,
		authz:       authz,
		mailer:      mailer,
		logger:      logger,
	}
}

func (s *taskService) Create(ctx context.Context, user *models.User, projectID uuid.UUID, input TaskCreate) (*models.Task, error) {
	project, err := s.hierarchy.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanCollaborate(ctx, user, project); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, fmt.Errorf("task title is required: %w", apperrors.ErrInvalidState)
	}
	if input.Status != "" && !models.IsValidTaskStatus(input.Status) {
		return nil, fmt.Errorf("invalid status %q: %w", input.Status, apperrors.ErrInvalidState)
	}
	if input.Priority != "" && !models.IsValidTaskPriority(input.Priority) {
		return nil, fmt.Errorf("invalid priority %q: %w", input.Priority, apperrors.ErrInvalidState)
	}
	if err := s.checkSection(ctx, projectID, input.SectionID); err != nil {
		return nil, err
	}
	if input.AssigneeID != nil {
		if err := s.authz.ValidateAssignee(ctx, project, *input.AssigneeID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		ProjectID:   projectID,
		SectionID:   input.SectionID,
		OwnerID:     user.ID,
		AssigneeID:  input.AssigneeID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	if task.AssigneeID != nil && *task.AssigneeID != user.ID {
		s.notifyAssignee(ctx, user, project, task)
	}
	return task, nil
}

func (s *taskService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Task, error) {
	if err := s.authz.Authorize(ctx, user, ActionRead, ResourceRef{Kind: KindTask, ID: id}); err != nil {
		return nil, err
	}
	return s.taskRepo.Get(ctx, id)
}

func (s *taskService) Update(ctx context.Context, user *models.User, id uuid.UUID, upd TaskUpdate) (*models.Task, error) {
	if err := s.authz.Authorize(ctx, user, ActionWrite, ResourceRef{Kind: KindTask, ID: id}); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	project, err := s.hierarchy.Project(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		task.Title = *upd.Title
	}
	if upd.Description != nil {
		task.Description = *upd.Description
	}
	if upd.Status != nil {
		if !models.IsValidTaskStatus(*upd.Status) {
			return nil, fmt.Errorf("invalid status %q: %w", *upd.Status, apperrors.ErrInvalidState)
		}
		task.Status = *upd.Status
	}
	if upd.Priority != nil {
		if !models.IsValidTaskPriority(*upd.Priority) {
			return nil, fmt.Errorf("invalid priority %q: %w", *upd.Priority, apperrors.ErrInvalidState)
		}
		task.Priority = *upd.Priority
	}
	if upd.DueDate != nil {
		task.DueDate = *upd.DueDate
	}
	if task.Title == "" {
		return nil, fmt.Errorf("task title is required: %w", apperrors.ErrInvalidState)
	}

	if upd.SectionID != nil {
		if *upd.SectionID == uuid.Nil {
			task.SectionID = nil
		} else {
			if err := s.checkSection(ctx, task.ProjectID, upd.SectionID); err != nil {
				return nil, err
			}
			task.SectionID = upd.SectionID
		}
	}

	assigneeChanged := false
	if upd.AssigneeID != nil {
		if *upd.AssigneeID == uuid.Nil {
			task.AssigneeID = nil
		} else {
			if err := s.authz.ValidateAssignee(ctx, project, *upd.AssigneeID); err != nil {
				return nil, err
			}
			assigneeChanged = task.AssigneeID == nil || *task.AssigneeID != *upd.AssigneeID
			task.AssigneeID = upd.AssigneeID
		}
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	if assigneeChanged && *task.AssigneeID != user.ID {
		s.notifyAssignee(ctx, user, project, task)
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	if err := s.authz.Authorize(ctx, user, ActionDelete, ResourceRef{Kind: KindTask, ID: id}); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Task deleted", zap.String("task_id", id.String()))
	return nil
}

// checkSection verifies a target section exists and lives in the same project
// as the task.
func (s *taskService) checkSection(ctx context.Context, projectID uuid.UUID, sectionID *uuid.UUID) error {
	if sectionID == nil || *sectionID == uuid.Nil {
		return nil
	}
	section, err := s.sectionRepo.Get(ctx, *sectionID)
	if err != nil {
		return err
	}
	if section.ProjectID != projectID {
		return fmt.Errorf("section belongs to a different project: %w", apperrors.ErrInvalidState)
	}
	return nil
}

func (s *taskService) notifyAssignee(ctx context.Context, assigner *models.User, project *models.Project, task *models.Task) {
	assignee, err := s.userRepo.Get(ctx, *task.AssigneeID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Failed to load assignee for notification", zap.Error(err))
		}
		return
	}
	notify(s.mailer, s.logger, assignee.Email,
		fmt.Sprintf("New task assigned: %s", task.Title),
		assignmentEmailBody(task.Title, project.Name, assigner.DisplayName()))
}

var _ TaskService = (*taskService)(nil)
