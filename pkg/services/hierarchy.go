package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/doit-inc/doit-engine/pkg/models"
	"github.com/doit-inc/doit-engine/pkg/repositories"
)

// ResolvedResource is a nested resource's position in the hierarchy: the
// project it ultimately belongs to and the user who created the resource
// itself (task owner, comment author, attachment uploader).
type ResolvedResource struct {
	Project  *models.Project
	AuthorID uuid.UUID
}

// HierarchyResolver resolves nested resources to their owning project and
// workspace. Pure lookups, no policy.
type HierarchyResolver interface {
	Workspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	Project(ctx context.Context, id uuid.UUID) (*models.Project, error)
	// Resolve maps a project or nested resource reference to its owning
	// project. Workspace references are not resolvable here.
	Resolve(ctx context.Context, ref ResourceRef) (*ResolvedResource, error)
}

type hierarchyResolver struct {
	workspaceRepo  repositories.WorkspaceRepository
	projectRepo    repositories.ProjectRepository
	taskRepo       repositories.TaskRepository
	sectionRepo    repositories.SectionRepository
	commentRepo    repositories.CommentRepository
	attachmentRepo repositories.AttachmentRepository
}

// NewHierarchyResolver creates a new hierarchy resolver.
func NewHierarchyResolver(
	workspaceRepo repositories.WorkspaceRepository,
	projectRepo repositories.ProjectRepository,
	taskRepo repositories.TaskRepository,
	sectionRepo repositories.SectionRepository,
	commentRepo repositories.CommentRepository,
	attachmentRepo repositories.AttachmentRepository,
) HierarchyResolver {
	return &hierarchyResolver{
		workspaceRepo:  workspaceRepo,
		projectRepo:    projectRepo,
		taskRepo:       taskRepo,
		sectionRepo:    sectionRepo,
		commentRepo:    commentRepo,
		attachmentRepo: attachmentRepo,
	}
}

func (r *hierarchyResolver) Workspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	return r.workspaceRepo.Get(ctx, id)
}

func (r *hierarchyResolver) Project(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return r.projectRepo.Get(ctx, id)
}

func (r *hierarchyResolver) Resolve(ctx context.Context, ref ResourceRef) (*ResolvedResource, error) {
	switch ref.Kind {
	case KindProject:
		project, err := r.projectRepo.Get(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &ResolvedResource{Project: project, AuthorID: project.OwnerID}, nil

	case KindTask:
		task, err := r.taskRepo.Get(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		project, err := r.projectRepo.Get(ctx, task.ProjectID)
		if err != nil {
			return nil, err
		}
		return &ResolvedResource{Project: project, AuthorID: task.OwnerID}, nil

	case KindSection:
		section, err := r.sectionRepo.Get(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		project, err := r.projectRepo.Get(ctx, section.ProjectID)
		if err != nil {
			return nil, err
		}
		// Sections have no independent author; the project owner stands in.
		return &ResolvedResource{Project: project, AuthorID: project.OwnerID}, nil

	case KindComment:
		comment, err := r.commentRepo.Get(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		project, err := r.projectOfTask(ctx, comment.TaskID)
		if err != nil {
			return nil, err
		}
		return &ResolvedResource{Project: project, AuthorID: comment.UserID}, nil

	case KindAttachment:
		attachment, err := r.attachmentRepo.Get(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		project, err := r.projectOfTask(ctx, attachment.TaskID)
		if err != nil {
			return nil, err
		}
		return &ResolvedResource{Project: project, AuthorID: attachment.UserID}, nil

	default:
		return nil, fmt.Errorf("cannot resolve resource kind %q", ref.Kind)
	}
}

func (r *hierarchyResolver) projectOfTask(ctx context.Context, taskID uuid.UUID) (*models.Project, error) {
	task, err := r.taskRepo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return r.projectRepo.Get(ctx, task.ProjectID)
}

var _ HierarchyResolver = (*hierarchyResolver)(nil)
