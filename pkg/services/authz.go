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

// Action is what a principal wants to do with a resource.
type Action string

// Actions evaluated by the authorization engine.
const (
	ActionRead          Action = "read"
	ActionWrite         Action = "write"
	ActionDelete        Action = "delete"
	ActionManageMembers Action = "manage-members"
)

// ResourceKind tags the type of a resource reference.
type ResourceKind string

// Resource kinds known to the authorization engine.
const (
	KindWorkspace  ResourceKind = "workspace"
	KindProject    ResourceKind = "project"
	KindSection    ResourceKind = "section"
	KindTask       ResourceKind = "task"
	KindComment    ResourceKind = "comment"
	KindAttachment ResourceKind = "attachment"
)

// ResourceRef identifies a resource by kind and id.
type ResourceRef struct {
	Kind ResourceKind
	ID   uuid.UUID
}

// AuthzService is the policy brain. Authorize is a pure decision over current
// membership and privacy state: nil means allow, a PermissionError carries the
// deny reason, ErrNotFound means the target does not exist. It never panics
// and has no side effects.
//
// Rule precedence (first match wins):
//  1. superuser principals are allowed everything,
//  2. workspaces: any member may read; only the owner may write, delete, or
//     rename; any member may manage members (inviting is open to members),
//  3. projects: the owner alone may write/delete/manage-members; reading is
//     open to the owner, explicit members, and -- for public projects --
//     workspace members,
//  4. nested resources (tasks, sections, comments, attachments) inherit the
//     project rule: project read grants read, project membership grants
//     write, and delete additionally falls back to the resource's original
//     author (self-authorship is a standing grant).
type AuthzService interface {
	Authorize(ctx context.Context, user *models.User, action Action, ref ResourceRef) error

	// AuthorizeProjectCreate checks project creation, which happens before
	// the project exists: the creator must hold workspace membership.
	AuthorizeProjectCreate(ctx context.Context, user *models.User, workspaceID uuid.UUID) error

	// CanReadProject and CanCollaborate evaluate the project rules against
	// an already-loaded project, for callers that hold one.
	CanReadProject(ctx context.Context, user *models.User, project *models.Project) error
	CanCollaborate(ctx context.Context, user *models.User, project *models.Project) error

	// ValidateAssignee checks that a candidate assignee holds project
	// membership or owns the project. Independent of, and additional to,
	// the write check on the task itself.
	ValidateAssignee(ctx context.Context, project *models.Project, assigneeID uuid.UUID) error
}

type authzService struct {
	membershipRepo repositories.MembershipRepository
	workspaceRepo  repositories.WorkspaceRepository
	hierarchy      HierarchyResolver
	logger         *zap.Logger
}

// NewAuthzService creates a new authorization service.
func NewAuthzService(
	membershipRepo repositories.MembershipRepository,
	workspaceRepo repositories.WorkspaceRepository,
	hierarchy HierarchyResolver,
	logger *zap.Logger,
) AuthzService {
	return &authzService{
		membershipRepo: membershipRepo,
		workspaceRepo:  workspaceRepo,
		hierarchy:      hierarchy,
		logger:         logger,
	}
}

func (s *authzService) Authorize(ctx context.Context, user *models.User, action Action, ref ResourceRef) error {
	if user.IsSuperuser {
		return nil
	}

	switch ref.Kind {
	case KindWorkspace:
		return s.authorizeWorkspace(ctx, user, action, ref.ID)
	case KindProject:
		resolved, err := s.hierarchy.Resolve(ctx, ref)
		if err != nil {
			return err
		}
		return s.authorizeProject(ctx, user, action, resolved.Project)
	case KindTask, KindSection, KindComment, KindAttachment:
		resolved, err := s.hierarchy.Resolve(ctx, ref)
		if err != nil {
			return err
		}
		return s.authorizeNested(ctx, user, action, resolved)
	default:
		return fmt.Errorf("unknown resource kind %q", ref.Kind)
	}
}

func (s *authzService) authorizeWorkspace(ctx context.Context, user *models.User, action Action, workspaceID uuid.UUID) error {
	switch action {
	case ActionWrite, ActionDelete:
		workspace, err := s.workspaceRepo.Get(ctx, workspaceID)
		if err != nil {
			return err
		}
		if workspace.OwnerID == user.ID {
			return nil
		}
		return apperrors.Denied(apperrors.ReasonNotOwner)
	default: // read, manage-members
		member, err := s.workspaceMember(ctx, workspaceID, user.ID)
		if err != nil {
			return err
		}
		if member == nil {
			return apperrors.Denied(apperrors.ReasonNotAMember)
		}
		return nil
	}
}

func (s *authzService) authorizeProject(ctx context.Context, user *models.User, action Action, project *models.Project) error {
	if action == ActionRead {
		return s.CanReadProject(ctx, user, project)
	}
	// write, delete, manage-members: project owner only
	if project.OwnerID == user.ID {
		return nil
	}
	return apperrors.Denied(apperrors.ReasonNotOwner)
}

func (s *authzService) authorizeNested(ctx context.Context, user *models.User, action Action, resolved *ResolvedResource) error {
	switch action {
	case ActionRead:
		return s.CanReadProject(ctx, user, resolved.Project)
	case ActionWrite:
		// Creating or updating nested resources requires actual project
		// membership; public-visibility-only access is not enough.
		return s.CanCollaborate(ctx, user, resolved.Project)
	case ActionDelete:
		if resolved.AuthorID == user.ID {
			return nil
		}
		if resolved.Project.OwnerID == user.ID {
			return nil
		}
		return apperrors.Denied(apperrors.ReasonNotOwner)
	default:
		return apperrors.Denied(apperrors.ReasonNotOwner)
	}
}

func (s *authzService) AuthorizeProjectCreate(ctx context.Context, user *models.User, workspaceID uuid.UUID) error {
	if user.IsSuperuser {
		return nil
	}
	member, err := s.workspaceMember(ctx, workspaceID, user.ID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperrors.Denied(apperrors.ReasonNotWorkspaceMember)
	}
	return nil
}

func (s *authzService) CanReadProject(ctx context.Context, user *models.User, project *models.Project) error {
	if user.IsSuperuser || project.OwnerID == user.ID {
		return nil
	}

	member, err := s.projectMember(ctx, project.ID, user.ID)
	if err != nil {
		return err
	}
	if member != nil {
		return nil
	}

	if project.IsPrivate {
		return apperrors.Denied(apperrors.ReasonPrivateAndNotMember)
	}

	wsMember, err := s.workspaceMember(ctx, project.WorkspaceID, user.ID)
	if err != nil {
		return err
	}
	if wsMember == nil {
		return apperrors.Denied(apperrors.ReasonNotWorkspaceMember)
	}
	return nil
}

func (s *authzService) CanCollaborate(ctx context.Context, user *models.User, project *models.Project) error {
	if user.IsSuperuser || project.OwnerID == user.ID {
		return nil
	}
	member, err := s.projectMember(ctx, project.ID, user.ID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperrors.Denied(apperrors.ReasonNotAMember)
	}
	return nil
}

func (s *authzService) ValidateAssignee(ctx context.Context, project *models.Project, assigneeID uuid.UUID) error {
	if assigneeID == project.OwnerID {
		return nil
	}
	member, err := s.projectMember(ctx, project.ID, assigneeID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperrors.Denied(apperrors.ReasonAssigneeNotMember)
	}
	return nil
}

// workspaceMember looks up a membership fact, mapping absence to nil rather
// than an error so policy code reads as set membership tests.
func (s *authzService) workspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	member, err := s.membershipRepo.GetWorkspaceMember(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return member, nil
}

func (s *authzService) projectMember(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectMember, error) {
	member, err := s.membershipRepo.GetProjectMember(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return member, nil
}

var _ AuthzService = (*authzService)(nil)
