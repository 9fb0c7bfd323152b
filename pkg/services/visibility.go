package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/models"
	"github.com/doit-inc/doit-engine/pkg/repositories"
)

// VisibilityService resolves listing queries to exactly the subset the
// authorization engine would approve for read, using set-based logic instead
// of a per-item Authorize call. Results go through the read-through list
// cache; a cache failure degrades to direct computation.
type VisibilityService interface {
	// ListProjects returns the projects the user may read, optionally scoped
	// to a workspace. For non-superusers the result is the de-duplicated
	// union {owned} ∪ {member-of} ∪ {public in member workspaces}; pagination
	// is applied only after the union is materialized and the returned total
	// is the union's cardinality.
	ListProjects(ctx context.Context, user *models.User, workspaceID *uuid.UUID, skip, limit int) ([]*models.ProjectWithWorkspace, int, error)

	// ListTasks returns readable tasks. With a project filter the project
	// read rule is applied once up front. Without one, only tasks from
	// owned or explicitly joined projects are included: public projects the
	// user never joined stay out of the cross-project view.
	ListTasks(ctx context.Context, user *models.User, projectID, assigneeID *uuid.UUID, skip, limit int) ([]*models.TaskWithProject, int, error)
}

type visibilityService struct {
	projectRepo    repositories.ProjectRepository
	taskRepo       repositories.TaskRepository
	membershipRepo repositories.MembershipRepository
	workspaceRepo  repositories.WorkspaceRepository
	authz          AuthzService
	cache          ListCache
	cacheTTL       time.Duration
	logger         *zap.Logger
}

// NewVisibilityService creates a new visibility-filtered list resolver.
func NewVisibilityService(
	projectRepo repositories.ProjectRepository,
	taskRepo repositories.TaskRepository,
	membershipRepo repositories.MembershipRepository,
	workspaceRepo repositories.WorkspaceRepository,
	authz AuthzService,
	cache ListCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) VisibilityService {
	return &visibilityService{
		projectRepo:    projectRepo,
		taskRepo:       taskRepo,
		membershipRepo: membershipRepo,
		workspaceRepo:  workspaceRepo,
		authz:          authz,
		cache:          cache,
		cacheTTL:       cacheTTL,
		logger:         logger,
	}
}

type cachedProjectList struct {
	Items []*models.ProjectWithWorkspace `json:"items"`
	Total int                            `json:"total"`
}

type cachedTaskList struct {
	Items []*models.TaskWithProject `json:"items"`
	Total int                       `json:"total"`
}

func (s *visibilityService) ListProjects(ctx context.Context, user *models.User, workspaceID *uuid.UUID, skip, limit int) ([]*models.ProjectWithWorkspace, int, error) {
	key := fmt.Sprintf("lists:projects:%s:%s:%d:%d", user.ID, uuidOrAll(workspaceID), skip, limit)

	var cached cachedProjectList
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Debug("List cache unavailable, computing directly", zap.Error(err))
	} else if hit {
		return cached.Items, cached.Total, nil
	}

	projects, total, err := s.visibleProjects(ctx, user, workspaceID, skip, limit)
	if err != nil {
		return nil, 0, err
	}

	items, err := s.enrichProjects(ctx, projects)
	if err != nil {
		return nil, 0, err
	}

	if err := s.cache.Set(ctx, key, cachedProjectList{Items: items, Total: total}, s.cacheTTL); err != nil {
		s.logger.Debug("Failed to populate list cache", zap.Error(err))
	}
	return items, total, nil
}

// visibleProjects materializes the visibility union and applies pagination
// afterwards. Pushing skip/limit below the union would double-count overlap
// between the owned and member sets.
func (s *visibilityService) visibleProjects(ctx context.Context, user *models.User, workspaceID *uuid.UUID, skip, limit int) ([]*models.Project, int, error) {
	if user.IsSuperuser {
		all, err := s.projectRepo.ListAll(ctx, workspaceID)
		if err != nil {
			return nil, 0, err
		}
		return paginate(all, skip, limit), len(all), nil
	}

	memberIDs, err := s.membershipRepo.ProjectIDsForUser(ctx, user.ID)
	if err != nil {
		return nil, 0, err
	}
	memberSet := make(map[uuid.UUID]bool, len(memberIDs))
	for _, id := range memberIDs {
		memberSet[id] = true
	}

	var union []*models.Project
	if workspaceID != nil {
		// Scoped browse: public projects are visible to workspace members
		// only. A non-member gets the empty union, not a denial; listing
		// never errors on access, it just shows nothing.
		wsMember, err := s.isWorkspaceMember(ctx, *workspaceID, user.ID)
		if err != nil {
			return nil, 0, err
		}
		all, err := s.projectRepo.ListByWorkspace(ctx, *workspaceID)
		if err != nil {
			return nil, 0, err
		}
		for _, p := range all {
			if p.OwnerID == user.ID || memberSet[p.ID] || (!p.IsPrivate && wsMember) {
				union = append(union, p)
			}
		}
	} else {
		owned, err := s.projectRepo.ListOwnedByUser(ctx, user.ID)
		if err != nil {
			return nil, 0, err
		}
		member, err := s.projectRepo.ListByIDs(ctx, memberIDs)
		if err != nil {
			return nil, 0, err
		}
		seen := make(map[uuid.UUID]bool, len(owned)+len(member))
		for _, p := range append(owned, member...) {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			union = append(union, p)
		}
	}

	return paginate(union, skip, limit), len(union), nil
}

func (s *visibilityService) isWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	_, err := s.membershipRepo.GetWorkspaceMember(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *visibilityService) enrichProjects(ctx context.Context, projects []*models.Project) ([]*models.ProjectWithWorkspace, error) {
	names := make(map[uuid.UUID]string)
	items := make([]*models.ProjectWithWorkspace, 0, len(projects))
	for _, p := range projects {
		name, ok := names[p.WorkspaceID]
		if !ok {
			workspace, err := s.workspaceRepo.Get(ctx, p.WorkspaceID)
			if err != nil {
				return nil, err
			}
			name = workspace.Name
			names[p.WorkspaceID] = name
		}
		items = append(items, &models.ProjectWithWorkspace{Project: *p, WorkspaceName: name})
	}
	return items, nil
}

func (s *visibilityService) ListTasks(ctx context.Context, user *models.User, projectID, assigneeID *uuid.UUID, skip, limit int) ([]*models.TaskWithProject, int, error) {
	key := fmt.Sprintf("lists:tasks:%s:%s:%s:%d:%d",
		user.ID, uuidOrAll(projectID), uuidOrAll(assigneeID), skip, limit)

	var cached cachedTaskList
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Debug("List cache unavailable, computing directly", zap.Error(err))
	} else if hit {
		return cached.Items, cached.Total, nil
	}

	items, total, err := s.visibleTasks(ctx, user, projectID, assigneeID, skip, limit)
	if err != nil {
		return nil, 0, err
	}

	if err := s.cache.Set(ctx, key, cachedTaskList{Items: items, Total: total}, s.cacheTTL); err != nil {
		s.logger.Debug("Failed to populate list cache", zap.Error(err))
	}
	return items, total, nil
}

func (s *visibilityService) visibleTasks(ctx context.Context, user *models.User, projectID, assigneeID *uuid.UUID, skip, limit int) ([]*models.TaskWithProject, int, error) {
	if projectID != nil {
		project, err := s.projectRepo.Get(ctx, *projectID)
		if err != nil {
			return nil, 0, err
		}
		if err := s.authz.CanReadProject(ctx, user, project); err != nil {
			return nil, 0, err
		}
		tasks, err := s.taskRepo.ListByProject(ctx, *projectID, assigneeID)
		if err != nil {
			return nil, 0, err
		}
		page := paginate(tasks, skip, limit)
		items := make([]*models.TaskWithProject, 0, len(page))
		for _, t := range page {
			items = append(items, &models.TaskWithProject{
				Task: *t, ProjectName: project.Name, ProjectColor: project.Color,
			})
		}
		return items, len(tasks), nil
	}

	var accessible []*models.Project
	if user.IsSuperuser {
		all, err := s.projectRepo.ListAll(ctx, nil)
		if err != nil {
			return nil, 0, err
		}
		accessible = all
	} else {
		memberIDs, err := s.membershipRepo.ProjectIDsForUser(ctx, user.ID)
		if err != nil {
			return nil, 0, err
		}
		owned, err := s.projectRepo.ListOwnedByUser(ctx, user.ID)
		if err != nil {
			return nil, 0, err
		}
		member, err := s.projectRepo.ListByIDs(ctx, memberIDs)
		if err != nil {
			return nil, 0, err
		}
		seen := make(map[uuid.UUID]bool, len(owned)+len(member))
		for _, p := range append(owned, member...) {
			if !seen[p.ID] {
				seen[p.ID] = true
				accessible = append(accessible, p)
			}
		}
	}

	byID := make(map[uuid.UUID]*models.Project, len(accessible))
	ids := make([]uuid.UUID, 0, len(accessible))
	for _, p := range accessible {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	tasks, err := s.taskRepo.ListByProjects(ctx, ids, assigneeID)
	if err != nil {
		return nil, 0, err
	}

	page := paginate(tasks, skip, limit)
	items := make([]*models.TaskWithProject, 0, len(page))
	for _, t := range page {
		item := &models.TaskWithProject{Task: *t}
		if p, ok := byID[t.ProjectID]; ok {
			item.ProjectName = p.Name
			item.ProjectColor = p.Color
		}
		items = append(items, item)
	}
	return items, len(tasks), nil
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return items[skip:end]
}

func uuidOrAll(id *uuid.UUID) string {
	if id == nil {
		return "all"
	}
	return id.String()
}

var _ VisibilityService = (*visibilityService)(nil)
