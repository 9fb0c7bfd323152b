package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/models"
)

func newVisibilityEnv() (*authzEnv, *mockListCache, VisibilityService) {
	env := newAuthzEnv()
	cache := newMockListCache()
	svc := NewVisibilityService(env.projects, env.tasks, env.members, env.workspaces, env.authz, cache, 30*time.Second, zap.NewNop())
	return env, cache, svc
}

func projectIDs(items []*models.ProjectWithWorkspace) map[uuid.UUID]bool {
	ids := make(map[uuid.UUID]bool, len(items))
	for _, p := range items {
		ids[p.ID] = true
	}
	return ids
}

func TestListProjects_UnionWithOverlapNoDuplicates(t *testing.T) {
	env, _, svc := newVisibilityEnv()
	owner := env.user("owner@doit.app")
	user := env.user("user@doit.app")
	ws := env.workspace(owner)
	env.members.addWorkspaceMember(ws.ID, user.ID, models.WorkspaceRoleMember)

	// User owns p1 (owner implies membership, the overlap case), joined p2,
	// and p3 belongs to someone else.
	p1 := env.project(user, ws, true)
	p2 := env.project(owner, ws, true)
	env.members.addProjectMember(p2.ID, user.ID, models.ProjectRoleMember)
	env.project(owner, ws, true) // p3, invisible

	items, total, err := svc.ListProjects(context.Background(), user, nil, 0, 50)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 unique projects, got total=%d len=%d", total, len(items))
	}
	ids := projectIDs(items)
	if !ids[p1.ID] || !ids[p2.ID] {
		t.Errorf("expected p1 and p2 in result, got %v", ids)
	}
}

func TestListProjects_WorkspaceScopedIncludesPublic(t *testing.T) {
	env, _, svc := newVisibilityEnv()
	owner := env.user("owner@doit.app")
	user := env.user("user@doit.app")
	ws := env.workspace(owner)
	env.members.addWorkspaceMember(ws.ID, user.ID, models.WorkspaceRoleMember)

	public := env.project(owner, ws, false)
	env.project(owner, ws, true) // private, not joined

	items, total, err := svc.ListProjects(context.Background(), user, &ws.ID, 0, 50)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected only the public project, got total=%d len=%d", total, len(items))
	}
	if items[0].ID != public.ID {
		t.Errorf("expected public project, got %s", items[0].ID)
	}
	if items[0].WorkspaceName != ws.Name {
		t.Errorf("expected workspace name %q, got %q", ws.Name, items[0].WorkspaceName)
	}
}

func TestListProjects_WorkspaceScopedNonMemberSeesNothing(t *testing.T) {
	env, _, svc := newVisibilityEnv()
	owner := env.user("owner@doit.app")
	outsider := env.user("outsider@doit.app")
	ws := env.workspace(owner)
	env.project(owner, ws, false)
	env.project(owner, ws, true)

	// A non-member browsing the workspace gets the empty set, not an
	// error, and public projects stay hidden from them.
	items, total, err := svc.ListProjects(context.Background(), outsider, &ws.ID, 0, 50)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Errorf("expected empty result for non-member, got total=%d len=%d", total, len(items))
	}
}

func TestListProjects_UninvitedUserSeesNothing(t *testing.T) {
	env, _, svc := newVisibilityEnv()
	owner := env.user("owner@doit.app")
	stranger := env.user("stranger@doit.app")
	ws := env.workspace(owner)
	env.project(owner, ws, false)
	env.project(owner, ws, true)

	items, total, err := svc.ListProjects(context.Background(), stranger, nil, 0, 50)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Errorf("uninvited user should see an empty list, got total=%d len=%d", total, len(items))
	}
}

func TestListProjects_PaginationAfterUnion(t *testing.T) {
	env, _, svc := newVisibilityEnv()
	owner := env.user("owner@doit.app")
	ws := env.workspace(owner)
	for i := 0; i < 5; i++ {
		env.project(owner, ws, true)
	}

	items, total, err := svc.ListProjects(context.Background(), owner, nil, 2, 2)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total must be the union cardinality, got %d", total)
	}
	if len(items) != 2 {
		t.Errorf("expected page of 2, got %d", len(items))
	}

	// Skip past the end yields an empty page, same total.
	items, total, err = svc.ListProjects(context.Background(), owner, nil, 10, 2)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if total != 5 || len(items) != 0 {
		t.Errorf("expected empty page with total 5, got total=%d len=%d", total, len(items))
	}
}

func TestListProjects_SuperuserSeesAll(t *testing.T) {
	env, _, svc := newVisibilityEnv()
	owner := env.user("owner@doit.app")
	super := env.users.add(&models.User{Email: "root@doit.app", IsActive: true, IsSuperuser: true})
	ws := env.workspace(owner)
	env.project(owner, ws, true)
	env.project(owner, ws, false)

	_, total, err := svc.ListProjects(context.Background(), super, nil, 0, 50)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if total != 2 {
		t.Errorf("superuser should see all projects, got total=%d", total)
	}
}

func TestListProjects_SecondCallServedFromCache(t *testing.T) {
	env, cache, svc := newVisibilityEnv()
	owner := env.user("owner@doit.app")
	ws := env.workspace(owner)
	env.project(owner, ws, true)

	ctx := context.Background()
	if _, _, err := svc.ListProjects(ctx, owner, nil, 0, 50); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected 1 cache write, got %d", cache.sets)
	}
	if _, _, err := svc.ListProjects(ctx, owner, nil, 0, 50); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("expected second call to hit the cache, hits=%d", cache.hits)
	}
}

func TestListProjects_CacheFailureDegradesToComputation(t *testing.T) {
	env, cache, svc := newVisibilityEnv()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	owner := env.user("owner@doit.app")
	ws := env.workspace(owner)
	p := env.project(owner, ws, true)

	items, total, err := svc.ListProjects(context.Background(), owner, nil, 0, 50)
	if err != nil {
		t.Fatalf("cache failure must not fail the request: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != p.ID {
		t.Errorf("expected the owned project despite cache failure")
	}
}

func TestListTasks_CrossProjectExcludesPublicNotJoined(t *testing.T) {
	env, _, svc := newVisibilityEnv()
	owner := env.user("owner@doit.app")
	user := env.user("user@doit.app")
	ws := env.workspace(owner)
	env.members.addWorkspaceMember(ws.ID, user.ID, models.WorkspaceRoleMember)

	joined := env.project(owner, ws, false)
	env.members.addProjectMember(joined.ID, user.ID, models.ProjectRoleMember)
	publicNotJoined := env.project(owner, ws, false)

	inJoined := env.tasks.add(&models.Task{ProjectID: joined.ID, OwnerID: owner.ID, Title: "visible"})
	env.tasks.add(&models.Task{ProjectID: publicNotJoined.ID, OwnerID: owner.ID, Title: "hidden"})

	items, total, err := svc.ListTasks(context.Background(), user, nil, nil, 0, 50)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected only the joined project's task, got total=%d len=%d", total, len(items))
	}
	if items[0].ID != inJoined.ID {
		t.Errorf("expected task %s, got %s", inJoined.ID, items[0].ID)
	}
	if items[0].ProjectName != joined.Name {
		t.Errorf("expected project name enrichment %q, got %q", joined.Name, items[0].ProjectName)
	}
}

func TestListTasks_ProjectScopedAppliesReadRule(t *testing.T) {
	env, _, svc := newVisibilityEnv()
	owner := env.user("owner@doit.app")
	wsMember := env.user("ws-member@doit.app")
	outsider := env.user("outsider@doit.app")
	ws := env.workspace(owner)
	env.members.addWorkspaceMember(ws.ID, wsMember.ID, models.WorkspaceRoleMember)
	public := env.project(owner, ws, false)
	env.tasks.add(&models.Task{ProjectID: public.ID, OwnerID: owner.ID, Title: "t"})

	ctx := context.Background()

	// Public project tasks are readable by workspace members via the scoped view.
	_, total, err := svc.ListTasks(ctx, wsMember, &public.ID, nil, 0, 50)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 task, got %d", total)
	}

	_, _, err = svc.ListTasks(ctx, outsider, &public.ID, nil, 0, 50)
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for outsider, got %v", err)
	}
}

func TestListTasks_AssigneeFilter(t *testing.T) {
	env, _, svc := newVisibilityEnv()
	owner := env.user("owner@doit.app")
	ws := env.workspace(owner)
	project := env.project(owner, ws, true)

	env.tasks.add(&models.Task{ProjectID: project.ID, OwnerID: owner.ID, Title: "unassigned"})
	assigned := env.tasks.add(&models.Task{ProjectID: project.ID, OwnerID: owner.ID, AssigneeID: &owner.ID, Title: "mine"})

	items, total, err := svc.ListTasks(context.Background(), owner, &project.ID, &owner.ID, 0, 50)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != assigned.ID {
		t.Errorf("expected only the assigned task, got total=%d", total)
	}
}
