package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/models"
)

func newWorkspaceEnv() (*authzEnv, WorkspaceService) {
	env := newAuthzEnv()
	svc := NewWorkspaceService(env.workspaces, env.members, env.authz, zap.NewNop())
	return env, svc
}

func TestWorkspaceCreate_OwnerGetsMembership(t *testing.T) {
	env, svc := newWorkspaceEnv()
	user := env.user("founder@doit.app")

	ws, err := svc.Create(context.Background(), user, WorkspaceCreate{Name: "acme"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ws.OwnerID != user.ID {
		t.Errorf("expected creator as owner")
	}

	member, err := env.members.GetWorkspaceMember(context.Background(), ws.ID, user.ID)
	if err != nil {
		t.Fatalf("expected owner membership row: %v", err)
	}
	if member.Role != models.WorkspaceRoleOwner {
		t.Errorf("expected owner role, got %q", member.Role)
	}
}

func TestWorkspaceCreate_NameRequired(t *testing.T) {
	env, svc := newWorkspaceEnv()
	user := env.user("founder@doit.app")

	_, err := svc.Create(context.Background(), user, WorkspaceCreate{})
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestWorkspaceUpdate_MemberDenied(t *testing.T) {
	env, svc := newWorkspaceEnv()
	owner := env.user("owner@doit.app")
	member := env.user("member@doit.app")
	ws := env.workspace(owner)
	env.members.addWorkspaceMember(ws.ID, member.ID, models.WorkspaceRoleMember)

	name := "renamed"
	_, err := svc.Update(context.Background(), member, ws.ID, WorkspaceUpdate{Name: &name})
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestWorkspaceList_MembershipScoped(t *testing.T) {
	env, svc := newWorkspaceEnv()
	owner := env.user("owner@doit.app")
	other := env.user("other@doit.app")
	env.workspace(owner)
	env.workspace(other)

	_, total, err := svc.List(context.Background(), owner, 0, 50)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected only own workspace, got %d", total)
	}
}

func TestWorkspaceListMembers_RequiresMembership(t *testing.T) {
	env, svc := newWorkspaceEnv()
	owner := env.user("owner@doit.app")
	outsider := env.user("outsider@doit.app")
	ws := env.workspace(owner)

	_, _, err := svc.ListMembers(context.Background(), outsider, ws.ID, 0, 50)
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	members, total, err := svc.ListMembers(context.Background(), owner, ws.ID, 0, 50)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if total != 1 || len(members) != 1 {
		t.Errorf("expected the owner row, got total=%d", total)
	}
}

func TestWorkspaceDelete_OwnerOnly(t *testing.T) {
	env, svc := newWorkspaceEnv()
	owner := env.user("owner@doit.app")
	member := env.user("member@doit.app")
	ws := env.workspace(owner)
	env.members.addWorkspaceMember(ws.ID, member.ID, models.WorkspaceRoleMember)

	if err := svc.Delete(context.Background(), member, ws.ID); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if err := svc.Delete(context.Background(), owner, ws.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
}
