package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/models"
)

type invitationEnv struct {
	*authzEnv
	invitations *fakeInvitationRepo
	mailer      *mockMailer
	svc         *invitationService
	now         time.Time
}

func newInvitationEnv() *invitationEnv {
	base := newAuthzEnv()
	invitations := newFakeInvitationRepo(base.members)
	mailer := &mockMailer{}
	svc := NewInvitationService(invitations, base.members, base.workspaces, base.users,
		mailer, "http://localhost:5173", 7, zap.NewNop()).(*invitationService)

	env := &invitationEnv{
		authzEnv:    base,
		invitations: invitations,
		mailer:      mailer,
		svc:         svc,
		now:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	svc.now = func() time.Time { return env.now }
	return env
}

func TestIssue_CreatesPendingInvitationWithExpiry(t *testing.T) {
	env := newInvitationEnv()
	owner := env.user("owner@doit.app")
	ws := env.workspace(owner)

	inv, err := env.svc.Issue(context.Background(), owner, ws.ID, "new@doit.app", models.WorkspaceRoleMember)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if inv.Status != models.InvitationPending {
		t.Errorf("expected pending status, got %q", inv.Status)
	}
	if len(inv.Token) != 32 {
		t.Errorf("expected 32-char hex token, got %q", inv.Token)
	}
	want := env.now.UTC().Add(7 * 24 * time.Hour)
	if !inv.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, inv.ExpiresAt)
	}
}

func TestIssue_SendsInvitationEmail(t *testing.T) {
	env := newInvitationEnv()
	env.mailer.enabled = true
	env.mailer.notifyCh = make(chan sentMail, 1)
	owner := env.user("owner@doit.app")
	ws := env.workspace(owner)

	inv, err := env.svc.Issue(context.Background(), owner, ws.ID, "new@doit.app", models.WorkspaceRoleMember)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	select {
	case mail := <-env.mailer.notifyCh:
		if mail.to != "new@doit.app" {
			t.Errorf("expected mail to invitee, got %q", mail.to)
		}
		if !strings.Contains(mail.body, inv.Token) {
			t.Error("expected redemption link with token in mail body")
		}
	case <-time.After(time.Second):
		t.Fatal("expected invitation email to be sent")
	}
}

func TestIssue_RequiresInviterMembership(t *testing.T) {
	env := newInvitationEnv()
	owner := env.user("owner@doit.app")
	outsider := env.user("outsider@doit.app")
	ws := env.workspace(owner)

	_, err := env.svc.Issue(context.Background(), outsider, ws.ID, "new@doit.app", models.WorkspaceRoleMember)
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestIssue_ExistingMemberConflicts(t *testing.T) {
	env := newInvitationEnv()
	owner := env.user("owner@doit.app")
	member := env.user("member@doit.app")
	ws := env.workspace(owner)
	env.members.addWorkspaceMember(ws.ID, member.ID, models.WorkspaceRoleMember)

	_, err := env.svc.Issue(context.Background(), owner, ws.ID, member.Email, models.WorkspaceRoleMember)
	if !errors.Is(err, apperrors.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestIssue_PendingInvitationConflicts(t *testing.T) {
	env := newInvitationEnv()
	owner := env.user("owner@doit.app")
	ws := env.workspace(owner)

	ctx := context.Background()
	if _, err := env.svc.Issue(ctx, owner, ws.ID, "new@doit.app", models.WorkspaceRoleMember); err != nil {
		t.Fatalf("first Issue failed: %v", err)
	}
	_, err := env.svc.Issue(ctx, owner, ws.ID, "new@doit.app", models.WorkspaceRoleMember)
	if !errors.Is(err, apperrors.ErrAlreadyInvited) {
		t.Fatalf("expected ErrAlreadyInvited, got %v", err)
	}
}

func TestIssue_ExpiredPendingReplacedWithFreshToken(t *testing.T) {
	env := newInvitationEnv()
	owner := env.user("owner@doit.app")
	ws := env.workspace(owner)

	ctx := context.Background()
	first, err := env.svc.Issue(ctx, owner, ws.ID, "new@doit.app", models.WorkspaceRoleMember)
	if err != nil {
		t.Fatalf("first Issue failed: %v", err)
	}

	// Past the deadline the stale invitation is replaced, not a conflict.
	env.now = env.now.Add(8 * 24 * time.Hour)
	second, err := env.svc.Issue(ctx, owner, ws.ID, "new@doit.app", models.WorkspaceRoleMember)
	if err != nil {
		t.Fatalf("re-issue after expiry failed: %v", err)
	}
	if second.Token == first.Token {
		t.Error("expected a fresh token on re-issue")
	}
	if _, err := env.invitations.GetByToken(ctx, first.Token); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected stale invitation to be deleted, got %v", err)
	}
}

func TestIssue_InvalidRoleRejected(t *testing.T) {
	env := newInvitationEnv()
	owner := env.user("owner@doit.app")
	ws := env.workspace(owner)

	_, err := env.svc.Issue(context.Background(), owner, ws.ID, "new@doit.app", "admin")
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for bad role, got %v", err)
	}
}

func TestAccept_GrantsMembershipAtInvitedRole(t *testing.T) {
	env := newInvitationEnv()
	owner := env.user("owner@doit.app")
	invitee := env.user("invitee@doit.app")
	ws := env.workspace(owner)

	ctx := context.Background()
	inv, err := env.svc.Issue(ctx, owner, ws.ID, invitee.Email, models.WorkspaceRoleMember)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	accepted, err := env.svc.Accept(ctx, invitee, inv.Token)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if accepted.Status != models.InvitationAccepted {
		t.Errorf("expected accepted status, got %q", accepted.Status)
	}

	member, err := env.members.GetWorkspaceMember(ctx, ws.ID, invitee.ID)
	if err != nil {
		t.Fatalf("expected membership after accept: %v", err)
	}
	if member.Role != models.WorkspaceRoleMember {
		t.Errorf("expected invited role, got %q", member.Role)
	}
}

func TestAccept_ExpiredFailsRegardlessOfStatus(t *testing.T) {
	env := newInvitationEnv()
	owner := env.user("owner@doit.app")
	invitee := env.user("invitee@doit.app")
	ws := env.workspace(owner)

	ctx := context.Background()
	inv, err := env.svc.Issue(ctx, owner, ws.ID, invitee.Email, models.WorkspaceRoleMember)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	env.now = env.now.Add(7*24*time.Hour + time.Minute)
	if _, err := env.svc.Accept(ctx, invitee, inv.Token); !errors.Is(err, apperrors.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	// The invitation stays pending; expiry is derived, never stored.
	stored, _ := env.invitations.GetByToken(ctx, inv.Token)
	if stored.Status != models.InvitationPending {
		t.Errorf("expiry must not mutate status, got %q", stored.Status)
	}

	// Once past the deadline, expiry also overrides a stored accepted
	// status: the answer is ErrExpired, never ErrInvalidState.
	env.invitations.invitations[inv.ID].Status = models.InvitationAccepted
	if _, err := env.svc.Accept(ctx, invitee, inv.Token); !errors.Is(err, apperrors.ErrExpired) {
		t.Errorf("expected ErrExpired for accepted+expired, got %v", err)
	}
	if _, err := env.svc.Inspect(ctx, inv.Token); !errors.Is(err, apperrors.ErrExpired) {
		t.Errorf("expected ErrExpired from Inspect for accepted+expired, got %v", err)
	}
}

func TestAccept_AlreadyAcceptedIsInvalidState(t *testing.T) {
	env := newInvitationEnv()
	owner := env.user("owner@doit.app")
	invitee := env.user("invitee@doit.app")
	ws := env.workspace(owner)

	ctx := context.Background()
	inv, _ := env.svc.Issue(ctx, owner, ws.ID, invitee.Email, models.WorkspaceRoleMember)
	if _, err := env.svc.Accept(ctx, invitee, inv.Token); err != nil {
		t.Fatalf("first Accept failed: %v", err)
	}
	if _, err := env.svc.Accept(ctx, invitee, inv.Token); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second accept, got %v", err)
	}
}

func TestAccept_ExistingMemberIsIdempotent(t *testing.T) {
	env := newInvitationEnv()
	owner := env.user("owner@doit.app")
	invitee := env.user("invitee@doit.app")
	ws := env.workspace(owner)

	ctx := context.Background()
	inv, err := env.svc.Issue(ctx, owner, ws.ID, invitee.Email, models.WorkspaceRoleOwner)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Invitee joins through some other path before accepting.
	env.members.addWorkspaceMember(ws.ID, invitee.ID, models.WorkspaceRoleMember)

	if _, err := env.svc.Accept(ctx, invitee, inv.Token); err != nil {
		t.Fatalf("accept with existing membership must succeed: %v", err)
	}
	// Existing membership wins; the upsert does not overwrite the role.
	member, _ := env.members.GetWorkspaceMember(ctx, ws.ID, invitee.ID)
	if member.Role != models.WorkspaceRoleMember {
		t.Errorf("expected original role preserved, got %q", member.Role)
	}
}

func TestInspect_ResolvesToken(t *testing.T) {
	env := newInvitationEnv()
	owner := env.user("owner@doit.app")
	ws := env.workspace(owner)

	ctx := context.Background()
	inv, _ := env.svc.Issue(ctx, owner, ws.ID, "new@doit.app", models.WorkspaceRoleMember)

	got, err := env.svc.Inspect(ctx, inv.Token)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if got.WorkspaceID != ws.ID || got.Email != "new@doit.app" {
		t.Errorf("unexpected invitation returned: %+v", got)
	}

	if _, err := env.svc.Inspect(ctx, "no-such-token"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown token, got %v", err)
	}
}
