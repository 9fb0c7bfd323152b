package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/models"
)

// Map-backed fakes for the repository interfaces. Each fake keeps its rows in
// memory and honors the same error contracts as the real repositories
// (absence is apperrors.ErrNotFound, duplicate membership is ErrAlreadyMember).

func memberKey(a, b uuid.UUID) string {
	return fmt.Sprintf("%s|%s", a, b)
}

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserRepo) add(u *models.User) *models.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

type fakeMembershipRepo struct {
	wsMembers   map[string]*models.WorkspaceMember
	projMembers map[string]*models.ProjectMember
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{
		wsMembers:   make(map[string]*models.WorkspaceMember),
		projMembers: make(map[string]*models.ProjectMember),
	}
}

func (f *fakeMembershipRepo) addWorkspaceMember(workspaceID, userID uuid.UUID, role string) {
	f.wsMembers[memberKey(workspaceID, userID)] = &models.WorkspaceMember{
		WorkspaceID: workspaceID, UserID: userID, Role: role,
	}
}

func (f *fakeMembershipRepo) addProjectMember(projectID, userID uuid.UUID, role string) {
	f.projMembers[memberKey(projectID, userID)] = &models.ProjectMember{
		ProjectID: projectID, UserID: userID, Role: role,
	}
}

func (f *fakeMembershipRepo) GetWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	m, ok := f.wsMembers[memberKey(workspaceID, userID)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return m, nil
}

func (f *fakeMembershipRepo) UpsertWorkspaceMember(ctx context.Context, m *models.WorkspaceMember) error {
	key := memberKey(m.WorkspaceID, m.UserID)
	if _, ok := f.wsMembers[key]; ok {
		return nil
	}
	f.wsMembers[key] = m
	return nil
}

func (f *fakeMembershipRepo) ListWorkspaceMembers(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]*models.WorkspaceMemberInfo, int, error) {
	var infos []*models.WorkspaceMemberInfo
	for _, m := range f.wsMembers {
		if m.WorkspaceID == workspaceID {
			infos = append(infos, &models.WorkspaceMemberInfo{ID: m.UserID, Role: m.Role})
		}
	}
	return infos, len(infos), nil
}

func (f *fakeMembershipRepo) GetProjectMember(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectMember, error) {
	m, ok := f.projMembers[memberKey(projectID, userID)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return m, nil
}

func (f *fakeMembershipRepo) AddProjectMember(ctx context.Context, m *models.ProjectMember) error {
	key := memberKey(m.ProjectID, m.UserID)
	if _, ok := f.projMembers[key]; ok {
		return apperrors.ErrAlreadyMember
	}
	f.projMembers[key] = m
	return nil
}

func (f *fakeMembershipRepo) ListProjectMembers(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMemberInfo, error) {
	var infos []*models.ProjectMemberInfo
	for _, m := range f.projMembers {
		if m.ProjectID == projectID {
			infos = append(infos, &models.ProjectMemberInfo{ID: m.UserID, Role: m.Role, ProjectID: projectID})
		}
	}
	return infos, nil
}

func (f *fakeMembershipRepo) ProjectIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, m := range f.projMembers {
		if m.UserID == userID {
			ids = append(ids, m.ProjectID)
		}
	}
	return ids, nil
}

type fakeWorkspaceRepo struct {
	workspaces map[uuid.UUID]*models.Workspace
	members    *fakeMembershipRepo
}

func newFakeWorkspaceRepo(members *fakeMembershipRepo) *fakeWorkspaceRepo {
	return &fakeWorkspaceRepo{workspaces: make(map[uuid.UUID]*models.Workspace), members: members}
}

func (f *fakeWorkspaceRepo) add(w *models.Workspace) *models.Workspace {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	f.workspaces[w.ID] = w
	return w
}

func (f *fakeWorkspaceRepo) Create(ctx context.Context, w *models.Workspace) error {
	f.add(w)
	f.members.addWorkspaceMember(w.ID, w.OwnerID, models.WorkspaceRoleOwner)
	return nil
}

func (f *fakeWorkspaceRepo) Get(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	w, ok := f.workspaces[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return w, nil
}

func (f *fakeWorkspaceRepo) Update(ctx context.Context, w *models.Workspace) error {
	if _, ok := f.workspaces[w.ID]; !ok {
		return apperrors.ErrNotFound
	}
	f.workspaces[w.ID] = w
	return nil
}

func (f *fakeWorkspaceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.workspaces[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.workspaces, id)
	return nil
}

func (f *fakeWorkspaceRepo) ListForUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.Workspace, int, error) {
	var out []*models.Workspace
	for _, w := range f.workspaces {
		if _, err := f.members.GetWorkspaceMember(ctx, w.ID, userID); err == nil {
			out = append(out, w)
		}
	}
	return out, len(out), nil
}

func (f *fakeWorkspaceRepo) ListAll(ctx context.Context, skip, limit int) ([]*models.Workspace, int, error) {
	var out []*models.Workspace
	for _, w := range f.workspaces {
		out = append(out, w)
	}
	return out, len(out), nil
}

type fakeProjectRepo struct {
	projects map[uuid.UUID]*models.Project
	members  *fakeMembershipRepo
}

func newFakeProjectRepo(members *fakeMembershipRepo) *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[uuid.UUID]*models.Project), members: members}
}

func (f *fakeProjectRepo) add(p *models.Project) *models.Project {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.projects[p.ID] = p
	return p
}

func (f *fakeProjectRepo) Create(ctx context.Context, p *models.Project) error {
	f.add(p)
	f.members.addProjectMember(p.ID, p.OwnerID, models.ProjectRoleOwner)
	return nil
}

func (f *fakeProjectRepo) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (f *fakeProjectRepo) Update(ctx context.Context, p *models.Project) error {
	if _, ok := f.projects[p.ID]; !ok {
		return apperrors.ErrNotFound
	}
	f.projects[p.ID] = p
	return nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeProjectRepo) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range f.projects {
		if p.WorkspaceID == workspaceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) ListOwnedByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range f.projects {
		if p.OwnerID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Project, error) {
	var out []*models.Project
	for _, id := range ids {
		if p, ok := f.projects[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) ListAll(ctx context.Context, workspaceID *uuid.UUID) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range f.projects {
		if workspaceID == nil || p.WorkspaceID == *workspaceID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSectionRepo struct {
	sections map[uuid.UUID]*models.Section
}

func newFakeSectionRepo() *fakeSectionRepo {
	return &fakeSectionRepo{sections: make(map[uuid.UUID]*models.Section)}
}

func (f *fakeSectionRepo) Create(ctx context.Context, s *models.Section) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.sections[s.ID] = s
	return nil
}

func (f *fakeSectionRepo) Get(ctx context.Context, id uuid.UUID) (*models.Section, error) {
	s, ok := f.sections[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s, nil
}

func (f *fakeSectionRepo) Update(ctx context.Context, s *models.Section) error {
	if _, ok := f.sections[s.ID]; !ok {
		return apperrors.ErrNotFound
	}
	f.sections[s.ID] = s
	return nil
}

func (f *fakeSectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.sections[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.sections, id)
	return nil
}

func (f *fakeSectionRepo) ListByProject(ctx context.Context, projectID uuid.UUID, skip, limit int) ([]*models.Section, int, error) {
	var out []*models.Section
	for _, s := range f.sections {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

type fakeTaskRepo struct {
	tasks map[uuid.UUID]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*models.Task)}
}

func (f *fakeTaskRepo) add(t *models.Task) *models.Task {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = models.TaskPriorityMedium
	}
	f.tasks[t.ID] = t
	return t
}

func (f *fakeTaskRepo) Create(ctx context.Context, t *models.Task) error {
	f.add(t)
	return nil
}

func (f *fakeTaskRepo) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, t *models.Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return apperrors.ErrNotFound
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.tasks[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskRepo) matches(t *models.Task, assigneeID *uuid.UUID) bool {
	if assigneeID == nil {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == *assigneeID
}

func (f *fakeTaskRepo) ListByProject(ctx context.Context, projectID uuid.UUID, assigneeID *uuid.UUID) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range f.tasks {
		if t.ProjectID == projectID && f.matches(t, assigneeID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) ListByProjects(ctx context.Context, projectIDs []uuid.UUID, assigneeID *uuid.UUID) ([]*models.Task, error) {
	allowed := make(map[uuid.UUID]bool, len(projectIDs))
	for _, id := range projectIDs {
		allowed[id] = true
	}
	var out []*models.Task
	for _, t := range f.tasks {
		if allowed[t.ProjectID] && f.matches(t, assigneeID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) ListAll(ctx context.Context, assigneeID *uuid.UUID) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range f.tasks {
		if f.matches(t, assigneeID) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeCommentRepo struct {
	comments map[uuid.UUID]*models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[uuid.UUID]*models.Comment)}
}

func (f *fakeCommentRepo) Create(ctx context.Context, c *models.Comment) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.comments[c.ID] = c
	return nil
}

func (f *fakeCommentRepo) Get(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

func (f *fakeCommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.comments[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentRepo) ListByTask(ctx context.Context, taskID uuid.UUID, skip, limit int) ([]*models.CommentWithAuthor, int, error) {
	var out []*models.CommentWithAuthor
	for _, c := range f.comments {
		if c.TaskID == taskID {
			out = append(out, &models.CommentWithAuthor{Comment: *c})
		}
	}
	return out, len(out), nil
}

type fakeAttachmentRepo struct {
	attachments map[uuid.UUID]*models.Attachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[uuid.UUID]*models.Attachment)}
}

func (f *fakeAttachmentRepo) Create(ctx context.Context, a *models.Attachment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.attachments[a.ID] = a
	return nil
}

func (f *fakeAttachmentRepo) Get(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	a, ok := f.attachments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return a, nil
}

func (f *fakeAttachmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.attachments[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.attachments, id)
	return nil
}

func (f *fakeAttachmentRepo) ListByTask(ctx context.Context, taskID uuid.UUID, skip, limit int) ([]*models.Attachment, int, error) {
	var out []*models.Attachment
	for _, a := range f.attachments {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (f *fakeAttachmentRepo) LinkToComment(ctx context.Context, attachmentID, commentID, taskID uuid.UUID) error {
	a, ok := f.attachments[attachmentID]
	if !ok || a.TaskID != taskID {
		return apperrors.ErrNotFound
	}
	a.CommentID = &commentID
	return nil
}

type fakeInvitationRepo struct {
	invitations map[uuid.UUID]*models.Invitation
	members     *fakeMembershipRepo
	createErr   error
}

func newFakeInvitationRepo(members *fakeMembershipRepo) *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: make(map[uuid.UUID]*models.Invitation), members: members}
}

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *models.Invitation) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.invitations {
		if existing.Token == inv.Token {
			return apperrors.ErrConflict
		}
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	cp := *inv
	f.invitations[inv.ID] = &cp
	return nil
}

func (f *fakeInvitationRepo) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	for _, inv := range f.invitations {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeInvitationRepo) GetPending(ctx context.Context, workspaceID uuid.UUID, email string) (*models.Invitation, error) {
	for _, inv := range f.invitations {
		if inv.WorkspaceID == workspaceID && inv.Email == email && inv.Status == models.InvitationPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeInvitationRepo) Redeem(ctx context.Context, id uuid.UUID, member *models.WorkspaceMember) error {
	inv, ok := f.invitations[id]
	if !ok || inv.Status != models.InvitationPending {
		return apperrors.ErrInvalidState
	}
	inv.Status = models.InvitationAccepted
	return f.members.UpsertWorkspaceMember(ctx, member)
}

func (f *fakeInvitationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.invitations[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.invitations, id)
	return nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

// mockMailer records sent mail. When notifyCh is non-nil every Send also
// signals the channel so tests can wait for the background goroutine.
type mockMailer struct {
	mu       sync.Mutex
	enabled  bool
	sent     []sentMail
	notifyCh chan sentMail
}

func (m *mockMailer) Send(to, subject, htmlBody string) error {
	mail := sentMail{to: to, subject: subject, body: htmlBody}
	m.mu.Lock()
	m.sent = append(m.sent, mail)
	m.mu.Unlock()
	if m.notifyCh != nil {
		m.notifyCh <- mail
	}
	return nil
}

func (m *mockMailer) Enabled() bool { return m.enabled }

// mockListCache is an in-memory ListCache with optional forced failures.
type mockListCache struct {
	entries map[string][]byte
	getErr  error
	setErr  error
	hits    int
	sets    int
}

func newMockListCache() *mockListCache {
	return &mockListCache{entries: make(map[string][]byte)}
}

func (c *mockListCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	c.hits++
	return true, nil
}

func (c *mockListCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	c.sets++
	return nil
}
