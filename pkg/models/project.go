package models

import (
	"time"

	"github.com/google/uuid"
)

// Project belongs to a workspace. WorkspaceID is immutable after creation.
// Private projects are visible only to their owner and explicit members;
// public projects are additionally visible to every workspace member.
type Project struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	IsPrivate   bool      `json:"is_private"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectMember grants a user a role within a project. A user may only hold
// project membership if they already hold membership in the project's
// workspace. Composite key (ProjectID, UserID).
type ProjectMember struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Project role constants.
const (
	ProjectRoleOwner  = "owner"
	ProjectRoleMember = "member"
	ProjectRoleViewer = "viewer"
)

// ValidProjectRoles contains all valid project role values.
var ValidProjectRoles = []string{ProjectRoleOwner, ProjectRoleMember, ProjectRoleViewer}

// IsValidProjectRole checks if the given role is valid for a project.
func IsValidProjectRole(role string) bool {
	for _, r := range ValidProjectRoles {
		if r == role {
			return true
		}
	}
	return false
}

// ProjectMemberInfo is a project member joined with their user profile.
type ProjectMemberInfo struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	ProjectID uuid.UUID `json:"project_id"`
}

// ProjectWithWorkspace is a project enriched with its workspace name for
// listing views. The enrichment is presentation glue and never affects
// visibility.
type ProjectWithWorkspace struct {
	Project
	WorkspaceName string `json:"workspace_name"`
}
