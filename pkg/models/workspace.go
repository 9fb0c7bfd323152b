package models

import (
	"time"

	"github.com/google/uuid"
)

// Workspace is the top level of the resource hierarchy. Every workspace has
// exactly one membership row with role owner matching OwnerID, written
// atomically with the workspace itself.
type Workspace struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WorkspaceMember grants a user a role within a workspace.
// Composite key (WorkspaceID, UserID); at most one row per pair.
type WorkspaceMember struct {
	WorkspaceID uuid.UUID `json:"workspace_id"`
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Workspace role constants.
const (
	WorkspaceRoleOwner  = "owner"
	WorkspaceRoleMember = "member"
)

// ValidWorkspaceRoles contains all valid workspace role values.
var ValidWorkspaceRoles = []string{WorkspaceRoleOwner, WorkspaceRoleMember}

// IsValidWorkspaceRole checks if the given role is valid for a workspace.
func IsValidWorkspaceRole(role string) bool {
	for _, r := range ValidWorkspaceRoles {
		if r == role {
			return true
		}
	}
	return false
}

// WorkspaceMemberInfo is a workspace member joined with their user profile,
// as returned by member listings.
type WorkspaceMemberInfo struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
}
