package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation is a time-boxed token granting workspace membership on
// redemption. Status only ever moves pending -> accepted; "expired" is a
// read-time predicate over ExpiresAt, never a stored state. Redemption
// creates a membership row, it never mutates the invitation into one.
type Invitation struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Token       string    `json:"-"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	InviterID   uuid.UUID `json:"inviter_id"`
}

// Invitation status constants.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
)

// IsExpired reports whether the invitation has passed its expiry at the given
// instant. Comparison is done in UTC.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.UTC().After(i.ExpiresAt.UTC())
}
