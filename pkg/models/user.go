// Package models contains domain types for doit-engine.
package models

import (
	"github.com/google/uuid"
)

// User is an authenticated principal. Superusers bypass every authorization
// check unconditionally.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
}

// DisplayName returns the user's full name, falling back to the email.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
