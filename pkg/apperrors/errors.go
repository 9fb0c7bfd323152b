// Package apperrors defines the error taxonomy shared by repositories,
// services, and handlers. Policy errors (permission, conflict, expiry) are
// distinct from infrastructure failures (ErrUnavailable) so callers can tell
// "you may not do this" apart from "the system could not complete this".
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")

	// ErrPermissionDenied is the sentinel every PermissionError unwraps to.
	ErrPermissionDenied = errors.New("permission denied")
)

// Conflict variants. Both match errors.Is(err, ErrConflict).
var (
	ErrAlreadyMember  = fmt.Errorf("user is already a member: %w", ErrConflict)
	ErrAlreadyInvited = fmt.Errorf("invitation already sent: %w", ErrConflict)
)

// Deny reasons carried by PermissionError.
const (
	ReasonNotAMember          = "not-a-member"
	ReasonNotOwner            = "not-owner"
	ReasonPrivateAndNotMember = "private-and-not-member"
	ReasonAssigneeNotMember   = "assignee-not-member"
	ReasonNotWorkspaceMember  = "not-workspace-member"
)

// PermissionError is a denied authorization decision.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return "permission denied: " + e.Reason
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

// Denied builds a PermissionError with the given reason.
func Denied(reason string) error {
	return &PermissionError{Reason: reason}
}

// DenyReason extracts the reason from a PermissionError, or "" if err is not
// a permission denial.
func DenyReason(err error) string {
	var pe *PermissionError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return ""
}
