// Package auth provides JWT-based authentication for doit-engine. Tokens are
// signed and verified with a shared HMAC secret; the subject claim carries the
// user ID.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserKey is the context key under which the authenticated user is stored.
const UserKey contextKey = "user"

// Claims is the JWT claims structure carried by doit-engine bearer tokens.
// It embeds RegisteredClaims for standard JWT fields (sub, iss, exp) and adds
// the user's email for logging and diagnostics.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}
