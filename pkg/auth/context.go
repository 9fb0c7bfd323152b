package auth

import (
	"context"
	"fmt"

	"github.com/doit-inc/doit-engine/pkg/models"
)

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser retrieves the authenticated user from the context.
// Returns nil and false if no user is present.
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok
}

// RequireUser retrieves the authenticated user from the context, returning an
// error when the request was not authenticated. Handlers behind RequireAuth
// can rely on this never failing.
func RequireUser(ctx context.Context) (*models.User, error) {
	user, ok := GetUser(ctx)
	if !ok || user == nil {
		return nil, fmt.Errorf("authentication required: no user in context")
	}
	return user, nil
}
