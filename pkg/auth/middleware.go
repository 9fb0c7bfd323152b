package auth

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/repositories"
)

// Middleware provides HTTP authentication middleware.
// It is thin and delegates token logic to AuthService; the user behind the
// token is loaded fresh on every request so deactivation takes effect
// immediately.
type Middleware struct {
	authService AuthService
	userRepo    repositories.UserRepository
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService AuthService, userRepo repositories.UserRepository, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// RequireAuth validates the bearer token, resolves the user, and stores the
// user in the request context for downstream handlers.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.authService.ValidateRequest(r)
		if err != nil {
			m.unauthorized(w, "Authentication required")
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			m.unauthorized(w, "Invalid token subject")
			return
		}

		user, err := m.userRepo.Get(r.Context(), userID)
		if err != nil {
			m.logger.Debug("Token subject does not resolve to a user",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			m.unauthorized(w, "Authentication required")
			return
		}
		if !user.IsActive {
			m.unauthorized(w, "Account is deactivated")
			return
		}

		next(w, r.WithContext(WithUser(r.Context(), user)))
	}
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
