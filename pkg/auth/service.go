package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrInvalidToken         = errors.New("invalid token")
)

const issuer = "doit-engine"

// AuthService defines the interface for authentication operations.
// This abstraction enables clean separation between HTTP handling
// and token logic, making both easier to test.
type AuthService interface {
	// ValidateRequest extracts and validates a JWT from the request's
	// Authorization header (Bearer scheme). Returns the validated claims
	// or an error.
	ValidateRequest(r *http.Request) (*Claims, error)

	// ValidateToken verifies a raw token string and returns its claims.
	ValidateToken(tokenString string) (*Claims, error)

	// IssueToken signs a new bearer token for the given user.
	IssueToken(userID uuid.UUID, email string) (string, error)
}

type authService struct {
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

// NewAuthService creates an AuthService signing and verifying with the given
// HMAC secret.
func NewAuthService(secret string, ttl time.Duration, logger *zap.Logger) AuthService {
	return &authService{
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger,
	}
}

func (s *authService) ValidateRequest(r *http.Request) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.logger.Debug("No JWT found in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return nil, ErrMissingAuthorization
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		s.logger.Debug("Invalid Authorization header format",
			zap.String("path", r.URL.Path))
		return nil, ErrInvalidAuthFormat
	}

	claims, err := s.ValidateToken(parts[1])
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		return nil, err
	}
	return claims, nil
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) IssueToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

var _ AuthService = (*authService)(nil)
