package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/doit-inc/doit-engine/pkg/database"
	"github.com/doit-inc/doit-engine/pkg/models"
)

// UserRepository defines read access to user accounts. Account provisioning
// is owned by the identity system; this service only resolves principals.
type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, COALESCE(full_name, ''), COALESCE(avatar_url, ''), is_active, is_superuser`

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.IsActive,
		&user.IsSuperuser,
	)
	if err != nil {
		return nil, scanErr("get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user models.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.IsActive,
		&user.IsSuperuser,
	)
	if err != nil {
		return nil, scanErr("get user by email", err)
	}
	return &user, nil
}

var _ UserRepository = (*userRepository)(nil)
