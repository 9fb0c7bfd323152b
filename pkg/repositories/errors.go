// Package repositories provides PostgreSQL data access for doit-engine.
// Repositories map pgx.ErrNoRows to apperrors.ErrNotFound and wrap transport
// failures with apperrors.ErrUnavailable so callers can separate policy
// errors from infrastructure ones.
package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
)

// storageErr wraps a database transport failure with ErrUnavailable while
// preserving the underlying error text.
func storageErr(op string, err error) error {
	return fmt.Errorf("failed to %s: %v: %w", op, err, apperrors.ErrUnavailable)
}

// scanErr maps a row-scan error: no rows becomes ErrNotFound, anything else
// is a storage failure.
func scanErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return storageErr(op, err)
}
