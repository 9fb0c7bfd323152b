package models

import (
	"time"

	"github.com/google/uuid"
)

// Section is a board column within a project. Order is a float so columns can
// be reordered without renumbering neighbours.
type Section struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	Order     float64   `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
