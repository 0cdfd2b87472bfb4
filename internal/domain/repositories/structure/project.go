package structure

import (
	"context"

	models "rescribe/internal/domain/models/structure"
)

// ProjectRepository defines document store access for projects
type ProjectRepository interface {
	// GetByID retrieves a project by ID
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// Delete removes the project record
	Delete(ctx context.Context, id string) error

	// RemoveRepository pulls repositoryID from every project that references it
	// and returns the number of projects changed
	RemoveRepository(ctx context.Context, repositoryID string) (int64, error)
}
