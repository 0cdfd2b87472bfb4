package structure

import (
	"context"

	models "rescribe/internal/domain/models/structure"
)

// UserRepository defines document store access for user access lists
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)

	// RemoveRepositoryAccess drops the repository entry from the user's access list
	RemoveRepositoryAccess(ctx context.Context, userID, repositoryID string) error

	// RemoveProjectAccess drops the project entry from the user's access list
	RemoveProjectAccess(ctx context.Context, userID, projectID string) error
}
