package structure

import (
	"context"
	"time"

	models "rescribe/internal/domain/models/structure"
)

// RepositoryRepository defines document store access for repositories
type RepositoryRepository interface {
	// GetByID retrieves a repository by ID
	GetByID(ctx context.Context, id string) (*models.Repository, error)

	// ListIDs returns the IDs of every repository
	ListIDs(ctx context.Context) ([]string, error)

	// ApplyDelta adds delta to the counters and returns the stored result
	ApplyDelta(ctx context.Context, id string, delta models.Delta, updatedAt time.Time) (models.Aggregates, error)

	// SetAggregates overwrites the counters
	SetAggregates(ctx context.Context, id string, aggregates models.Aggregates, updatedAt time.Time) error

	// RemoveBranch drops branch from the repository's branch set
	RemoveBranch(ctx context.Context, id, branch string, updatedAt time.Time) error

	// Delete removes the repository record
	Delete(ctx context.Context, id string) error
}
