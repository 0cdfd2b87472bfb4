package structure

import (
	"context"

	models "rescribe/internal/domain/models/structure"
)

// FileFilter selects files of one repository. Empty fields do not filter.
type FileFilter struct {
	RepositoryID string
	Branch       string
	IDs          []string
	Paths        []string
	FolderID     string
}

// FileRepository defines document store access for files
type FileRepository interface {
	// GetByID retrieves a file by ID
	GetByID(ctx context.Context, id string) (*models.File, error)

	// Find lists files matching the filter
	Find(ctx context.Context, filter FileFilter) ([]models.File, error)

	// CountOnBranch counts files directly inside folderID that exist on branch
	CountOnBranch(ctx context.Context, repositoryID, folderID, branch string) (int, error)

	// Aggregates sums line counts and counts files of a repository
	Aggregates(ctx context.Context, repositoryID string) (models.Aggregates, error)

	// ExistingIDs returns the subset of ids that have a record
	ExistingIDs(ctx context.Context, repositoryID string, ids []string) ([]string, error)

	// BulkWrite applies add/update/delete items in one round trip
	BulkWrite(ctx context.Context, writes []models.Write) error
}
