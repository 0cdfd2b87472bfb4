package structure

import (
	"context"

	models "rescribe/internal/domain/models/structure"
)

// FolderFilter selects folders of one repository. Empty fields do not filter.
type FolderFilter struct {
	RepositoryID string
	Branch       string
	IDs          []string
	PathPrefix   string // matches the folder at PathPrefix and everything below it
}

// FolderRepository defines document store access for folders
type FolderRepository interface {
	// GetByID retrieves a folder by ID
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// GetByPath retrieves the folder of a repository at path ("" = base folder)
	GetByPath(ctx context.Context, repositoryID, path string) (*models.Folder, error)

	// Find lists folders matching the filter
	Find(ctx context.Context, filter FolderFilter) ([]models.Folder, error)

	// CountOnBranch counts folders directly inside parentID that exist on branch
	CountOnBranch(ctx context.Context, repositoryID, parentID, branch string) (int, error)

	// ExistingIDs returns the subset of ids that have a record
	ExistingIDs(ctx context.Context, repositoryID string, ids []string) ([]string, error)

	// BulkWrite applies add/update/delete items in one round trip
	BulkWrite(ctx context.Context, writes []models.Write) error
}
