package structure

import (
	"context"

	models "rescribe/internal/domain/models/structure"
)

// IndexingService writes file content and metadata to both stores
type IndexingService interface {
	// AddFile adds a file to a branch, creating it or widening its branch set
	AddFile(ctx context.Context, req *AddFileRequest) (*models.File, error)

	// UpdateFile replaces the content of an existing file
	UpdateFile(ctx context.Context, req *UpdateFileRequest) (*models.File, error)
}

// AddFileRequest represents a file addition on a branch
type AddFileRequest struct {
	UserID       string `json:"-"`
	RepositoryID string `json:"repository"`
	Branch       string `json:"branch"`
	Path         string `json:"path"`
	Content      string `json:"content"`
	SaveContent  bool   `json:"save_content"`
}

// UpdateFileRequest represents a content update
type UpdateFileRequest struct {
	UserID  string `json:"-"`
	FileID  string `json:"-"`
	Content string `json:"content"`
}
