package structure

import (
	"context"

	models "rescribe/internal/domain/models/structure"
)

// DeletionService removes files, folders, branches, repositories and
// projects from the document store, the search index and the blob store.
type DeletionService interface {
	// DeleteFiles removes the selected files from one branch
	DeleteFiles(ctx context.Context, req *DeleteFilesRequest) (*DeleteResult, error)

	// DeleteFolder removes a folder and everything below it from one branch
	DeleteFolder(ctx context.Context, req *DeleteFolderRequest) (*DeleteResult, error)

	// DeleteBranch removes every file of a branch and the branch itself
	DeleteBranch(ctx context.Context, req *DeleteBranchRequest) (*DeleteResult, error)

	// DeleteRepository removes a repository with all of its files, folders and media
	DeleteRepository(ctx context.Context, userID, repositoryID string) error

	// DeleteProject removes a project and cascades to its repositories
	DeleteProject(ctx context.Context, userID, projectID string) error
}

// DeleteFilesRequest represents a bulk file deletion on a branch
type DeleteFilesRequest struct {
	UserID       string       `json:"-"` // Set by handler from auth context
	RepositoryID string       `json:"repository"`
	Branch       string       `json:"branch"`
	Files        FileSelector `json:"-"` // Built by handler from ids or paths
}

// DeleteFolderRequest represents a folder deletion on a branch
type DeleteFolderRequest struct {
	UserID       string `json:"-"`
	RepositoryID string `json:"repository"`
	Branch       string `json:"branch"`
	FolderID     string `json:"folder"`
}

// DeleteBranchRequest represents a branch deletion
type DeleteBranchRequest struct {
	UserID       string `json:"-"`
	RepositoryID string `json:"repository"`
	Branch       string `json:"branch"`
}

// DeleteResult summarizes a successful deletion
type DeleteResult struct {
	FilesRemoved    int                `json:"files_removed"`
	FilesNarrowed   int                `json:"files_narrowed"`
	FoldersDeleted  int                `json:"folders_deleted"`
	FoldersNarrowed int                `json:"folders_narrowed"`
	Aggregates      *models.Aggregates `json:"aggregates,omitempty"`
}
