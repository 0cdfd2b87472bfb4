package structure

import (
	"slices"
	"time"
)

// StorageLocation says where the content of a file lives
type StorageLocation string

const (
	// LocationBlob means the content was uploaded to the blob store
	LocationBlob StorageLocation = "blob"
	// LocationInline means only metadata and index data were kept
	LocationInline StorageLocation = "inline"
)

// File is a source file shared by every branch in Branches.
// The record exists only while Branches is non-empty.
type File struct {
	ID           string          `json:"id" db:"id"`
	ProjectID    string          `json:"project_id" db:"project_id"`
	RepositoryID string          `json:"repository_id" db:"repository_id"`
	FolderID     string          `json:"folder_id" db:"folder_id"`
	Path         string          `json:"path" db:"path"` // "src/main.go"
	Name         string          `json:"name" db:"name"` // "main.go"
	Location     StorageLocation `json:"location" db:"location"`
	Branches     []string        `json:"branches" db:"branches"`
	FileLength   int             `json:"file_length" db:"file_length"`
	Public       AccessLevel     `json:"public" db:"public"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// HasBranch reports whether the file exists on branch
func (f *File) HasBranch(branch string) bool {
	return slices.Contains(f.Branches, branch)
}

// HasContent reports whether a blob must be removed with the file
func (f *File) HasContent() bool {
	return f.Location == LocationBlob
}
