package structure

import (
	"slices"
	"strings"
	"time"
)

// Folder is a directory node. Its branch set covers the branch sets of its children.
type Folder struct {
	ID           string      `json:"id" db:"id"`
	ProjectID    string      `json:"project_id" db:"project_id"`
	RepositoryID string      `json:"repository_id" db:"repository_id"`
	ParentID     *string     `json:"parent_id" db:"parent_id"` // nil = base folder
	Path         string      `json:"path" db:"path"`           // "" for the base folder
	Name         string      `json:"name" db:"name"`
	Branches     []string    `json:"branches" db:"branches"`
	Public       AccessLevel `json:"public" db:"public"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// HasBranch reports whether the folder exists on branch
func (f *Folder) HasBranch(branch string) bool {
	return slices.Contains(f.Branches, branch)
}

// IsBase reports whether this is a repository root folder
func (f *Folder) IsBase() bool {
	return f.ParentID == nil
}

// Depth is the number of path segments below the base folder
func (f *Folder) Depth() int {
	if f.Path == "" {
		return 0
	}
	return strings.Count(f.Path, "/") + 1
}
