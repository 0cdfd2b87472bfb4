package structure

import (
	"encoding/json"
	"time"
)

// EntityClass is the kind of record a dual write targets
type EntityClass string

const (
	EntityFile   EntityClass = "file"
	EntityFolder EntityClass = "folder"
)

// WriteAction is the mutation applied by a single bulk item
type WriteAction string

const (
	WriteAdd    WriteAction = "add"
	WriteUpdate WriteAction = "update"
	WriteDelete WriteAction = "delete"
)

// Write is one item of a bulk request against either store.
// Document holds the full record for WriteAdd: *File or *Folder for the
// document store, *FileDocument or *FolderDocument for the search index.
// Patch holds the change for WriteUpdate.
type Write struct {
	Action       WriteAction
	ID           string
	RepositoryID string
	Document     any
	Patch        *Patch
}

// Patch is a partial update understood by both stores
type Patch struct {
	RemoveBranch string
	AddBranch    string
	FileLength   *int
	Analysis     json.RawMessage // index only
	UpdatedAt    time.Time
}

// DeleteWrite builds a delete item
func DeleteWrite(id, repositoryID string) Write {
	return Write{Action: WriteDelete, ID: id, RepositoryID: repositoryID}
}

// UpdateWrite builds an update item
func UpdateWrite(id, repositoryID string, patch *Patch) Write {
	return Write{Action: WriteUpdate, ID: id, RepositoryID: repositoryID, Patch: patch}
}

// AddWrite builds an add item
func AddWrite(id, repositoryID string, doc any) Write {
	return Write{Action: WriteAdd, ID: id, RepositoryID: repositoryID, Document: doc}
}
