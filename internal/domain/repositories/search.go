package repositories

import (
	"context"
	"fmt"

	models "rescribe/internal/domain/models/structure"
)

// Term matches documents whose field equals Value, or contains it for array fields
type Term struct {
	Field string
	Value any
}

// Query is a boolean query: every Must term matches and, when Should is
// non-empty, at least one Should term matches.
type Query struct {
	Must   []Term
	Should []Term
	Size   int
}

// ScriptOp is a server-side update applied by UpdateByQuery
type ScriptOp string

const (
	// ScriptArrayRemove removes every occurrence of Value from the array Field
	ScriptArrayRemove ScriptOp = "array_remove"
)

// Script describes an update-by-query script
type Script struct {
	Op    ScriptOp
	Field string
	Value any
}

// SearchIndex is the secondary store queried for code search
type SearchIndex interface {
	// Get loads the source of a document into dest
	Get(ctx context.Context, index, id string, dest any) error

	// Index creates or replaces a document
	Index(ctx context.Context, index, id string, doc any) error

	// Update merges partial into an existing document
	Update(ctx context.Context, index, id string, partial any) error

	// Delete removes a document; deleting a missing document is not an error
	Delete(ctx context.Context, index, id string) error

	// Bulk applies add/update/delete items in one request
	Bulk(ctx context.Context, index string, writes []models.Write) error

	// Search returns the IDs of documents matching q
	Search(ctx context.Context, index string, q Query) ([]string, error)

	// UpdateByQuery runs script on every document matching q and returns the count updated
	UpdateByQuery(ctx context.Context, index string, q Query, script Script) (int, error)
}

// IndexNames holds dynamically prefixed index names
type IndexNames struct {
	Files        string
	Folders      string
	Repositories string
	Projects     string
}

// NewIndexNames creates index names with the given prefix
func NewIndexNames(prefix string) *IndexNames {
	return &IndexNames{
		Files:        fmt.Sprintf("%sfiles", prefix),
		Folders:      fmt.Sprintf("%sfolders", prefix),
		Repositories: fmt.Sprintf("%srepositories", prefix),
		Projects:     fmt.Sprintf("%sprojects", prefix),
	}
}

// ForEntity returns the index holding documents of the entity class
func (n *IndexNames) ForEntity(entity models.EntityClass) string {
	if entity == models.EntityFolder {
		return n.Folders
	}
	return n.Files
}
