package structure

import (
	models "rescribe/internal/domain/models/structure"
)

// FileSelector picks the files of a repository branch an operation acts on.
// A nil selector means every file on the branch.
type FileSelector interface {
	selectsFiles()
	// Len is the number of requested entries
	Len() int
}

// ByIDs selects files by record ID
type ByIDs []string

// ByPaths selects files by repository path
type ByPaths []string

// ByEntities uses records the caller already loaded
type ByEntities []models.File

func (ByIDs) selectsFiles()      {}
func (ByPaths) selectsFiles()    {}
func (ByEntities) selectsFiles() {}

func (s ByIDs) Len() int      { return len(s) }
func (s ByPaths) Len() int    { return len(s) }
func (s ByEntities) Len() int { return len(s) }
