package structure

import (
	"encoding/json"
	"time"
)

// Search index documents. Field names follow the index mappings, timestamps
// are epoch milliseconds.

type FileDocument struct {
	Project     string          `json:"project"`
	Repository  string          `json:"repository"`
	Folder      string          `json:"folder"`
	Path        string          `json:"path"`
	Name        string          `json:"name"`
	Location    StorageLocation `json:"location"`
	Branches    []string        `json:"branches"`
	NumBranches int             `json:"numBranches"`
	FileLength  int             `json:"fileLength"`
	Public      AccessLevel     `json:"public"`
	Created     int64           `json:"created"`
	Updated     int64           `json:"updated"`
	Analysis    json.RawMessage `json:"analysis,omitempty"`
}

type FolderDocument struct {
	Project     string      `json:"project"`
	Repository  string      `json:"repository"`
	Parent      string      `json:"parent,omitempty"`
	Path        string      `json:"path"`
	Name        string      `json:"name"`
	Branches    []string    `json:"branches"`
	NumBranches int         `json:"numBranches"`
	Public      AccessLevel `json:"public"`
	Created     int64       `json:"created"`
	Updated     int64       `json:"updated"`
}

type RepositoryDocument struct {
	Name          string      `json:"name"`
	NameSearch    string      `json:"nameSearch"`
	Owner         string      `json:"owner"`
	Branches      []string    `json:"branches"`
	Public        AccessLevel `json:"public"`
	Folder        string      `json:"folder"`
	LinesOfCode   int         `json:"linesOfCode"`
	NumberOfFiles int         `json:"numberOfFiles"`
	Created       int64       `json:"created"`
	Updated       int64       `json:"updated"`
}

type ProjectDocument struct {
	Name         string      `json:"name"`
	Owner        string      `json:"owner"`
	Repositories []string    `json:"repositories"`
	Public       AccessLevel `json:"public"`
	Created      int64       `json:"created"`
	Updated      int64       `json:"updated"`
}

// AggregatesDocument is the partial update sent when counters change
type AggregatesDocument struct {
	LinesOfCode   int   `json:"linesOfCode"`
	NumberOfFiles int   `json:"numberOfFiles"`
	Updated       int64 `json:"updated"`
}

// NewFileDocument converts a file record to its index representation
func NewFileDocument(f *File, analysis json.RawMessage) *FileDocument {
	return &FileDocument{
		Project:     f.ProjectID,
		Repository:  f.RepositoryID,
		Folder:      f.FolderID,
		Path:        f.Path,
		Name:        f.Name,
		Location:    f.Location,
		Branches:    f.Branches,
		NumBranches: len(f.Branches),
		FileLength:  f.FileLength,
		Public:      f.Public,
		Created:     f.CreatedAt.UnixMilli(),
		Updated:     f.UpdatedAt.UnixMilli(),
		Analysis:    analysis,
	}
}

// NewFolderDocument converts a folder record to its index representation
func NewFolderDocument(f *Folder) *FolderDocument {
	doc := &FolderDocument{
		Project:     f.ProjectID,
		Repository:  f.RepositoryID,
		Path:        f.Path,
		Name:        f.Name,
		Branches:    f.Branches,
		NumBranches: len(f.Branches),
		Public:      f.Public,
		Created:     f.CreatedAt.UnixMilli(),
		Updated:     f.UpdatedAt.UnixMilli(),
	}
	if f.ParentID != nil {
		doc.Parent = *f.ParentID
	}
	return doc
}

// NewAggregatesDocument builds the counter update for the repository index
func NewAggregatesDocument(a Aggregates, updated time.Time) *AggregatesDocument {
	return &AggregatesDocument{
		LinesOfCode:   a.LinesOfCode,
		NumberOfFiles: a.NumberOfFiles,
		Updated:       updated.UnixMilli(),
	}
}
