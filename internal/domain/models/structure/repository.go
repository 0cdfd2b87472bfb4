package structure

import (
	"slices"
	"time"
)

// Repository owns a branch set, a base folder and the aggregate counters
// of its files. The counters are stored in both the document store and
// the search index.
type Repository struct {
	ID            string      `json:"id" db:"id"`
	Name          string      `json:"name" db:"name"`
	Owner         string      `json:"owner" db:"owner"`
	Branches      []string    `json:"branches" db:"branches"`
	Public        AccessLevel `json:"public" db:"public"`
	FolderID      string      `json:"folder_id" db:"folder_id"` // base folder
	LinesOfCode   int         `json:"lines_of_code" db:"lines_of_code"`
	NumberOfFiles int         `json:"number_of_files" db:"number_of_files"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// HasBranch reports whether branch belongs to the repository
func (r *Repository) HasBranch(branch string) bool {
	return slices.Contains(r.Branches, branch)
}

// Aggregates returns the current counters
func (r *Repository) Aggregates() Aggregates {
	return Aggregates{LinesOfCode: r.LinesOfCode, NumberOfFiles: r.NumberOfFiles}
}

// Aggregates are the derived counters of a repository
type Aggregates struct {
	LinesOfCode   int `json:"lines_of_code"`
	NumberOfFiles int `json:"number_of_files"`
}

// Apply returns the counters after adding d
func (a Aggregates) Apply(d Delta) Aggregates {
	return Aggregates{
		LinesOfCode:   a.LinesOfCode + d.LinesOfCode,
		NumberOfFiles: a.NumberOfFiles + d.Files,
	}
}

// Delta is a change to apply to the repository counters
type Delta struct {
	LinesOfCode int `json:"lines_of_code"`
	Files       int `json:"files"`
}

// IsZero reports whether applying d changes nothing
func (d Delta) IsZero() bool {
	return d.LinesOfCode == 0 && d.Files == 0
}

// Add accumulates other into d
func (d Delta) Add(other Delta) Delta {
	return Delta{LinesOfCode: d.LinesOfCode + other.LinesOfCode, Files: d.Files + other.Files}
}

// Neg returns the inverse delta
func (d Delta) Neg() Delta {
	return Delta{LinesOfCode: -d.LinesOfCode, Files: -d.Files}
}
