package structure

import (
	"slices"
	"time"
)

// Project references repositories by ID. The same repository may be
// referenced by several projects.
type Project struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Owner        string      `json:"owner" db:"owner"`
	Repositories []string    `json:"repositories" db:"repositories"`
	Access       []Access    `json:"access" db:"access"`
	Public       AccessLevel `json:"public" db:"public"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// HasRepository reports whether the project references repositoryID
func (p *Project) HasRepository(repositoryID string) bool {
	return slices.Contains(p.Repositories, repositoryID)
}
