package structure

// AccessLevel is an ordered permission level. Order: none < view < edit < admin < owner.
type AccessLevel string

const (
	AccessNone  AccessLevel = "none"
	AccessView  AccessLevel = "view"
	AccessEdit  AccessLevel = "edit"
	AccessAdmin AccessLevel = "admin"
	AccessOwner AccessLevel = "owner"
)

var accessRank = map[AccessLevel]int{
	AccessNone:  0,
	AccessView:  1,
	AccessEdit:  2,
	AccessAdmin: 3,
	AccessOwner: 4,
}

// Rank returns the position of the level in the ordering.
// Unknown levels rank as none.
func (l AccessLevel) Rank() int {
	return accessRank[l]
}

// Valid reports whether l is one of the known levels
func (l AccessLevel) Valid() bool {
	_, ok := accessRank[l]
	return ok
}

// Access grants a level on the resource with the given ID
type Access struct {
	ID    string      `json:"id"`
	Level AccessLevel `json:"level"`
}

// User holds the per-resource access lists of an account
type User struct {
	ID           string   `json:"id" db:"id"`
	Repositories []Access `json:"repositories" db:"repositories"`
	Projects     []Access `json:"projects" db:"projects"`
}
