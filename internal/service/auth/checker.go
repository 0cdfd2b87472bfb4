package auth

import (
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/services"
)

// Checker implements services.AccessChecker over access lists
type Checker struct{}

// NewChecker creates an access checker
func NewChecker() services.AccessChecker {
	return Checker{}
}

// CheckAccessLevel reports whether have is at least need
func CheckAccessLevel(have, need models.AccessLevel) bool {
	return have.Rank() >= need.Rank()
}

// CheckAccess reports whether accessList has an entry for id of at least level
func (Checker) CheckAccess(id string, accessList []models.Access, level models.AccessLevel) bool {
	entry, ok := findAccess(id, accessList)
	return ok && CheckAccessLevel(entry.Level, level)
}

// CheckRepositoryPublic reports whether the public level of repo is at least level
func (Checker) CheckRepositoryPublic(repo *models.Repository, level models.AccessLevel) bool {
	return CheckAccessLevel(repo.Public, level)
}

// CheckRepositoryAccess grants access when the repository is public at
// level, or when the user holds an entry for it that is not an explicit
// none and is at least level.
func (c Checker) CheckRepositoryAccess(user *models.User, repo *models.Repository, level models.AccessLevel) bool {
	if c.CheckRepositoryPublic(repo, level) {
		return true
	}
	if user == nil {
		return false
	}
	entry, ok := findAccess(repo.ID, user.Repositories)
	if !ok || entry.Level == models.AccessNone {
		return false
	}
	return CheckAccessLevel(entry.Level, level)
}

func findAccess(id string, accessList []models.Access) (models.Access, bool) {
	for _, a := range accessList {
		if a.ID == id {
			return a, true
		}
	}
	return models.Access{}, false
}
