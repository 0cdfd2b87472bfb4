package services

import (
	models "rescribe/internal/domain/models/structure"
)

// AccessChecker decides whether a user may act on a resource.
// Services consult it before any mutation.
type AccessChecker interface {
	// CheckAccess reports whether accessList grants id at least level
	CheckAccess(id string, accessList []models.Access, level models.AccessLevel) bool

	// CheckRepositoryPublic reports whether the repository's public level is at least level
	CheckRepositoryPublic(repo *models.Repository, level models.AccessLevel) bool

	// CheckRepositoryAccess reports whether user may act on repo at level
	CheckRepositoryAccess(user *models.User, repo *models.Repository, level models.AccessLevel) bool
}
