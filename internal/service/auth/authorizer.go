package auth

import (
	"context"
	"fmt"

	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	repos "rescribe/internal/domain/repositories/structure"
	"rescribe/internal/domain/services"
)

// Authorizer loads the acting user and turns failed access checks into
// ErrForbidden errors.
type Authorizer struct {
	users   repos.UserRepository
	checker services.AccessChecker
}

// NewAuthorizer creates an authorizer
func NewAuthorizer(users repos.UserRepository, checker services.AccessChecker) *Authorizer {
	return &Authorizer{users: users, checker: checker}
}

// User loads the acting user
func (a *Authorizer) User(ctx context.Context, userID string) (*models.User, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// RequireRepository checks that userID may act on repo at level
func (a *Authorizer) RequireRepository(ctx context.Context, userID string, repo *models.Repository, level models.AccessLevel) (*models.User, error) {
	user, err := a.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !a.checker.CheckRepositoryAccess(user, repo, level) {
		return nil, &domain.ForbiddenError{
			Message: fmt.Sprintf("user does not have %s permissions for repository %s", level, repo.ID),
		}
	}
	return user, nil
}

// RequireProject checks that userID holds level on the project access list
func (a *Authorizer) RequireProject(ctx context.Context, userID string, project *models.Project, level models.AccessLevel) (*models.User, error) {
	user, err := a.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !a.checker.CheckAccess(userID, project.Access, level) {
		return nil, &domain.ForbiddenError{
			Message: fmt.Sprintf("user does not have %s permissions for project %s", level, project.ID),
		}
	}
	return user, nil
}
