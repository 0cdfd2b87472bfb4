package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	repos "rescribe/internal/domain/repositories/structure"
)

// RepositoryRepository is the in-memory RepositoryRepository
type RepositoryRepository struct {
	s *Store
}

var _ repos.RepositoryRepository = (*RepositoryRepository)(nil)

func (r *RepositoryRepository) GetByID(ctx context.Context, id string) (*models.Repository, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	repo, ok := r.s.repositories[id]
	if !ok {
		return nil, fmt.Errorf("repository %s: %w", id, domain.ErrNotFound)
	}
	c := *repo
	c.Branches = slices.Clone(repo.Branches)
	return &c, nil
}

func (r *RepositoryRepository) ListIDs(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]string, 0, len(r.s.repositories))
	for id := range r.s.repositories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *RepositoryRepository) ApplyDelta(ctx context.Context, id string, delta models.Delta, updatedAt time.Time) (models.Aggregates, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	repo, ok := r.s.repositories[id]
	if !ok {
		return models.Aggregates{}, fmt.Errorf("repository %s: %w", id, domain.ErrNotFound)
	}
	a := repo.Aggregates().Apply(delta)
	repo.LinesOfCode, repo.NumberOfFiles = a.LinesOfCode, a.NumberOfFiles
	repo.UpdatedAt = updatedAt
	return a, nil
}

func (r *RepositoryRepository) SetAggregates(ctx context.Context, id string, a models.Aggregates, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	repo, ok := r.s.repositories[id]
	if !ok {
		return fmt.Errorf("repository %s: %w", id, domain.ErrNotFound)
	}
	repo.LinesOfCode, repo.NumberOfFiles = a.LinesOfCode, a.NumberOfFiles
	repo.UpdatedAt = updatedAt
	return nil
}

func (r *RepositoryRepository) RemoveBranch(ctx context.Context, id, branch string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	repo, ok := r.s.repositories[id]
	if !ok {
		return fmt.Errorf("repository %s: %w", id, domain.ErrNotFound)
	}
	repo.Branches = slices.DeleteFunc(repo.Branches, func(b string) bool { return b == branch })
	repo.UpdatedAt = updatedAt
	return nil
}

func (r *RepositoryRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.repositories[id]; !ok {
		return fmt.Errorf("repository %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.repositories, id)
	return nil
}

// ProjectRepository is the in-memory ProjectRepository
type ProjectRepository struct {
	s *Store
}

var _ repos.ProjectRepository = (*ProjectRepository)(nil)

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return cloneProject(p), nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.projects, id)
	return nil
}

func (r *ProjectRepository) RemoveRepository(ctx context.Context, repositoryID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.projects {
		if p.HasRepository(repositoryID) {
			p.Repositories = slices.DeleteFunc(p.Repositories, func(id string) bool { return id == repositoryID })
			n++
		}
	}
	return n, nil
}

// UserRepository is the in-memory UserRepository
type UserRepository struct {
	s *Store
}

var _ repos.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (r *UserRepository) RemoveRepositoryAccess(ctx context.Context, userID, repositoryID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	u.Repositories = slices.DeleteFunc(u.Repositories, func(a models.Access) bool { return a.ID == repositoryID })
	return nil
}

func (r *UserRepository) RemoveProjectAccess(ctx context.Context, userID, projectID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	u.Projects = slices.DeleteFunc(u.Projects, func(a models.Access) bool { return a.ID == projectID })
	return nil
}

// MediaRepository is the in-memory MediaRepository
type MediaRepository struct {
	s *Store
}

var _ repos.MediaRepository = (*MediaRepository)(nil)

func (r *MediaRepository) ListByParent(ctx context.Context, parentID string, parentType models.MediaParentType) ([]models.Media, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Media
	for _, m := range r.s.media {
		if m.ParentID == parentID && m.ParentType == parentType {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MediaRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.media, id)
	return nil
}
