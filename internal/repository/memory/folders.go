package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	repos "rescribe/internal/domain/repositories/structure"
)

// FolderRepository is the in-memory FolderRepository
type FolderRepository struct {
	s *Store
}

var _ repos.FolderRepository = (*FolderRepository)(nil)

func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return cloneFolder(f), nil
}

func (r *FolderRepository) GetByPath(ctx context.Context, repositoryID, path string) (*models.Folder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, f := range r.s.folders {
		if f.RepositoryID == repositoryID && f.Path == path {
			return cloneFolder(f), nil
		}
	}
	return nil, fmt.Errorf("folder %q in repository %s: %w", path, repositoryID, domain.ErrNotFound)
}

func (r *FolderRepository) Find(ctx context.Context, filter repos.FolderFilter) ([]models.Folder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Folder
	for _, f := range r.s.folders {
		if filter.RepositoryID != "" && f.RepositoryID != filter.RepositoryID {
			continue
		}
		if filter.Branch != "" && !f.HasBranch(filter.Branch) {
			continue
		}
		if !matchesAny(filter.IDs, f.ID) {
			continue
		}
		if filter.PathPrefix != "" && f.Path != filter.PathPrefix && !strings.HasPrefix(f.Path, filter.PathPrefix+"/") {
			continue
		}
		out = append(out, *cloneFolder(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *FolderRepository) CountOnBranch(ctx context.Context, repositoryID, parentID, branch string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, f := range r.s.folders {
		if f.RepositoryID == repositoryID && f.ParentID != nil && *f.ParentID == parentID && f.HasBranch(branch) {
			n++
		}
	}
	return n, nil
}

func (r *FolderRepository) ExistingIDs(ctx context.Context, repositoryID string, ids []string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []string
	for _, id := range ids {
		if f, ok := r.s.folders[id]; ok && f.RepositoryID == repositoryID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *FolderRepository) BulkWrite(ctx context.Context, writes []models.Write) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.BulkErr != nil {
		return r.s.BulkErr
	}
	for _, w := range writes {
		switch w.Action {
		case models.WriteAdd:
			f, ok := w.Document.(*models.Folder)
			if !ok {
				return fmt.Errorf("folder %s: unexpected document %T", w.ID, w.Document)
			}
			r.s.folders[w.ID] = cloneFolder(f)
		case models.WriteUpdate:
			f, ok := r.s.folders[w.ID]
			if !ok || w.Patch == nil {
				continue
			}
			f.Branches = patchBranches(f.Branches, w.Patch)
			if !w.Patch.UpdatedAt.IsZero() {
				f.UpdatedAt = w.Patch.UpdatedAt
			}
		case models.WriteDelete:
			delete(r.s.folders, w.ID)
		}
	}
	return nil
}
