package memory

import (
	"context"
	"fmt"
	"sort"

	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	repos "rescribe/internal/domain/repositories/structure"
)

// FileRepository is the in-memory FileRepository
type FileRepository struct {
	s *Store
}

var _ repos.FileRepository = (*FileRepository)(nil)

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	return cloneFile(f), nil
}

func (r *FileRepository) Find(ctx context.Context, filter repos.FileFilter) ([]models.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.File
	for _, f := range r.s.files {
		if filter.RepositoryID != "" && f.RepositoryID != filter.RepositoryID {
			continue
		}
		if filter.Branch != "" && !f.HasBranch(filter.Branch) {
			continue
		}
		if filter.FolderID != "" && f.FolderID != filter.FolderID {
			continue
		}
		if !matchesAny(filter.IDs, f.ID) || !matchesAny(filter.Paths, f.Path) {
			continue
		}
		out = append(out, *cloneFile(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *FileRepository) CountOnBranch(ctx context.Context, repositoryID, folderID, branch string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, f := range r.s.files {
		if f.RepositoryID == repositoryID && f.FolderID == folderID && f.HasBranch(branch) {
			n++
		}
	}
	return n, nil
}

func (r *FileRepository) Aggregates(ctx context.Context, repositoryID string) (models.Aggregates, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var a models.Aggregates
	for _, f := range r.s.files {
		if f.RepositoryID == repositoryID {
			a.LinesOfCode += f.FileLength
			a.NumberOfFiles++
		}
	}
	return a, nil
}

func (r *FileRepository) ExistingIDs(ctx context.Context, repositoryID string, ids []string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []string
	for _, id := range ids {
		if f, ok := r.s.files[id]; ok && f.RepositoryID == repositoryID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *FileRepository) BulkWrite(ctx context.Context, writes []models.Write) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.BulkErr != nil {
		return r.s.BulkErr
	}
	for _, w := range writes {
		switch w.Action {
		case models.WriteAdd:
			f, ok := w.Document.(*models.File)
			if !ok {
				return fmt.Errorf("file %s: unexpected document %T", w.ID, w.Document)
			}
			r.s.files[w.ID] = cloneFile(f)
		case models.WriteUpdate:
			f, ok := r.s.files[w.ID]
			if !ok || w.Patch == nil {
				continue
			}
			f.Branches = patchBranches(f.Branches, w.Patch)
			if w.Patch.FileLength != nil {
				f.FileLength = *w.Patch.FileLength
			}
			if !w.Patch.UpdatedAt.IsZero() {
				f.UpdatedAt = w.Patch.UpdatedAt
			}
		case models.WriteDelete:
			delete(r.s.files, w.ID)
		}
	}
	return nil
}
