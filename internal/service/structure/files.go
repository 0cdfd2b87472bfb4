package structure

import (
	"context"
	"fmt"
	"time"

	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	repos "rescribe/internal/domain/repositories/structure"
	svc "rescribe/internal/domain/services/structure"
	"rescribe/internal/dualwrite"
)

// Removal is the outcome of removing one file from one branch
type Removal struct {
	File         models.File
	FullyRemoved bool // false: only the branch was dropped
}

// Delta is the aggregate change caused by the removal
func (r Removal) Delta() models.Delta {
	if !r.FullyRemoved {
		return models.Delta{}
	}
	return models.Delta{LinesOfCode: -r.File.FileLength, Files: -1}
}

// BranchFiles stages branch-scoped file removals
type BranchFiles struct {
	files repos.FileRepository
}

// NewBranchFiles creates a branch-scoped file store
func NewBranchFiles(files repos.FileRepository) *BranchFiles {
	return &BranchFiles{files: files}
}

// Resolve loads the files of a repository on branch picked by sel.
// A nil selector picks every file on the branch.
func (b *BranchFiles) Resolve(ctx context.Context, repositoryID, branch string, sel svc.FileSelector) ([]models.File, error) {
	filter := repos.FileFilter{RepositoryID: repositoryID, Branch: branch}

	switch s := sel.(type) {
	case nil:
	case svc.ByIDs:
		if len(s) == 0 {
			return nil, nil
		}
		filter.IDs = s
	case svc.ByPaths:
		if len(s) == 0 {
			return nil, nil
		}
		filter.Paths = s
	case svc.ByEntities:
		out := make([]models.File, 0, len(s))
		for _, f := range s {
			if f.RepositoryID == repositoryID && f.HasBranch(branch) {
				out = append(out, f)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported file selector %T", domain.ErrValidation, sel)
	}

	files, err := b.files.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find files: %w", err)
	}
	return files, nil
}

// RemoveFromBranch loads a file and stages its removal from branch into u
func (b *BranchFiles) RemoveFromBranch(ctx context.Context, u *dualwrite.Unit, fileID, branch string, now time.Time) (Removal, error) {
	f, err := b.files.GetByID(ctx, fileID)
	if err != nil {
		return Removal{}, err
	}
	return b.Stage(u, f, branch, now)
}

// Stage schedules the removal of f from branch. On its last branch the file
// is deleted from both stores together with its content blob; otherwise the
// branch is dropped from its branch set in both stores.
func (b *BranchFiles) Stage(u *dualwrite.Unit, f *models.File, branch string, now time.Time) (Removal, error) {
	if !f.HasBranch(branch) {
		return Removal{}, &domain.ValidationError{
			Message: fmt.Sprintf("file %s is not on branch %q", f.ID, branch),
		}
	}

	if len(f.Branches) == 1 {
		u.Stage(models.EntityFile,
			models.DeleteWrite(f.ID, f.RepositoryID),
			models.DeleteWrite(f.ID, f.RepositoryID),
		)
		if f.HasContent() {
			u.DeleteBlob(fileKey(*f))
		}
		return Removal{File: *f, FullyRemoved: true}, nil
	}

	patch := &models.Patch{RemoveBranch: branch, UpdatedAt: now}
	u.Stage(models.EntityFile,
		models.UpdateWrite(f.ID, f.RepositoryID, patch),
		models.UpdateWrite(f.ID, f.RepositoryID, patch),
	)
	return Removal{File: *f}, nil
}
