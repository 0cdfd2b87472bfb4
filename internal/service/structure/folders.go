package structure

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	repos "rescribe/internal/domain/repositories/structure"
	"rescribe/internal/dualwrite"
)

// CollapseResult counts the folders a collapse pass changed
type CollapseResult struct {
	Deleted  int
	Narrowed int
}

// Collapser re-evaluates the branch membership of folders after files were
// removed from a branch.
type Collapser struct {
	files   repos.FileRepository
	folders repos.FolderRepository
}

// NewCollapser creates a folder collapse engine
func NewCollapser(files repos.FileRepository, folders repos.FolderRepository) *Collapser {
	return &Collapser{files: files, folders: folders}
}

// Collapse stages folder updates for the candidate folders of repo on branch.
//
// The file removals that produced the candidates must already be applied to
// the document store. A candidate with at most one child left on the branch
// (files plus sub-folders, not counting sub-folders collapsed in this pass)
// loses the branch, or is deleted when the branch was its only one. The base
// folder and folders absent from the branch are skipped, as are candidates
// with no record: a folder collapsed earlier with one child left still has
// that child pointing at it. Candidates are visited deepest first so a
// parent sees the result of its children.
func (c *Collapser) Collapse(ctx context.Context, u *dualwrite.Unit, repo *models.Repository, branch string, candidates []string, now time.Time) (CollapseResult, error) {
	var result CollapseResult
	ids := uniqueIDs(candidates)
	if len(ids) == 0 {
		return result, nil
	}

	folders, err := c.folders.Find(ctx, repos.FolderFilter{RepositoryID: repo.ID, IDs: ids})
	if err != nil {
		return result, fmt.Errorf("find candidate folders: %w", err)
	}
	sort.SliceStable(folders, func(i, j int) bool {
		if di, dj := folders[i].Depth(), folders[j].Depth(); di != dj {
			return di > dj
		}
		return folders[i].Path < folders[j].Path
	})

	collapsedUnder := make(map[string]int)
	for i := range folders {
		folder := &folders[i]
		if folder.ID == repo.FolderID || folder.IsBase() || !folder.HasBranch(branch) {
			continue
		}

		files, err := c.files.CountOnBranch(ctx, repo.ID, folder.ID, branch)
		if err != nil {
			return result, fmt.Errorf("count files in folder %s: %w", folder.ID, err)
		}
		subfolders, err := c.folders.CountOnBranch(ctx, repo.ID, folder.ID, branch)
		if err != nil {
			return result, fmt.Errorf("count folders in folder %s: %w", folder.ID, err)
		}
		remaining := files + subfolders - collapsedUnder[folder.ID]
		if remaining > 1 {
			continue
		}

		if len(folder.Branches) > 1 {
			patch := &models.Patch{RemoveBranch: branch, UpdatedAt: now}
			u.Stage(models.EntityFolder,
				models.UpdateWrite(folder.ID, repo.ID, patch),
				models.UpdateWrite(folder.ID, repo.ID, patch),
			)
			result.Narrowed++
		} else {
			u.Stage(models.EntityFolder,
				models.DeleteWrite(folder.ID, repo.ID),
				models.DeleteWrite(folder.ID, repo.ID),
			)
			result.Deleted++
		}
		collapsedUnder[*folder.ParentID]++
	}
	return result, nil
}

// EnsureFolders makes every folder of dir exist on branch, creating missing
// folders and widening existing ones. It returns the innermost folder, the
// base folder for a root-level dir.
func (c *Collapser) EnsureFolders(ctx context.Context, u *dualwrite.Unit, repo *models.Repository, branch, dir string, now time.Time) (*models.Folder, error) {
	parent, err := c.folders.GetByID(ctx, repo.FolderID)
	if err != nil {
		return nil, fmt.Errorf("get base folder: %w", err)
	}
	c.widen(u, parent, branch, now)

	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return parent, nil
	}

	current := ""
	for _, segment := range strings.Split(dir, "/") {
		current = path.Join(current, segment)
		folder, err := c.folders.GetByPath(ctx, repo.ID, current)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			parentID := parent.ID
			folder = &models.Folder{
				ID:           uuid.NewString(),
				ProjectID:    parent.ProjectID,
				RepositoryID: repo.ID,
				ParentID:     &parentID,
				Path:         current,
				Name:         segment,
				Branches:     []string{branch},
				Public:       repo.Public,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			u.Stage(models.EntityFolder,
				models.AddWrite(folder.ID, repo.ID, folder),
				models.AddWrite(folder.ID, repo.ID, models.NewFolderDocument(folder)),
			)
		case err != nil:
			return nil, fmt.Errorf("get folder %q: %w", current, err)
		default:
			c.widen(u, folder, branch, now)
		}
		parent = folder
	}
	return parent, nil
}

func (c *Collapser) widen(u *dualwrite.Unit, folder *models.Folder, branch string, now time.Time) {
	if folder.HasBranch(branch) {
		return
	}
	patch := &models.Patch{AddBranch: branch, UpdatedAt: now}
	u.Stage(models.EntityFolder,
		models.UpdateWrite(folder.ID, folder.RepositoryID, patch),
		models.UpdateWrite(folder.ID, folder.RepositoryID, patch),
	)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
