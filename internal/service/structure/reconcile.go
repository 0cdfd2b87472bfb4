package structure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
	svc "rescribe/internal/domain/services/structure"
)

const (
	sweepPageSize = 1000
	maxSweepPages = 100
)

type reconciler struct {
	deps    *Dependencies
	tracker *Tracker
	logger  *slog.Logger
}

// NewReconciler creates the job that repairs divergence between the stores
func NewReconciler(deps *Dependencies) svc.Reconciler {
	return &reconciler{
		deps:    deps,
		tracker: NewTracker(deps),
		logger:  deps.logger(),
	}
}

// ReconcileRepository recomputes the counters of a repository from its file
// records and deletes index documents whose record is gone.
func (r *reconciler) ReconcileRepository(ctx context.Context, repositoryID string) (*svc.ReconcileReport, error) {
	report := &svc.ReconcileReport{Repositories: 1}

	repo, err := r.deps.Repositories.GetByID(ctx, repositoryID)
	if err != nil {
		return nil, err
	}

	actual, err := r.deps.Files.Aggregates(ctx, repo.ID)
	if err != nil {
		return nil, fmt.Errorf("compute aggregates: %w", err)
	}

	var indexed models.RepositoryDocument
	indexErr := r.deps.Index.Get(ctx, r.deps.Indices.Repositories, repo.ID, &indexed)
	if indexErr != nil && !errors.Is(indexErr, domain.ErrNotFound) {
		return nil, fmt.Errorf("get repository document: %w", indexErr)
	}
	indexDiffers := indexErr == nil &&
		(indexed.LinesOfCode != actual.LinesOfCode || indexed.NumberOfFiles != actual.NumberOfFiles)

	if actual != repo.Aggregates() || indexDiffers {
		if err := r.tracker.Set(ctx, repo.ID, actual); err != nil {
			return nil, err
		}
		report.AggregatesFixed++
		r.logger.Warn("repository aggregates repaired",
			"repository_id", repo.ID,
			"stored_lines_of_code", repo.LinesOfCode,
			"stored_number_of_files", repo.NumberOfFiles,
			"lines_of_code", actual.LinesOfCode,
			"number_of_files", actual.NumberOfFiles,
		)
	}

	files, err := r.deleteOrphans(ctx, models.EntityFile, repo.ID, r.deps.Files.ExistingIDs)
	if err != nil {
		return nil, err
	}
	folders, err := r.deleteOrphans(ctx, models.EntityFolder, repo.ID, r.deps.Folders.ExistingIDs)
	if err != nil {
		return nil, err
	}
	report.OrphanFilesDeleted = files
	report.OrphanFoldersDeleted = folders
	return report, nil
}

// ReconcileAll reconciles every repository. A failure on one repository
// does not stop the others; all failures are returned together.
func (r *reconciler) ReconcileAll(ctx context.Context) (*svc.ReconcileReport, error) {
	ids, err := r.deps.Repositories.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}

	total := &svc.ReconcileReport{}
	var result *multierror.Error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		report, err := r.ReconcileRepository(ctx, id)
		if err != nil {
			r.logger.Error("reconcile failed", "repository_id", id, "error", err)
			result = multierror.Append(result, fmt.Errorf("repository %s: %w", id, err))
			continue
		}
		total.Merge(report)
	}

	r.logger.Info("reconcile finished",
		"repositories", total.Repositories,
		"aggregates_fixed", total.AggregatesFixed,
		"orphan_files_deleted", total.OrphanFilesDeleted,
		"orphan_folders_deleted", total.OrphanFoldersDeleted,
	)
	return total, result.ErrorOrNil()
}

// SweepRepository deletes every file and folder index document of a repository
func (r *reconciler) SweepRepository(ctx context.Context, repositoryID string) (int, error) {
	return sweepIndex(ctx, r.deps, repositoryID)
}

type existingIDsFunc func(ctx context.Context, repositoryID string, ids []string) ([]string, error)

func (r *reconciler) deleteOrphans(ctx context.Context, entity models.EntityClass, repositoryID string, existing existingIDsFunc) (int, error) {
	index := r.deps.Indices.ForEntity(entity)
	ids, err := r.deps.Index.Search(ctx, index, inRepository(repositoryID))
	if err != nil {
		return 0, fmt.Errorf("search %s documents: %w", entity, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	found, err := existing(ctx, repositoryID, ids)
	if err != nil {
		return 0, fmt.Errorf("check %s records: %w", entity, err)
	}
	keep := make(map[string]bool, len(found))
	for _, id := range found {
		keep[id] = true
	}

	var writes []models.Write
	for _, id := range ids {
		if !keep[id] {
			writes = append(writes, models.DeleteWrite(id, repositoryID))
		}
	}
	if len(writes) == 0 {
		return 0, nil
	}
	if err := r.deps.Index.Bulk(ctx, index, writes); err != nil {
		return 0, domain.NewPartialWriteError(string(entity), "index", err)
	}
	r.logger.Warn("orphan index documents deleted", "entity", entity, "repository_id", repositoryID, "count", len(writes))
	return len(writes), nil
}

// sweepIndex deletes the file and folder documents left in the index for a
// repository, page by page. An index that does not refresh after writes
// keeps returning deleted ids, so a page holding only ids already deleted
// ends the sweep of that entity.
func sweepIndex(ctx context.Context, deps *Dependencies, repositoryID string) (int, error) {
	total := 0
	for _, entity := range []models.EntityClass{models.EntityFile, models.EntityFolder} {
		index := deps.Indices.ForEntity(entity)
		deleted := make(map[string]bool)
		for page := 0; page < maxSweepPages; page++ {
			found, err := deps.Index.Search(ctx, index, inRepository(repositoryID))
			if err != nil {
				return total, fmt.Errorf("search %s documents: %w", entity, err)
			}
			ids := make([]string, 0, len(found))
			for _, id := range found {
				if !deleted[id] {
					ids = append(ids, id)
				}
			}
			if len(ids) == 0 {
				break
			}
			writes := make([]models.Write, len(ids))
			for i, id := range ids {
				writes[i] = models.DeleteWrite(id, repositoryID)
			}
			if err := deps.Index.Bulk(ctx, index, writes); err != nil {
				return total, domain.NewPartialWriteError(string(entity), "index", err)
			}
			for _, id := range ids {
				deleted[id] = true
			}
			total += len(ids)
			if len(found) < sweepPageSize {
				break
			}
		}
	}
	return total, nil
}

func inRepository(repositoryID string) repositories.Query {
	return repositories.Query{
		Must: []repositories.Term{{Field: "repository", Value: repositoryID}},
		Size: sweepPageSize,
	}
}
