package structure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
	repos "rescribe/internal/domain/repositories/structure"
)

// Tracker maintains the linesOfCode and numberOfFiles counters of a
// repository in both stores.
type Tracker struct {
	repositories repos.RepositoryRepository
	index        repositories.SearchIndex
	indices      *repositories.IndexNames
	clock        func() time.Time
	logger       *slog.Logger
}

// NewTracker creates an aggregate tracker
func NewTracker(deps *Dependencies) *Tracker {
	return &Tracker{
		repositories: deps.Repositories,
		index:        deps.Index,
		indices:      deps.Indices,
		clock:        deps.now,
		logger:       deps.logger(),
	}
}

// ApplyDelta adds delta to the counters of a repository. The document store
// is updated first and the search index receives the values it returned.
// A zero delta writes nothing but still requires the repository to exist.
func (t *Tracker) ApplyDelta(ctx context.Context, repositoryID string, delta models.Delta) (models.Aggregates, error) {
	if delta.IsZero() {
		repo, err := t.repositories.GetByID(ctx, repositoryID)
		if err != nil {
			return models.Aggregates{}, err
		}
		return repo.Aggregates(), nil
	}

	now := t.clock()
	aggregates, err := t.repositories.ApplyDelta(ctx, repositoryID, delta, now)
	if err != nil {
		return models.Aggregates{}, fmt.Errorf("apply delta: %w", err)
	}

	if err := t.index.Update(ctx, t.indices.Repositories, repositoryID, models.NewAggregatesDocument(aggregates, now)); err != nil {
		t.logger.Error("aggregates diverged",
			"repository_id", repositoryID,
			"lines_of_code", aggregates.LinesOfCode,
			"number_of_files", aggregates.NumberOfFiles,
			"error", err,
		)
		return aggregates, domain.NewPartialWriteError("repository", "index", err)
	}

	t.logger.Debug("aggregates updated",
		"repository_id", repositoryID,
		"lines_of_code_delta", delta.LinesOfCode,
		"files_delta", delta.Files,
	)
	return aggregates, nil
}

// Set overwrites the counters in both stores
func (t *Tracker) Set(ctx context.Context, repositoryID string, aggregates models.Aggregates) error {
	now := t.clock()
	if err := t.repositories.SetAggregates(ctx, repositoryID, aggregates, now); err != nil {
		return fmt.Errorf("set aggregates: %w", err)
	}
	if err := t.index.Update(ctx, t.indices.Repositories, repositoryID, models.NewAggregatesDocument(aggregates, now)); err != nil {
		return domain.NewPartialWriteError("repository", "index", err)
	}
	return nil
}
