package structure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
)

func TestReconcileRepositoryRepairsCounters(t *testing.T) {
	f := newFixture(t)
	f.repo("r1", "main")
	f.file("r1", "a", "r1-base", "a.go", 4, "main")
	f.file("r1", "b", "r1-base", "b.go", 6, "main")

	// index diverged after a failed second write
	require.NoError(t, f.index.Update(context.Background(), f.indices.Repositories, "r1",
		models.NewAggregatesDocument(models.Aggregates{LinesOfCode: 99, NumberOfFiles: 7}, testNow)))

	report, err := f.reconciler.ReconcileRepository(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, 1, report.AggregatesFixed)
	doc, idx := f.aggregates("r1")
	assert.Equal(t, models.Aggregates{LinesOfCode: 10, NumberOfFiles: 2}, doc)
	assert.Equal(t, doc, idx)
}

func TestReconcileRepositoryDeletesOrphans(t *testing.T) {
	f := newFixture(t)
	f.repo("r1", "main")
	f.file("r1", "a", "r1-base", "a.go", 4, "main")
	f.mustIndex(f.indices.Files, "ghost", &models.FileDocument{Repository: "r1", Path: "ghost.go"})
	f.mustIndex(f.indices.Folders, "ghost-dir", &models.FolderDocument{Repository: "r1", Path: "ghost"})

	report, err := f.reconciler.ReconcileRepository(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, 0, report.AggregatesFixed)
	assert.Equal(t, 1, report.OrphanFilesDeleted)
	assert.Equal(t, 1, report.OrphanFoldersDeleted)
	assert.Nil(t, f.index.Source(f.indices.Files, "ghost"))
	assert.Nil(t, f.index.Source(f.indices.Folders, "ghost-dir"))
	assert.NotNil(t, f.index.Source(f.indices.Files, "a"))
	assert.NotNil(t, f.index.Source(f.indices.Folders, "r1-base"))
}

func TestReconcileAll(t *testing.T) {
	f := newFixture(t)
	f.repo("r1", "main")
	f.repo("r2", "main")
	f.file("r2", "a", "r2-base", "a.go", 4, "main")
	f.store.PutRepository(models.Repository{ID: "r2", Branches: []string{"main"}, FolderID: "r2-base"})

	report, err := f.reconciler.ReconcileAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Repositories)
	assert.Equal(t, 1, report.AggregatesFixed)
	doc, idx := f.aggregates("r2")
	assert.Equal(t, models.Aggregates{LinesOfCode: 4, NumberOfFiles: 1}, doc)
	assert.Equal(t, doc, idx)
}

func TestSweepRepository(t *testing.T) {
	f := newFixture(t)
	f.repo("r1", "main")
	f.repo("r2", "main")
	f.file("r1", "a", "r1-base", "a.go", 4, "main")
	f.file("r2", "b", "r2-base", "b.go", 4, "main")

	n, err := f.reconciler.SweepRepository(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Zero(t, f.index.Count(f.indices.Files, "repository", "r1"))
	assert.Zero(t, f.index.Count(f.indices.Folders, "repository", "r1"))
	assert.Equal(t, 1, f.index.Count(f.indices.Files, "repository", "r2"))
}

func TestTrackerApplyDelta(t *testing.T) {
	f := newFixture(t)
	f.repo("r1", "main")
	tracker := NewTracker(f.deps)

	got, err := tracker.ApplyDelta(context.Background(), "r1", models.Delta{LinesOfCode: 12, Files: 2})
	require.NoError(t, err)
	assert.Equal(t, models.Aggregates{LinesOfCode: 12, NumberOfFiles: 2}, got)

	got, err = tracker.ApplyDelta(context.Background(), "r1", models.Delta{LinesOfCode: -2, Files: -1})
	require.NoError(t, err)
	assert.Equal(t, models.Aggregates{LinesOfCode: 10, NumberOfFiles: 1}, got)

	doc, idx := f.aggregates("r1")
	assert.Equal(t, got, doc)
	assert.Equal(t, got, idx)
	assert.EqualValues(t, testNow.UnixMilli(), f.index.Source(f.indices.Repositories, "r1")["updated"])

	_, err = tracker.ApplyDelta(context.Background(), "missing", models.Delta{Files: 1})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = tracker.ApplyDelta(context.Background(), "missing", models.Delta{})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTrackerIndexFailureIsPartialWrite(t *testing.T) {
	f := newFixture(t)
	f.repo("r1", "main")
	tracker := NewTracker(f.deps)
	f.deps.Indices.Repositories = "missing_index"

	_, err := tracker.ApplyDelta(context.Background(), "r1", models.Delta{LinesOfCode: 1, Files: 1})

	assert.True(t, errors.Is(err, domain.ErrPartialWrite))
	repo, getErr := f.store.Repositories().GetByID(context.Background(), "r1")
	require.NoError(t, getErr)
	assert.Equal(t, 1, repo.NumberOfFiles)
}

// staleIndex answers file searches with a full page that never changes,
// like an index that is not refreshed after deletes.
type staleIndex struct {
	repositories.SearchIndex
	files string
	page  []string
	bulks map[string]int
}

func (s *staleIndex) Search(ctx context.Context, index string, q repositories.Query) ([]string, error) {
	if index == s.files {
		return s.page, nil
	}
	return s.SearchIndex.Search(ctx, index, q)
}

func (s *staleIndex) Bulk(ctx context.Context, index string, writes []models.Write) error {
	s.bulks[index]++
	return s.SearchIndex.Bulk(ctx, index, writes)
}

func TestSweepRepositoryStopsOnStalePages(t *testing.T) {
	f := newFixture(t)
	f.repo("r1", "main")
	page := make([]string, sweepPageSize)
	for i := range page {
		page[i] = fmt.Sprintf("file-%d", i)
	}
	stale := &staleIndex{SearchIndex: f.index, files: f.indices.Files, page: page, bulks: map[string]int{}}
	f.deps.Index = stale

	n, err := f.reconciler.SweepRepository(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, sweepPageSize+1, n)
	assert.Equal(t, 1, stale.bulks[f.indices.Files])
	assert.Equal(t, 1, stale.bulks[f.indices.Folders])
}
