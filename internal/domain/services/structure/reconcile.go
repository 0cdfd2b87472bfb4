package structure

import "context"

// Reconciler repairs divergence between the document store and the search
// index left behind by partial write failures.
type Reconciler interface {
	// ReconcileRepository fixes the counters and index orphans of one repository
	ReconcileRepository(ctx context.Context, repositoryID string) (*ReconcileReport, error)

	// ReconcileAll reconciles every repository in sequence
	ReconcileAll(ctx context.Context) (*ReconcileReport, error)

	// SweepRepository deletes every index document left for a deleted repository
	SweepRepository(ctx context.Context, repositoryID string) (int, error)
}

// ReconcileReport counts the repairs made
type ReconcileReport struct {
	Repositories         int `json:"repositories"`
	AggregatesFixed      int `json:"aggregates_fixed"`
	OrphanFilesDeleted   int `json:"orphan_files_deleted"`
	OrphanFoldersDeleted int `json:"orphan_folders_deleted"`
}

// Merge adds the counts of other into r
func (r *ReconcileReport) Merge(other *ReconcileReport) {
	r.Repositories += other.Repositories
	r.AggregatesFixed += other.AggregatesFixed
	r.OrphanFilesDeleted += other.OrphanFilesDeleted
	r.OrphanFoldersDeleted += other.OrphanFoldersDeleted
}
