package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rescribe/internal/domain/repositories"
)

type fakeResults struct {
	pgx.BatchResults
	errs   []error
	next   int
	closed bool
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	err := r.errs[r.next]
	r.next++
	return pgconn.NewCommandTag("UPDATE 1"), err
}

func (r *fakeResults) Close() error {
	r.closed = true
	return nil
}

type fakeDB struct {
	repositories.DBTX
	results *fakeResults
	sent    int
}

func (d *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	d.sent++
	return d.results
}

func TestNewTableNames(t *testing.T) {
	tables := NewTableNames("test_")
	assert.Equal(t, "test_files", tables.Files)
	assert.Equal(t, "test_repositories", tables.Repositories)
	assert.Equal(t, []string{"test_media", "test_files", "test_folders", "test_users", "test_projects", "test_repositories"}, tables.All())
}

func TestExecBatchEmpty(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, ExecBatch(context.Background(), db, &pgx.Batch{}, nil))
	assert.Zero(t, db.sent)
}

func TestExecBatchCombinesItemErrors(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	db := &fakeDB{results: &fakeResults{errs: []error{nil, dup, errors.New("boom")}}}

	batch := &pgx.Batch{}
	for i := 0; i < 3; i++ {
		batch.Queue("SELECT 1")
	}
	err := ExecBatch(context.Background(), db, batch, []string{"add file a", "add file b"})
	require.Error(t, err)
	assert.True(t, db.results.closed)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 2)
	assert.True(t, strings.HasPrefix(merr.Errors[0].Error(), "add file b:"))
	assert.True(t, strings.HasPrefix(merr.Errors[1].Error(), "item 2:"))
	assert.True(t, IsPgDuplicateError(err))
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsPgNoRowsError(fmt.Errorf("get file: %w", pgx.ErrNoRows)))
	assert.False(t, IsPgNoRowsError(errors.New("other")))
	assert.False(t, IsPgDuplicateError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsPgDuplicateError(nil))
}
