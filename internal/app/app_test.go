package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rescribe/internal/config"
)

func TestBuildFallsBackToMemoryOutsideProd(t *testing.T) {
	cfg := &config.Config{Environment: "test", IndexPrefix: "test_", BulkChunkSize: 100}

	a, err := Build(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Deletion)
	assert.NotNil(t, a.Indexing)
	assert.NotNil(t, a.Reconciler)

	report, err := a.Reconciler.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Repositories)
}

func TestBuildRequiresStoresInProd(t *testing.T) {
	cfg := &config.Config{Environment: "prod"}

	_, err := Build(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
