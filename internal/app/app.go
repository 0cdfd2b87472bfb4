// Package app wires the stores and services shared by the server and the
// admin CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rescribe/internal/analysis"
	"rescribe/internal/config"
	"rescribe/internal/domain/repositories"
	svc "rescribe/internal/domain/services/structure"
	"rescribe/internal/dualwrite"
	"rescribe/internal/repository/memory"
	"rescribe/internal/repository/postgres"
	pgstructure "rescribe/internal/repository/postgres/structure"
	"rescribe/internal/search"
	"rescribe/internal/service/auth"
	"rescribe/internal/service/structure"
	s3store "rescribe/internal/storage/s3"
)

// App holds the constructed services
type App struct {
	Deletion   svc.DeletionService
	Indexing   svc.IndexingService
	Reconciler svc.Reconciler

	closers []func()
}

// Close releases connections in reverse order of creation
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Build connects to the configured stores. Outside prod, a store left
// unconfigured falls back to its in-memory implementation.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{}
	deps := &structure.Dependencies{Logger: logger}

	if err := a.documentStore(ctx, cfg, logger, deps); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.searchIndex(ctx, cfg, logger, deps); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.blobStore(ctx, cfg, logger, deps); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.AnalysisURL != "" {
		deps.Analyzer = analysis.NewClient(analysis.Config{BaseURL: cfg.AnalysisURL}, logger)
	} else {
		logger.Warn("ANALYSIS_URL not set, files are indexed without analysis")
	}

	deps.Authorizer = auth.NewAuthorizer(deps.Users, auth.NewChecker())
	deps.Coordinator = dualwrite.NewCoordinator(dualwrite.Config{
		Files:     deps.Files,
		Folders:   deps.Folders,
		Index:     deps.Index,
		Indices:   deps.Indices,
		Blobs:     deps.Blobs,
		ChunkSize: cfg.BulkChunkSize,
		Logger:    logger,
	})

	a.Deletion = structure.NewDeletionService(deps)
	a.Indexing = structure.NewIndexingService(deps)
	a.Reconciler = structure.NewReconciler(deps)
	return a, nil
}

func (a *App) documentStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *structure.Dependencies) error {
	if cfg.DatabaseURL == "" {
		if cfg.Environment == "prod" {
			return errors.New("DATABASE_URL is required in prod")
		}
		logger.Warn("DATABASE_URL not set, using in-memory document store")
		store := memory.NewStore()
		deps.Files = store.Files()
		deps.Folders = store.Folders()
		deps.Repositories = store.Repositories()
		deps.Projects = store.Projects()
		deps.Users = store.Users()
		deps.Media = store.Media()
		deps.TxManager = memory.NewTransactionManager()
		return nil
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, pool.Close)

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		return err
	}
	logger.Info("database connected", "table_prefix", cfg.TablePrefix)

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	deps.Files = pgstructure.NewFileRepository(repoConfig)
	deps.Folders = pgstructure.NewFolderRepository(repoConfig)
	deps.Repositories = pgstructure.NewRepositoryRepository(repoConfig)
	deps.Projects = pgstructure.NewProjectRepository(repoConfig)
	deps.Users = pgstructure.NewUserRepository(repoConfig)
	deps.Media = pgstructure.NewMediaRepository(repoConfig)
	deps.TxManager = postgres.NewTransactionManager(pool, logger)
	return nil
}

func (a *App) searchIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *structure.Dependencies) error {
	deps.Indices = repositories.NewIndexNames(cfg.IndexPrefix)

	if len(cfg.ElasticsearchURLs) == 0 {
		if cfg.Environment == "prod" {
			return errors.New("ELASTICSEARCH_URLS is required in prod")
		}
		logger.Warn("ELASTICSEARCH_URLS not set, using in-memory search index")
		deps.Index = memory.NewIndex()
		return nil
	}

	client, err := search.NewClient(search.Config{
		Addresses: cfg.ElasticsearchURLs,
		Username:  cfg.ElasticsearchUsername,
		Password:  cfg.ElasticsearchPassword,
		Refresh:   cfg.ElasticsearchRefresh,
	}, logger)
	if err != nil {
		return err
	}
	if err := client.EnsureIndices(ctx, deps.Indices); err != nil {
		return fmt.Errorf("ensure indices: %w", err)
	}
	deps.Index = client
	logger.Info("search index connected", "index_prefix", cfg.IndexPrefix)
	return nil
}

func (a *App) blobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *structure.Dependencies) error {
	if cfg.S3FileBucket == "" {
		if cfg.Environment == "prod" {
			return errors.New("S3_FILE_BUCKET is required in prod")
		}
		logger.Warn("S3_FILE_BUCKET not set, using in-memory blob store")
		deps.Blobs = memory.NewBlobStore()
		return nil
	}

	store, err := s3store.NewStore(ctx, s3store.Config{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.S3Endpoint,
		Bucket:          cfg.S3FileBucket,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}, logger)
	if err != nil {
		return err
	}
	deps.Blobs = store
	return nil
}
