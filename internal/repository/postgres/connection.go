package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"rescribe/internal/domain/repositories"
)

//go:embed schema.sql
var schemaSQL string

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Prefix       string
	Repositories string
	Folders      string
	Files        string
	Projects     string
	Users        string
	Media        string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Prefix:       prefix,
		Repositories: fmt.Sprintf("%srepositories", prefix),
		Folders:      fmt.Sprintf("%sfolders", prefix),
		Files:        fmt.Sprintf("%sfiles", prefix),
		Projects:     fmt.Sprintf("%sprojects", prefix),
		Users:        fmt.Sprintf("%susers", prefix),
		Media:        fmt.Sprintf("%smedia", prefix),
	}
}

// All returns every table name, children first
func (t *TableNames) All() []string {
	return []string{t.Media, t.Files, t.Folders, t.Users, t.Projects, t.Repositories}
}

// CreateConnectionPool creates a pgx connection pool.
//
// Port 6543 is the PgBouncer transaction pooler, which does not support
// prepared statements. There the pool switches to QueryExecModeCacheDescribe,
// which keeps the extended protocol (needed for jsonb and text[] encoding)
// without creating server-side statements. An explicit
// default_query_exec_mode in the URL takes precedence.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the tables and indexes if they do not exist
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	sql := strings.ReplaceAll(schemaSQL, "{{prefix}}", tables.Prefix)
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// GetExecutor returns the transaction stored in ctx, or pool when there is none.
// Repositories use it to join a transaction started by TransactionManager.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
