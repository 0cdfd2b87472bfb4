package structure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	repos "rescribe/internal/domain/repositories/structure"
	"rescribe/internal/repository/postgres"
)

// PostgresRepositoryRepository implements the RepositoryRepository interface
type PostgresRepositoryRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewRepositoryRepository creates a new repository record store
func NewRepositoryRepository(config *postgres.RepositoryConfig) repos.RepositoryRepository {
	return &PostgresRepositoryRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByID retrieves a repository by ID
func (r *PostgresRepositoryRepository) GetByID(ctx context.Context, id string) (*models.Repository, error) {
	query := fmt.Sprintf(`
		SELECT id, name, owner, branches, public, folder_id, lines_of_code, number_of_files, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Repositories)

	var repo models.Repository
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&repo.ID,
		&repo.Name,
		&repo.Owner,
		&repo.Branches,
		&repo.Public,
		&repo.FolderID,
		&repo.LinesOfCode,
		&repo.NumberOfFiles,
		&repo.CreatedAt,
		&repo.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("repository %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get repository: %w", err)
	}
	return &repo, nil
}

// ListIDs returns every repository ID in ascending order
func (r *PostgresRepositoryRepository) ListIDs(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, r.tables.Repositories)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan repository id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ApplyDelta adds delta to the counters in place and returns the new values
func (r *PostgresRepositoryRepository) ApplyDelta(ctx context.Context, id string, delta models.Delta, updatedAt time.Time) (models.Aggregates, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET lines_of_code = lines_of_code + $2,
		    number_of_files = number_of_files + $3,
		    updated_at = $4
		WHERE id = $1
		RETURNING lines_of_code, number_of_files
	`, r.tables.Repositories)

	var a models.Aggregates
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, delta.LinesOfCode, delta.Files, updatedAt).Scan(&a.LinesOfCode, &a.NumberOfFiles)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return a, fmt.Errorf("repository %s: %w", id, domain.ErrNotFound)
		}
		return a, fmt.Errorf("apply aggregate delta: %w", err)
	}
	return a, nil
}

// SetAggregates overwrites the counters
func (r *PostgresRepositoryRepository) SetAggregates(ctx context.Context, id string, a models.Aggregates, updatedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET lines_of_code = $2, number_of_files = $3, updated_at = $4
		WHERE id = $1
	`, r.tables.Repositories)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, a.LinesOfCode, a.NumberOfFiles, updatedAt)
	if err != nil {
		return fmt.Errorf("set aggregates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// RemoveBranch drops branch from the branch set
func (r *PostgresRepositoryRepository) RemoveBranch(ctx context.Context, id, branch string, updatedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET branches = array_remove(branches, $2), updated_at = $3
		WHERE id = $1
	`, r.tables.Repositories)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, branch, updatedAt)
	if err != nil {
		return fmt.Errorf("remove repository branch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes the repository record
func (r *PostgresRepositoryRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Repositories)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
