package structure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	repos "rescribe/internal/domain/repositories/structure"
	"rescribe/internal/repository/postgres"
)

// PostgresProjectRepository implements the ProjectRepository interface
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *postgres.RepositoryConfig) repos.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByID retrieves a project by ID
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, name, owner, repositories, access, public, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Projects)

	var p models.Project
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Owner,
		&p.Repositories,
		&p.Access,
		&p.Public,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// Delete removes the project record
func (r *PostgresProjectRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Projects)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// RemoveRepository pulls repositoryID from every project that lists it
func (r *PostgresProjectRepository) RemoveRepository(ctx context.Context, repositoryID string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET repositories = array_remove(repositories, $1), updated_at = now()
		WHERE $1 = ANY(repositories)
	`, r.tables.Projects)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, repositoryID)
	if err != nil {
		return 0, fmt.Errorf("remove repository from projects: %w", err)
	}
	r.logger.Debug("removed repository from projects", "repository_id", repositoryID, "projects", tag.RowsAffected())
	return tag.RowsAffected(), nil
}
