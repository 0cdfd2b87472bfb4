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

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *postgres.RepositoryConfig) repos.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByID retrieves a user's access lists
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT id, repositories, projects FROM %s WHERE id = $1`, r.tables.Users)

	var u models.User
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&u.ID, &u.Repositories, &u.Projects); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// RemoveRepositoryAccess drops the repository entry from the user's access list
func (r *PostgresUserRepository) RemoveRepositoryAccess(ctx context.Context, userID, repositoryID string) error {
	return r.removeAccess(ctx, "repositories", userID, repositoryID)
}

// RemoveProjectAccess drops the project entry from the user's access list
func (r *PostgresUserRepository) RemoveProjectAccess(ctx context.Context, userID, projectID string) error {
	return r.removeAccess(ctx, "projects", userID, projectID)
}

// column is one of the two jsonb access list columns, never user input
func (r *PostgresUserRepository) removeAccess(ctx context.Context, column, userID, resourceID string) error {
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = COALESCE(
			(SELECT jsonb_agg(entry) FROM jsonb_array_elements(%[2]s) AS entry WHERE entry->>'id' <> $2),
			'[]'::jsonb
		)
		WHERE id = $1
	`, r.tables.Users, column)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, userID, resourceID)
	if err != nil {
		return fmt.Errorf("remove %s access: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}
