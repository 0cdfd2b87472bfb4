package structure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	models "rescribe/internal/domain/models/structure"
	repos "rescribe/internal/domain/repositories/structure"
	"rescribe/internal/repository/postgres"
)

// PostgresMediaRepository implements the MediaRepository interface
type PostgresMediaRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewMediaRepository creates a new media repository
func NewMediaRepository(config *postgres.RepositoryConfig) repos.MediaRepository {
	return &PostgresMediaRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// ListByParent lists the media attached to one record
func (r *PostgresMediaRepository) ListByParent(ctx context.Context, parentID string, parentType models.MediaParentType) ([]models.Media, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, parent_type, name, created_at
		FROM %s
		WHERE parent_id = $1 AND parent_type = $2
		ORDER BY id
	`, r.tables.Media)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, parentID, parentType)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var media []models.Media
	for rows.Next() {
		var m models.Media
		if err := rows.Scan(&m.ID, &m.ParentID, &m.ParentType, &m.Name, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		media = append(media, m)
	}
	return media, rows.Err()
}

// Delete removes a media record. Missing records are ignored.
func (r *PostgresMediaRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Media)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}
