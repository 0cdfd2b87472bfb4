package structure

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	repos "rescribe/internal/domain/repositories/structure"
	"rescribe/internal/repository/postgres"
)

const fileColumns = `id, project_id, repository_id, folder_id, path, name, location, branches, file_length, public, created_at, updated_at`

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *postgres.RepositoryConfig) repos.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanFile(row pgx.Row) (*models.File, error) {
	var f models.File
	err := row.Scan(
		&f.ID,
		&f.ProjectID,
		&f.RepositoryID,
		&f.FolderID,
		&f.Path,
		&f.Name,
		&f.Location,
		&f.Branches,
		&f.FileLength,
		&f.Public,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID retrieves a file by ID
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, fileColumns, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	f, err := scanFile(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}

// Find lists files matching the filter, ordered by path
func (r *PostgresFileRepository) Find(ctx context.Context, filter repos.FileFilter) ([]models.File, error) {
	var where []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.RepositoryID != "" {
		add("repository_id = $%d", filter.RepositoryID)
	}
	if filter.Branch != "" {
		add("$%d = ANY(branches)", filter.Branch)
	}
	if len(filter.IDs) > 0 {
		add("id = ANY($%d)", filter.IDs)
	}
	if len(filter.Paths) > 0 {
		add("path = ANY($%d)", filter.Paths)
	}
	if filter.FolderID != "" {
		add("folder_id = $%d", filter.FolderID)
	}
	if len(where) == 0 {
		return nil, fmt.Errorf("%w: file query without filter", domain.ErrValidation)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY path`,
		fileColumns, r.tables.Files, strings.Join(where, " AND "))

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find files: %w", err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

// CountOnBranch counts the files directly inside folderID on branch
func (r *PostgresFileRepository) CountOnBranch(ctx context.Context, repositoryID, folderID, branch string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE repository_id = $1 AND folder_id = $2 AND $3 = ANY(branches)
	`, r.tables.Files)

	var n int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, repositoryID, folderID, branch).Scan(&n); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

// Aggregates sums the line counts of every file of a repository
func (r *PostgresFileRepository) Aggregates(ctx context.Context, repositoryID string) (models.Aggregates, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(file_length), 0), COUNT(*) FROM %s WHERE repository_id = $1
	`, r.tables.Files)

	var a models.Aggregates
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, repositoryID).Scan(&a.LinesOfCode, &a.NumberOfFiles); err != nil {
		return a, fmt.Errorf("sum file lengths: %w", err)
	}
	return a, nil
}

// ExistingIDs returns the subset of ids with a file record in the repository
func (r *PostgresFileRepository) ExistingIDs(ctx context.Context, repositoryID string, ids []string) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE repository_id = $1 AND id = ANY($2)`, r.tables.Files)
	return existingIDs(ctx, postgres.GetExecutor(ctx, r.pool), query, repositoryID, ids)
}

// BulkWrite applies add, update and delete items in one batch
func (r *PostgresFileRepository) BulkWrite(ctx context.Context, writes []models.Write) error {
	batch := &pgx.Batch{}
	labels := make([]string, 0, len(writes))

	for _, w := range writes {
		switch w.Action {
		case models.WriteAdd:
			f, ok := w.Document.(*models.File)
			if !ok {
				return fmt.Errorf("file %s: unexpected document %T", w.ID, w.Document)
			}
			batch.Queue(fmt.Sprintf(`
				INSERT INTO %s (%s)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			`, r.tables.Files, fileColumns),
				f.ID, f.ProjectID, f.RepositoryID, f.FolderID, f.Path, f.Name,
				f.Location, f.Branches, f.FileLength, f.Public, f.CreatedAt, f.UpdatedAt,
			)
		case models.WriteUpdate:
			if w.Patch == nil {
				return fmt.Errorf("file %s: update without patch", w.ID)
			}
			batch.Queue(fmt.Sprintf(`
				UPDATE %s SET
					branches = %s,
					file_length = COALESCE($4, file_length),
					updated_at = $5
				WHERE id = $1
			`, r.tables.Files, branchPatchExpr),
				w.ID, w.Patch.RemoveBranch, w.Patch.AddBranch, w.Patch.FileLength, w.Patch.UpdatedAt,
			)
		case models.WriteDelete:
			batch.Queue(fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND repository_id = $2`, r.tables.Files),
				w.ID, w.RepositoryID)
		default:
			return fmt.Errorf("file %s: unknown action %q", w.ID, w.Action)
		}
		labels = append(labels, fmt.Sprintf("%s file %s", w.Action, w.ID))
	}

	if err := postgres.ExecBatch(ctx, postgres.GetExecutor(ctx, r.pool), batch, labels); err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("bulk write files: %w: %v", domain.ErrConflict, err)
		}
		return fmt.Errorf("bulk write files: %w", err)
	}
	return nil
}
