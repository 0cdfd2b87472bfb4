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

const folderColumns = `id, project_id, repository_id, parent_id, path, name, branches, public, created_at, updated_at`

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) repos.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var f models.Folder
	err := row.Scan(
		&f.ID,
		&f.ProjectID,
		&f.RepositoryID,
		&f.ParentID,
		&f.Path,
		&f.Name,
		&f.Branches,
		&f.Public,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID retrieves a folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, folderColumns, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	f, err := scanFolder(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return f, nil
}

// GetByPath retrieves the folder at path. The base folder has path "".
func (r *PostgresFolderRepository) GetByPath(ctx context.Context, repositoryID, path string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE repository_id = $1 AND path = $2`, folderColumns, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	f, err := scanFolder(executor.QueryRow(ctx, query, repositoryID, path))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %q: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder by path: %w", err)
	}
	return f, nil
}

// Find lists folders matching the filter, ordered by path
func (r *PostgresFolderRepository) Find(ctx context.Context, filter repos.FolderFilter) ([]models.Folder, error) {
	var where []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, strings.ReplaceAll(clause, "$?", fmt.Sprintf("$%d", len(args))))
	}
	if filter.RepositoryID != "" {
		add("repository_id = $?", filter.RepositoryID)
	}
	if filter.Branch != "" {
		add("$? = ANY(branches)", filter.Branch)
	}
	if len(filter.IDs) > 0 {
		add("id = ANY($?)", filter.IDs)
	}
	if filter.PathPrefix != "" {
		add("(path = $? OR starts_with(path, $? || '/'))", filter.PathPrefix)
	}
	if len(where) == 0 {
		return nil, fmt.Errorf("%w: folder query without filter", domain.ErrValidation)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY path`,
		folderColumns, r.tables.Folders, strings.Join(where, " AND "))

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find folders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

// CountOnBranch counts the folders directly inside parentID on branch
func (r *PostgresFolderRepository) CountOnBranch(ctx context.Context, repositoryID, parentID, branch string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE repository_id = $1 AND parent_id = $2 AND $3 = ANY(branches)
	`, r.tables.Folders)

	var n int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, repositoryID, parentID, branch).Scan(&n); err != nil {
		return 0, fmt.Errorf("count folders: %w", err)
	}
	return n, nil
}

// ExistingIDs returns the subset of ids with a folder record in the repository
func (r *PostgresFolderRepository) ExistingIDs(ctx context.Context, repositoryID string, ids []string) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE repository_id = $1 AND id = ANY($2)`, r.tables.Folders)
	return existingIDs(ctx, postgres.GetExecutor(ctx, r.pool), query, repositoryID, ids)
}

// BulkWrite applies add, update and delete items in one batch
func (r *PostgresFolderRepository) BulkWrite(ctx context.Context, writes []models.Write) error {
	batch := &pgx.Batch{}
	labels := make([]string, 0, len(writes))

	for _, w := range writes {
		switch w.Action {
		case models.WriteAdd:
			f, ok := w.Document.(*models.Folder)
			if !ok {
				return fmt.Errorf("folder %s: unexpected document %T", w.ID, w.Document)
			}
			batch.Queue(fmt.Sprintf(`
				INSERT INTO %s (%s)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			`, r.tables.Folders, folderColumns),
				f.ID, f.ProjectID, f.RepositoryID, f.ParentID, f.Path, f.Name,
				f.Branches, f.Public, f.CreatedAt, f.UpdatedAt,
			)
		case models.WriteUpdate:
			if w.Patch == nil {
				return fmt.Errorf("folder %s: update without patch", w.ID)
			}
			batch.Queue(fmt.Sprintf(`
				UPDATE %s SET branches = %s, updated_at = $4
				WHERE id = $1
			`, r.tables.Folders, branchPatchExpr),
				w.ID, w.Patch.RemoveBranch, w.Patch.AddBranch, w.Patch.UpdatedAt,
			)
		case models.WriteDelete:
			batch.Queue(fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND repository_id = $2`, r.tables.Folders),
				w.ID, w.RepositoryID)
		default:
			return fmt.Errorf("folder %s: unknown action %q", w.ID, w.Action)
		}
		labels = append(labels, fmt.Sprintf("%s folder %s", w.Action, w.ID))
	}

	if err := postgres.ExecBatch(ctx, postgres.GetExecutor(ctx, r.pool), batch, labels); err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("bulk write folders: %w: %v", domain.ErrConflict, err)
		}
		return fmt.Errorf("bulk write folders: %w", err)
	}
	return nil
}
