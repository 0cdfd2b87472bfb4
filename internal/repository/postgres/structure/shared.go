package structure

import (
	"context"
	"fmt"

	"rescribe/internal/domain/repositories"
)

// branchPatchExpr drops $2 from the branch set and appends $3 when it is
// set and not already present. Empty strings leave the set unchanged.
const branchPatchExpr = `CASE
	WHEN $3::text = '' OR $3::text = ANY(array_remove(branches, $2::text)) THEN array_remove(branches, $2::text)
	ELSE array_append(array_remove(branches, $2::text), $3::text)
END`

func existingIDs(ctx context.Context, executor repositories.DBTX, query, repositoryID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := executor.Query(ctx, query, repositoryID, ids)
	if err != nil {
		return nil, fmt.Errorf("query existing ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
