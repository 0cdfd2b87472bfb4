package postgres

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"rescribe/internal/domain/repositories"
)

// ExecBatch sends batch in one round trip and reads the result of every
// queued statement. Item failures are combined.
func ExecBatch(ctx context.Context, exec repositories.DBTX, batch *pgx.Batch, labels []string) error {
	if batch.Len() == 0 {
		return nil
	}
	results := exec.SendBatch(ctx, batch)

	var result *multierror.Error
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			label := fmt.Sprintf("item %d", i)
			if i < len(labels) {
				label = labels[i]
			}
			result = multierror.Append(result, fmt.Errorf("%s: %w", label, err))
		}
	}
	if err := results.Close(); err != nil && result == nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return result.ErrorOrNil()
}
