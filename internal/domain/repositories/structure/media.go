package structure

import (
	"context"

	models "rescribe/internal/domain/models/structure"
)

// MediaRepository defines document store access for media records
type MediaRepository interface {
	ListByParent(ctx context.Context, parentID string, parentType models.MediaParentType) ([]models.Media, error)
	Delete(ctx context.Context, id string) error
}
