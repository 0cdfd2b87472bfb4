package repositories

import (
	"context"
	"fmt"
)

// BlobStore holds file content and media objects
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error

	// Delete removes the object; deleting a missing object is not an error
	Delete(ctx context.Context, key string) error
}

// FileKey is the blob key of a file's content. File IDs are shared across
// branches, so one object serves every branch of the file.
func FileKey(repositoryID, fileID string) string {
	return fmt.Sprintf("files/%s/%s", repositoryID, fileID)
}

// MediaKey is the blob key of a media object
func MediaKey(mediaID string) string {
	return fmt.Sprintf("media/%s", mediaID)
}
