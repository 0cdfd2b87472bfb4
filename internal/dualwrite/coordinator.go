package dualwrite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
)

const defaultChunkSize = 500

// DocumentWriter applies bulk writes to the document store
type DocumentWriter interface {
	BulkWrite(ctx context.Context, writes []models.Write) error
}

// Config holds the stores a Coordinator writes to
type Config struct {
	Files     DocumentWriter
	Folders   DocumentWriter
	Index     repositories.SearchIndex
	Indices   *repositories.IndexNames
	Blobs     repositories.BlobStore
	ChunkSize int // max items per bulk request, 0 = default
	Logger    *slog.Logger
}

// Coordinator flushes the pending writes of a Unit to the document store,
// the search index and the blob store. Bulk writes are not atomic and
// nothing already applied is rolled back when a later write fails.
type Coordinator struct {
	docs      map[models.EntityClass]DocumentWriter
	index     repositories.SearchIndex
	indices   *repositories.IndexNames
	blobs     repositories.BlobStore
	chunkSize int
	logger    *slog.Logger
}

// NewCoordinator creates a coordinator over the given stores
func NewCoordinator(cfg Config) *Coordinator {
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		docs: map[models.EntityClass]DocumentWriter{
			models.EntityFile:   cfg.Files,
			models.EntityFolder: cfg.Folders,
		},
		index:     cfg.Index,
		indices:   cfg.Indices,
		blobs:     cfg.Blobs,
		chunkSize: chunk,
		logger:    logger,
	}
}

// Begin returns the unit an operation should stage into. With a nil outer
// unit a fresh one is allocated and owned is true: the operation must flush
// it. Otherwise the caller's unit is joined and the caller flushes.
func (c *Coordinator) Begin(outer *Unit) (u *Unit, owned bool) {
	if outer != nil {
		return outer, false
	}
	return newUnit(), true
}

// Flush writes the pending writes of entity to the document store, then to
// the search index.
func (c *Coordinator) Flush(ctx context.Context, u *Unit, entity models.EntityClass) error {
	if err := c.FlushTarget(ctx, u, entity, TargetDocument); err != nil {
		return err
	}
	return c.FlushTarget(ctx, u, entity, TargetIndex)
}

// FlushTarget writes the pending writes of one (entity, target) slot.
// The slot is emptied even when the write fails.
func (c *Coordinator) FlushTarget(ctx context.Context, u *Unit, entity models.EntityClass, target Target) error {
	writes := u.take(entity, target)
	if len(writes) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch target {
	case TargetDocument:
		w, ok := c.docs[entity]
		if !ok || w == nil {
			return fmt.Errorf("no document writer for %s", entity)
		}
		err = c.chunked(writes, func(chunk []models.Write) error {
			return w.BulkWrite(ctx, chunk)
		})
	case TargetIndex:
		index := c.indices.ForEntity(entity)
		err = c.chunked(writes, func(chunk []models.Write) error {
			return c.index.Bulk(ctx, index, chunk)
		})
	default:
		return fmt.Errorf("cannot flush %s writes to %s", entity, target)
	}
	flushDuration.WithLabelValues(string(entity), string(target)).Observe(time.Since(start).Seconds())

	if err != nil {
		flushFailures.WithLabelValues(string(entity), string(target)).Inc()
		c.logger.Error("bulk flush failed",
			"entity", entity,
			"target", target,
			"writes", len(writes),
			"error", err,
		)
		return domain.NewPartialWriteError(string(entity), string(target), err)
	}

	for _, w := range writes {
		flushedWrites.WithLabelValues(string(entity), string(target), string(w.Action)).Inc()
	}
	c.logger.Debug("bulk flush",
		"entity", entity,
		"target", target,
		"writes", len(writes),
	)
	return nil
}

// FlushBlobs deletes every pending blob. All keys are attempted; failures
// are combined.
func (c *Coordinator) FlushBlobs(ctx context.Context, u *Unit) error {
	keys := u.blobs
	u.blobs = nil
	if len(keys) == 0 {
		return nil
	}

	var result *multierror.Error
	for _, key := range keys {
		if err := c.blobs.Delete(ctx, key); err != nil {
			result = multierror.Append(result, fmt.Errorf("delete blob %s: %w", key, err))
			continue
		}
		flushedWrites.WithLabelValues("blob", string(TargetBlob), string(models.WriteDelete)).Inc()
	}
	if err := result.ErrorOrNil(); err != nil {
		flushFailures.WithLabelValues("blob", string(TargetBlob)).Inc()
		c.logger.Error("blob cleanup failed", "keys", len(keys), "error", err)
		return domain.NewPartialWriteError("blob", string(TargetBlob), err)
	}
	return nil
}

// FlushAll writes the document store side of files and folders, then the
// search index side, then deletes pending blobs.
func (c *Coordinator) FlushAll(ctx context.Context, u *Unit) error {
	for _, target := range []Target{TargetDocument, TargetIndex} {
		for _, entity := range []models.EntityClass{models.EntityFile, models.EntityFolder} {
			if err := c.FlushTarget(ctx, u, entity, target); err != nil {
				return err
			}
		}
	}
	return c.FlushBlobs(ctx, u)
}

func (c *Coordinator) chunked(writes []models.Write, fn func([]models.Write) error) error {
	for start := 0; start < len(writes); start += c.chunkSize {
		end := min(start+c.chunkSize, len(writes))
		if err := fn(writes[start:end]); err != nil {
			return err
		}
	}
	return nil
}
