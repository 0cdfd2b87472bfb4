package dualwrite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
)

type recordingWriter struct {
	batches [][]models.Write
	err     error
}

func (w *recordingWriter) BulkWrite(ctx context.Context, writes []models.Write) error {
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, writes)
	return nil
}

type recordingIndex struct {
	repositories.SearchIndex
	calls []string
	err   error
}

func (x *recordingIndex) Bulk(ctx context.Context, index string, writes []models.Write) error {
	if x.err != nil {
		return x.err
	}
	for range writes {
		x.calls = append(x.calls, index)
	}
	return nil
}

type recordingBlobs struct {
	deleted []string
	fail    map[string]error
}

func (b *recordingBlobs) Put(ctx context.Context, key string, body []byte, contentType string) error {
	return nil
}

func (b *recordingBlobs) Delete(ctx context.Context, key string) error {
	if err := b.fail[key]; err != nil {
		return err
	}
	b.deleted = append(b.deleted, key)
	return nil
}

type harness struct {
	files   *recordingWriter
	folders *recordingWriter
	index   *recordingIndex
	blobs   *recordingBlobs
	c       *Coordinator
}

func newHarness(chunk int) *harness {
	h := &harness{
		files:   &recordingWriter{},
		folders: &recordingWriter{},
		index:   &recordingIndex{},
		blobs:   &recordingBlobs{},
	}
	h.c = NewCoordinator(Config{
		Files:     h.files,
		Folders:   h.folders,
		Index:     h.index,
		Indices:   repositories.NewIndexNames("t_"),
		Blobs:     h.blobs,
		ChunkSize: chunk,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return h
}

func TestBeginOwnership(t *testing.T) {
	h := newHarness(0)

	fresh, owned := h.c.Begin(nil)
	require.NotNil(t, fresh)
	assert.True(t, owned)

	joined, owned := h.c.Begin(fresh)
	assert.Same(t, fresh, joined)
	assert.False(t, owned)
}

func TestFlushTargetChunksAndEmptiesSlot(t *testing.T) {
	h := newHarness(2)
	u := NewUnit()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		u.Stage(models.EntityFile, models.DeleteWrite(id, "r"), models.DeleteWrite(id, "r"))
	}

	require.NoError(t, h.c.FlushTarget(context.Background(), u, models.EntityFile, TargetDocument))

	require.Len(t, h.files.batches, 3)
	assert.Len(t, h.files.batches[0], 2)
	assert.Len(t, h.files.batches[2], 1)
	assert.Empty(t, u.Pending(models.EntityFile, TargetDocument))
	assert.Len(t, u.Pending(models.EntityFile, TargetIndex), 5)
	assert.Empty(t, h.index.calls)
	assert.Len(t, u.Pairs(models.EntityFile), 5)
}

func TestFlushAllOrder(t *testing.T) {
	h := newHarness(0)
	u := NewUnit()
	u.Stage(models.EntityFile, models.DeleteWrite("f", "r"), models.DeleteWrite("f", "r"))
	u.Stage(models.EntityFolder, models.DeleteWrite("d", "r"), models.DeleteWrite("d", "r"))
	u.DeleteBlob("files/r/f")

	require.NoError(t, h.c.FlushAll(context.Background(), u))

	assert.Len(t, h.files.batches, 1)
	assert.Len(t, h.folders.batches, 1)
	assert.Equal(t, []string{"t_files", "t_folders"}, h.index.calls)
	assert.Equal(t, []string{"files/r/f"}, h.blobs.deleted)
	assert.True(t, u.Empty())
}

func TestFlushFailureIsPartialWrite(t *testing.T) {
	h := newHarness(0)
	h.index.err = errors.New("cluster red")
	u := NewUnit()
	u.Stage(models.EntityFolder, models.DeleteWrite("d", "r"), models.DeleteWrite("d", "r"))

	err := h.c.Flush(context.Background(), u, models.EntityFolder)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPartialWrite))
	var pw *domain.PartialWriteError
	require.True(t, errors.As(err, &pw))
	assert.Equal(t, "folder", pw.Entity)
	assert.Equal(t, "index", pw.Target)
	// the document side was applied before the index failed
	assert.Len(t, h.folders.batches, 1)
}

func TestFlushBlobsAttemptsEveryKey(t *testing.T) {
	h := newHarness(0)
	h.blobs.fail = map[string]error{"files/r/a": errors.New("access denied")}
	u := NewUnit()
	u.DeleteBlob("files/r/a")
	u.DeleteBlob("files/r/b")

	err := h.c.FlushBlobs(context.Background(), u)

	assert.True(t, errors.Is(err, domain.ErrPartialWrite))
	assert.Equal(t, []string{"files/r/b"}, h.blobs.deleted)
	assert.Empty(t, u.PendingBlobs())
}

func TestFlushEmptyUnitIsNoop(t *testing.T) {
	h := newHarness(0)
	h.files.err = errors.New("should not be called")

	assert.NoError(t, h.c.FlushAll(context.Background(), NewUnit()))
}
