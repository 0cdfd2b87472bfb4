package s3

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type objectServer struct {
	mu      sync.Mutex
	objects map[string][]byte
	calls   []string
}

func (o *objectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, r.Method+" "+r.URL.Path)
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		o.objects[r.URL.Path] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(o.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T) (*Store, *objectServer) {
	t.Helper()
	srv := &objectServer{objects: map[string][]byte{}}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	s, err := NewStore(context.Background(), Config{
		Region:          "us-east-1",
		Endpoint:        ts.URL,
		Bucket:          "rescribe-files",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s, srv
}

func TestPutAndDeleteUsePathStyle(t *testing.T) {
	s, srv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "files/r1/f1", []byte("package main\n"), "text/plain"))

	srv.mu.Lock()
	body := srv.objects["/rescribe-files/files/r1/f1"]
	srv.mu.Unlock()
	assert.Contains(t, string(body), "package main")

	require.NoError(t, s.Delete(ctx, "files/r1/f1"))
	require.NoError(t, s.Delete(ctx, "files/r1/missing"))

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Empty(t, srv.objects)
	assert.Equal(t, []string{
		"PUT /rescribe-files/files/r1/f1",
		"DELETE /rescribe-files/files/r1/f1",
		"DELETE /rescribe-files/files/r1/missing",
	}, srv.calls)
}
