package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
)

type fakeCluster struct {
	t        *testing.T
	requests []*recordedRequest
	reply    func(r *recordedRequest) (int, string)
}

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

func newFakeCluster(t *testing.T, reply func(r *recordedRequest) (int, string)) (*Client, *fakeCluster) {
	t.Helper()
	fc := &fakeCluster{t: t, reply: reply}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec := &recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body}
		fc.requests = append(fc.requests, rec)
		status, resp := fc.reply(rec)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{Addresses: []string{srv.URL}}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c, fc
}

func ndjsonLines(t *testing.T, body []byte) []map[string]any {
	t.Helper()
	var lines []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestEncodeBulk(t *testing.T) {
	length := 12
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writes := []models.Write{
		models.AddWrite("f1", "r1", &models.FileDocument{Path: "a.go", Branches: []string{"main"}, NumBranches: 1}),
		models.UpdateWrite("f2", "r1", &models.Patch{RemoveBranch: "dev", FileLength: &length, UpdatedAt: updated}),
		models.DeleteWrite("f3", "r1"),
	}

	body, err := encodeBulk(writes)
	require.NoError(t, err)
	lines := ndjsonLines(t, body)
	require.Len(t, lines, 5)

	assert.Equal(t, map[string]any{"index": map[string]any{"_id": "f1"}}, lines[0])
	assert.Equal(t, "a.go", lines[1]["path"])
	assert.Equal(t, map[string]any{"update": map[string]any{"_id": "f2"}}, lines[2])

	params := lines[3]["script"].(map[string]any)["params"].(map[string]any)
	assert.Equal(t, "dev", params["remove"])
	assert.NotContains(t, params, "add")
	assert.Equal(t, float64(12), params["fileLength"])
	assert.Equal(t, float64(updated.UnixMilli()), params["updated"])

	assert.Equal(t, map[string]any{"delete": map[string]any{"_id": "f3"}}, lines[4])
}

func TestEncodeBulkRejectsUpdateWithoutPatch(t *testing.T) {
	_, err := encodeBulk([]models.Write{{Action: models.WriteUpdate, ID: "f1"}})
	require.Error(t, err)
}

func TestBulkItemErrors(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		wantErr bool
	}{
		{
			name: "no errors",
			resp: `{"errors":false,"items":[{"index":{"_id":"a","status":201}}]}`,
		},
		{
			name: "missing delete is success",
			resp: `{"errors":true,"items":[{"delete":{"_id":"a","status":404}}]}`,
		},
		{
			name:    "missing update fails",
			resp:    `{"errors":true,"items":[{"delete":{"_id":"a","status":200}},{"update":{"_id":"b","status":404,"error":{"type":"document_missing_exception","reason":"missing"}}}]}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fc := newFakeCluster(t, func(*recordedRequest) (int, string) { return http.StatusOK, tt.resp })

			err := c.Bulk(context.Background(), "t_files", []models.Write{models.DeleteWrite("a", "r1")})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "document_missing_exception")
			} else {
				require.NoError(t, err)
			}
			require.Len(t, fc.requests, 1)
			assert.Equal(t, "/t_files/_bulk", fc.requests[0].Path)
		})
	}
}

func TestBulkEmptyIsNoop(t *testing.T) {
	c, fc := newFakeCluster(t, func(*recordedRequest) (int, string) { return http.StatusOK, `{}` })
	require.NoError(t, c.Bulk(context.Background(), "t_files", nil))
	assert.Empty(t, fc.requests)
}

func TestGetAndDeleteMissing(t *testing.T) {
	c, _ := newFakeCluster(t, func(*recordedRequest) (int, string) {
		return http.StatusNotFound, `{"_index":"t_repositories","_id":"r1","found":false}`
	})

	var doc models.RepositoryDocument
	err := c.Get(context.Background(), "t_repositories", "r1", &doc)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, c.Delete(context.Background(), "t_repositories", "r1"))
}

func TestGetDecodesSource(t *testing.T) {
	c, fc := newFakeCluster(t, func(*recordedRequest) (int, string) {
		return http.StatusOK, `{"_id":"r1","found":true,"_source":{"name":"demo","linesOfCode":40,"numberOfFiles":3}}`
	})

	var doc models.RepositoryDocument
	require.NoError(t, c.Get(context.Background(), "t_repositories", "r1", &doc))
	assert.Equal(t, "demo", doc.Name)
	assert.Equal(t, 40, doc.LinesOfCode)
	assert.Equal(t, 3, doc.NumberOfFiles)
	assert.Equal(t, "/t_repositories/_doc/r1", fc.requests[0].Path)
}

func TestSearchReturnsIDs(t *testing.T) {
	c, fc := newFakeCluster(t, func(*recordedRequest) (int, string) {
		return http.StatusOK, `{"hits":{"hits":[{"_id":"a"},{"_id":"b"}]}}`
	})

	ids, err := c.Search(context.Background(), "t_files", repositories.Query{
		Must: []repositories.Term{{Field: "repository", Value: "r1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	var body map[string]any
	require.NoError(t, json.Unmarshal(fc.requests[0].Body, &body))
	filter := body["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	assert.Equal(t, map[string]any{"term": map[string]any{"repository": "r1"}}, filter[0])
}

func TestUpdateByQuery(t *testing.T) {
	c, fc := newFakeCluster(t, func(*recordedRequest) (int, string) {
		return http.StatusOK, `{"updated":2,"failures":[]}`
	})

	n, err := c.UpdateByQuery(context.Background(), "t_projects",
		repositories.Query{Must: []repositories.Term{{Field: "repositories", Value: "r1"}}},
		repositories.Script{Op: repositories.ScriptArrayRemove, Field: "repositories", Value: "r1"},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "/t_projects/_update_by_query", fc.requests[0].Path)

	var body map[string]any
	require.NoError(t, json.Unmarshal(fc.requests[0].Body, &body))
	params := body["script"].(map[string]any)["params"].(map[string]any)
	assert.Equal(t, "repositories", params["field"])
	assert.Equal(t, "r1", params["value"])
}

func TestUpdateByQueryRejectsUnknownScript(t *testing.T) {
	c, fc := newFakeCluster(t, func(*recordedRequest) (int, string) { return http.StatusOK, `{}` })
	_, err := c.UpdateByQuery(context.Background(), "t_projects", repositories.Query{}, repositories.Script{Op: "rename"})
	require.Error(t, err)
	assert.Empty(t, fc.requests)
}

func TestResponseErrorIncludesReason(t *testing.T) {
	c, _ := newFakeCluster(t, func(*recordedRequest) (int, string) {
		return http.StatusBadRequest, `{"error":{"type":"mapper_parsing_exception","reason":"bad field"}}`
	})
	err := c.Index(context.Background(), "t_files", "f1", map[string]any{"path": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestMappingsCoverEveryIndex(t *testing.T) {
	defs, err := Mappings()
	require.NoError(t, err)
	for _, name := range []string{"files", "folders", "repositories", "projects"} {
		def, ok := defs[name]
		require.True(t, ok, name)
		props := def["mappings"].(map[string]any)["properties"].(map[string]any)
		assert.NotEmpty(t, props, name)
	}
	filesProps := defs["files"]["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "keyword"}, filesProps["branches"])
}
