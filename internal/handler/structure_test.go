package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	svc "rescribe/internal/domain/services/structure"
	"rescribe/internal/httputil"
)

type fakeDeletion struct {
	err         error
	filesReq    *svc.DeleteFilesRequest
	folderReq   *svc.DeleteFolderRequest
	branchReq   *svc.DeleteBranchRequest
	deletedRepo string
	deletedProj string
}

func (f *fakeDeletion) DeleteFiles(_ context.Context, req *svc.DeleteFilesRequest) (*svc.DeleteResult, error) {
	f.filesReq = req
	return &svc.DeleteResult{FilesRemoved: req.Files.Len()}, f.err
}

func (f *fakeDeletion) DeleteFolder(_ context.Context, req *svc.DeleteFolderRequest) (*svc.DeleteResult, error) {
	f.folderReq = req
	return &svc.DeleteResult{FoldersDeleted: 1}, f.err
}

func (f *fakeDeletion) DeleteBranch(_ context.Context, req *svc.DeleteBranchRequest) (*svc.DeleteResult, error) {
	f.branchReq = req
	return &svc.DeleteResult{}, f.err
}

func (f *fakeDeletion) DeleteRepository(_ context.Context, userID, id string) error {
	f.deletedRepo = id
	return f.err
}

func (f *fakeDeletion) DeleteProject(_ context.Context, userID, id string) error {
	f.deletedProj = id
	return f.err
}

type fakeIndexing struct {
	err    error
	addReq *svc.AddFileRequest
	updReq *svc.UpdateFileRequest
}

func (f *fakeIndexing) AddFile(_ context.Context, req *svc.AddFileRequest) (*models.File, error) {
	f.addReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.File{ID: "f1", RepositoryID: req.RepositoryID, Path: req.Path, Branches: []string{req.Branch}}, nil
}

func (f *fakeIndexing) UpdateFile(_ context.Context, req *svc.UpdateFileRequest) (*models.File, error) {
	f.updReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.File{ID: req.FileID}, nil
}

// withUser stands in for the auth middleware
func withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Test-User") != "" {
			r = httputil.WithUserID(r, r.Header.Get("X-Test-User"))
		}
		next.ServeHTTP(w, r)
	})
}

func newTestServer(t *testing.T) (http.Handler, *fakeDeletion, *fakeIndexing) {
	t.Helper()
	del, idx := &fakeDeletion{}, &fakeIndexing{}
	h := NewStructureHandler(del, idx, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	h.Register(mux)
	return withUser(mux), del, idx
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("X-Test-User", "user-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAddFileRoute(t *testing.T) {
	h, _, idx := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/repositories/r1/files",
		`{"branch":"main","path":"src/a.go","content":"x\n","save_content":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NotNil(t, idx.addReq)
	assert.Equal(t, "user-1", idx.addReq.UserID)
	assert.Equal(t, "r1", idx.addReq.RepositoryID)
	assert.True(t, idx.addReq.SaveContent)

	var file models.File
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &file))
	assert.Equal(t, "src/a.go", file.Path)
}

func TestUpdateFileRoute(t *testing.T) {
	h, _, idx := newTestServer(t)

	rec := do(h, http.MethodPatch, "/api/files/f9", `{"content":"y\n"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "f9", idx.updReq.FileID)
	assert.Equal(t, "y\n", idx.updReq.Content)
}

func TestDeleteFilesSelectors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		want     svc.FileSelector
	}{
		{"by ids", `{"branch":"main","ids":["a","b"]}`, http.StatusOK, svc.ByIDs{"a", "b"}},
		{"by paths", `{"branch":"main","paths":["x.go"]}`, http.StatusOK, svc.ByPaths{"x.go"}},
		{"both", `{"branch":"main","ids":["a"],"paths":["x.go"]}`, http.StatusBadRequest, nil},
		{"neither", `{"branch":"main"}`, http.StatusBadRequest, nil},
		{"bad json", `{`, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, del, _ := newTestServer(t)

			rec := do(h, http.MethodDelete, "/api/repositories/r1/files", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.want == nil {
				assert.Nil(t, del.filesReq)
				return
			}
			require.NotNil(t, del.filesReq)
			assert.Equal(t, tt.want, del.filesReq.Files)
			assert.Equal(t, "main", del.filesReq.Branch)
		})
	}
}

func TestDeleteFolderAndBranchRoutes(t *testing.T) {
	h, del, _ := newTestServer(t)

	rec := do(h, http.MethodDelete, "/api/repositories/r1/folders/d1?branch=dev", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, &svc.DeleteFolderRequest{UserID: "user-1", RepositoryID: "r1", Branch: "dev", FolderID: "d1"}, del.folderReq)

	rec = do(h, http.MethodDelete, "/api/repositories/r1/branches/dev", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", del.branchReq.Branch)
}

func TestDeleteRepositoryAndProjectRoutes(t *testing.T) {
	h, del, _ := newTestServer(t)

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/api/repositories/r1", "").Code)
	assert.Equal(t, "r1", del.deletedRepo)

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/api/projects/p1", "").Code)
	assert.Equal(t, "p1", del.deletedProj)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", &domain.NotFoundError{Message: "repository r1 not found"}, http.StatusNotFound},
		{"wrapped not found", errors.Join(errors.New("lookup"), domain.ErrNotFound), http.StatusNotFound},
		{"forbidden", &domain.ForbiddenError{Message: "no access"}, http.StatusForbidden},
		{"validation", &domain.ValidationError{Message: "branch required"}, http.StatusBadRequest},
		{"conflict", &domain.ConflictError{Message: "exists", ResourceType: "file", ResourceID: "f1"}, http.StatusConflict},
		{"partial write", domain.NewPartialWriteError("file", "index", errors.New("timeout")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, del, _ := newTestServer(t)
			del.err = tt.err

			rec := do(h, http.MethodDelete, "/api/repositories/r1", "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, float64(tt.wantCode), problem["status"])
		})
	}
}

func TestConflictIncludesResource(t *testing.T) {
	h, _, idx := newTestServer(t)
	idx.err = &domain.ConflictError{Message: "file exists", ResourceType: "file", ResourceID: "f1"}

	rec := do(h, http.MethodPost, "/api/repositories/r1/files", `{"branch":"main","path":"a.go"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "f1", problem["resource_id"])
}

func TestRequiresUser(t *testing.T) {
	h, del, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/repositories/r1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, del.deletedRepo)
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
