package handler

import (
	"log/slog"
	"net/http"

	"rescribe/internal/domain"
	svc "rescribe/internal/domain/services/structure"
	"rescribe/internal/httputil"
)

// StructureHandler handles file, folder, branch, repository and project HTTP requests
type StructureHandler struct {
	deletion svc.DeletionService
	indexing svc.IndexingService
	logger   *slog.Logger
}

// NewStructureHandler creates a new structure handler
func NewStructureHandler(deletion svc.DeletionService, indexing svc.IndexingService, logger *slog.Logger) *StructureHandler {
	return &StructureHandler{
		deletion: deletion,
		indexing: indexing,
		logger:   logger,
	}
}

// Register adds the routes of the handler to mux
func (h *StructureHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/repositories/{id}/files", h.AddFile)
	mux.HandleFunc("DELETE /api/repositories/{id}/files", h.DeleteFiles)
	mux.HandleFunc("PATCH /api/files/{id}", h.UpdateFile)
	mux.HandleFunc("DELETE /api/repositories/{id}/folders/{folderID}", h.DeleteFolder)
	mux.HandleFunc("DELETE /api/repositories/{id}/branches/{branch}", h.DeleteBranch)
	mux.HandleFunc("DELETE /api/repositories/{id}", h.DeleteRepository)
	mux.HandleFunc("DELETE /api/projects/{id}", h.DeleteProject)
}

// AddFile indexes a file on a branch
// POST /api/repositories/{id}/files
// Returns 201 with the file, 409 if the path already exists on the branch
func (h *StructureHandler) AddFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req svc.AddFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = userID
	req.RepositoryID = r.PathValue("id")

	file, err := h.indexing.AddFile(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, file)
}

// UpdateFile replaces the content of a file
// PATCH /api/files/{id}
func (h *StructureHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req svc.UpdateFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = userID
	req.FileID = r.PathValue("id")

	file, err := h.indexing.UpdateFile(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, file)
}

// deleteFilesBody selects files by ids or by paths, never both
type deleteFilesBody struct {
	Branch string   `json:"branch"`
	IDs    []string `json:"ids"`
	Paths  []string `json:"paths"`
}

// DeleteFiles removes files from a branch
// DELETE /api/repositories/{id}/files
func (h *StructureHandler) DeleteFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var body deleteFilesBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := svc.DeleteFilesRequest{
		UserID:       userID,
		RepositoryID: r.PathValue("id"),
		Branch:       body.Branch,
	}
	switch {
	case len(body.IDs) > 0 && len(body.Paths) > 0:
		handleError(w, &domain.ValidationError{Message: "specify ids or paths, not both"})
		return
	case len(body.IDs) > 0:
		req.Files = svc.ByIDs(body.IDs)
	case len(body.Paths) > 0:
		req.Files = svc.ByPaths(body.Paths)
	default:
		handleError(w, &domain.ValidationError{Message: "ids or paths are required"})
		return
	}

	result, err := h.deletion.DeleteFiles(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// DeleteFolder removes a folder from a branch
// DELETE /api/repositories/{id}/folders/{folderID}?branch=
func (h *StructureHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.deletion.DeleteFolder(r.Context(), &svc.DeleteFolderRequest{
		UserID:       userID,
		RepositoryID: r.PathValue("id"),
		Branch:       r.URL.Query().Get("branch"),
		FolderID:     r.PathValue("folderID"),
	})
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// DeleteBranch removes a branch and every file on it
// DELETE /api/repositories/{id}/branches/{branch}
func (h *StructureHandler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.deletion.DeleteBranch(r.Context(), &svc.DeleteBranchRequest{
		UserID:       userID,
		RepositoryID: r.PathValue("id"),
		Branch:       r.PathValue("branch"),
	})
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// DeleteRepository removes a repository
// DELETE /api/repositories/{id}
func (h *StructureHandler) DeleteRepository(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.deletion.DeleteRepository(r.Context(), userID, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondNoContent(w)
}

// DeleteProject removes a project and its repositories
// DELETE /api/projects/{id}
func (h *StructureHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.deletion.DeleteProject(r.Context(), userID, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondNoContent(w)
}
