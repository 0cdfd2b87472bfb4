package structure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"rescribe/internal/config"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	repos "rescribe/internal/domain/repositories/structure"
	"rescribe/internal/domain/services"
	svc "rescribe/internal/domain/services/structure"
	"rescribe/internal/dualwrite"
)

type indexingService struct {
	deps      *Dependencies
	collapser *Collapser
	tracker   *Tracker
	logger    *slog.Logger
}

// NewIndexingService creates the service that adds and updates files
func NewIndexingService(deps *Dependencies) svc.IndexingService {
	return &indexingService{
		deps:      deps,
		collapser: NewCollapser(deps.Files, deps.Folders),
		tracker:   NewTracker(deps),
		logger:    deps.logger(),
	}
}

// AddFile adds a file at a path on a branch. A path that already exists on
// another branch gains the branch and keeps its content and counters.
func (s *indexingService) AddFile(ctx context.Context, req *svc.AddFileRequest) (*models.File, error) {
	req.Path = strings.Trim(req.Path, "/")
	if err := validateAddFile(req); err != nil {
		return nil, err
	}
	filePath := path.Clean(req.Path)

	repo, err := s.deps.Repositories.GetByID(ctx, req.RepositoryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.deps.Authorizer.RequireRepository(ctx, req.UserID, repo, models.AccessEdit); err != nil {
		return nil, err
	}
	if !repo.HasBranch(req.Branch) {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("cannot find branch %q in repository %s", req.Branch, repo.ID),
		}
	}

	existing, err := s.deps.Files.Find(ctx, repos.FileFilter{RepositoryID: repo.ID, Paths: []string{filePath}})
	if err != nil {
		return nil, fmt.Errorf("find file by path: %w", err)
	}
	if len(existing) > 0 {
		return s.widenFile(ctx, repo, &existing[0], req.Branch)
	}

	now := s.deps.now()
	file := &models.File{
		ID:           uuid.NewString(),
		RepositoryID: repo.ID,
		Path:         filePath,
		Name:         path.Base(filePath),
		Location:     models.LocationInline,
		Branches:     []string{req.Branch},
		FileLength:   lineCount(req.Content),
		Public:       repo.Public,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	analysis, err := s.analyze(ctx, file, req.Content)
	if err != nil {
		return nil, err
	}

	if req.SaveContent {
		if err := s.deps.Blobs.Put(ctx, fileKey(*file), []byte(req.Content), "text/plain; charset=utf-8"); err != nil {
			return nil, fmt.Errorf("upload file content: %w", err)
		}
		file.Location = models.LocationBlob
	}

	unit := dualwrite.NewUnit()
	folder, err := s.collapser.EnsureFolders(ctx, unit, repo, req.Branch, path.Dir(filePath), now)
	if err != nil {
		return nil, err
	}
	file.FolderID = folder.ID
	file.ProjectID = folder.ProjectID

	unit.Stage(models.EntityFile,
		models.AddWrite(file.ID, repo.ID, file),
		models.AddWrite(file.ID, repo.ID, models.NewFileDocument(file, analysis)),
	)
	if err := s.deps.Coordinator.Flush(ctx, unit, models.EntityFolder); err != nil {
		return nil, err
	}
	if err := s.deps.Coordinator.Flush(ctx, unit, models.EntityFile); err != nil {
		return nil, err
	}

	if _, err := s.tracker.ApplyDelta(ctx, repo.ID, models.Delta{LinesOfCode: file.FileLength, Files: 1}); err != nil {
		return nil, err
	}

	s.logger.Info("file added",
		"repository_id", repo.ID,
		"file_id", file.ID,
		"path", file.Path,
		"branch", req.Branch,
		"file_length", file.FileLength,
	)
	return file, nil
}

func (s *indexingService) widenFile(ctx context.Context, repo *models.Repository, file *models.File, branch string) (*models.File, error) {
	if file.HasBranch(branch) {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("file %q already exists on branch %q", file.Path, branch),
			ResourceType: "file",
			ResourceID:   file.ID,
		}
	}

	now := s.deps.now()
	unit := dualwrite.NewUnit()
	if _, err := s.collapser.EnsureFolders(ctx, unit, repo, branch, path.Dir(file.Path), now); err != nil {
		return nil, err
	}
	patch := &models.Patch{AddBranch: branch, UpdatedAt: now}
	unit.Stage(models.EntityFile,
		models.UpdateWrite(file.ID, repo.ID, patch),
		models.UpdateWrite(file.ID, repo.ID, patch),
	)
	if err := s.deps.Coordinator.Flush(ctx, unit, models.EntityFolder); err != nil {
		return nil, err
	}
	if err := s.deps.Coordinator.Flush(ctx, unit, models.EntityFile); err != nil {
		return nil, err
	}

	file.Branches = append(file.Branches, branch)
	file.UpdatedAt = now
	s.logger.Info("file added to branch", "repository_id", repo.ID, "file_id", file.ID, "branch", branch)
	return file, nil
}

// UpdateFile replaces the content of a file on every branch it is on
func (s *indexingService) UpdateFile(ctx context.Context, req *svc.UpdateFileRequest) (*models.File, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.FileID, validation.Required),
		validation.Field(&req.Content, validation.Length(0, config.MaxFileContentBytes)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	file, err := s.deps.Files.GetByID(ctx, req.FileID)
	if err != nil {
		return nil, err
	}
	repo, err := s.deps.Repositories.GetByID(ctx, file.RepositoryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.deps.Authorizer.RequireRepository(ctx, req.UserID, repo, models.AccessEdit); err != nil {
		return nil, err
	}

	analysis, err := s.analyze(ctx, file, req.Content)
	if err != nil {
		return nil, err
	}
	if file.HasContent() {
		if err := s.deps.Blobs.Put(ctx, fileKey(*file), []byte(req.Content), "text/plain; charset=utf-8"); err != nil {
			return nil, fmt.Errorf("upload file content: %w", err)
		}
	}

	now := s.deps.now()
	length := lineCount(req.Content)
	delta := models.Delta{LinesOfCode: length - file.FileLength}
	patch := &models.Patch{FileLength: &length, Analysis: analysis, UpdatedAt: now}

	unit := dualwrite.NewUnit()
	unit.Stage(models.EntityFile,
		models.UpdateWrite(file.ID, repo.ID, patch),
		models.UpdateWrite(file.ID, repo.ID, patch),
	)
	if err := s.deps.Coordinator.Flush(ctx, unit, models.EntityFile); err != nil {
		return nil, err
	}
	if _, err := s.tracker.ApplyDelta(ctx, repo.ID, delta); err != nil {
		return nil, err
	}

	file.FileLength = length
	file.UpdatedAt = now
	s.logger.Info("file updated", "repository_id", repo.ID, "file_id", file.ID, "file_length", length)
	return file, nil
}

func (s *indexingService) analyze(ctx context.Context, file *models.File, content string) (json.RawMessage, error) {
	if s.deps.Analyzer == nil {
		return nil, nil
	}
	analysis, err := s.deps.Analyzer.Analyze(ctx, &services.AnalyzeRequest{
		ID:       file.ID,
		FileName: file.Name,
		Path:     file.Path,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze file %s: %w", file.Path, err)
	}
	return analysis, nil
}

// lineCount is the number of newline characters in content
func lineCount(content string) int {
	return strings.Count(content, "\n")
}

func validateAddFile(req *svc.AddFileRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.RepositoryID, validation.Required),
		validation.Field(&req.Branch, validation.Required, validation.Length(1, config.MaxBranchNameLength)),
		validation.Field(&req.Path, validation.Required, validation.Length(1, config.MaxPathLength), validation.By(validRelativePath)),
		validation.Field(&req.Content, validation.Length(0, config.MaxFileContentBytes)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validRelativePath(value interface{}) error {
	p, _ := value.(string)
	for _, segment := range strings.Split(p, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("invalid path segment %q", segment)
		}
	}
	return nil
}
