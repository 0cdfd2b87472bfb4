package structure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"rescribe/internal/config"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
	repos "rescribe/internal/domain/repositories/structure"
	svc "rescribe/internal/domain/services/structure"
	"rescribe/internal/dualwrite"
)

type deletionService struct {
	deps      *Dependencies
	files     *BranchFiles
	collapser *Collapser
	tracker   *Tracker
	logger    *slog.Logger
}

// NewDeletionService creates the deletion orchestrator
func NewDeletionService(deps *Dependencies) svc.DeletionService {
	return newDeletionService(deps)
}

func newDeletionService(deps *Dependencies) *deletionService {
	return &deletionService{
		deps:      deps,
		files:     NewBranchFiles(deps.Files),
		collapser: NewCollapser(deps.Files, deps.Folders),
		tracker:   NewTracker(deps),
		logger:    deps.logger(),
	}
}

// DeleteFiles removes the selected files from a branch
func (s *deletionService) DeleteFiles(ctx context.Context, req *svc.DeleteFilesRequest) (*svc.DeleteResult, error) {
	if err := validateBranchTarget(req.RepositoryID, req.Branch); err != nil {
		return nil, err
	}
	if req.Files != nil && req.Files.Len() > config.MaxFilesPerRequest {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("at most %d files can be deleted per request", config.MaxFilesPerRequest),
		}
	}

	repo, err := s.deps.Repositories.GetByID(ctx, req.RepositoryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.deps.Authorizer.RequireRepository(ctx, req.UserID, repo, models.AccessEdit); err != nil {
		return nil, err
	}

	result, _, err := s.removeFiles(ctx, nil, repo, req.Branch, req.Files, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("files deleted",
		"repository_id", repo.ID,
		"branch", req.Branch,
		"removed", result.FilesRemoved,
		"narrowed", result.FilesNarrowed,
	)
	return result, nil
}

// DeleteFolder removes a folder, its sub-folders and their files from a branch
func (s *deletionService) DeleteFolder(ctx context.Context, req *svc.DeleteFolderRequest) (*svc.DeleteResult, error) {
	if err := validateBranchTarget(req.RepositoryID, req.Branch); err != nil {
		return nil, err
	}
	if err := validation.Validate(req.FolderID, validation.Required); err != nil {
		return nil, fmt.Errorf("%w: folder: %v", domain.ErrValidation, err)
	}

	repo, err := s.deps.Repositories.GetByID(ctx, req.RepositoryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.deps.Authorizer.RequireRepository(ctx, req.UserID, repo, models.AccessEdit); err != nil {
		return nil, err
	}

	folder, err := s.deps.Folders.GetByID(ctx, req.FolderID)
	if err != nil {
		return nil, err
	}
	if folder.RepositoryID != repo.ID {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("cannot find folder %s in repository %s", folder.ID, repo.ID),
		}
	}
	if folder.ID == repo.FolderID || folder.IsBase() {
		return nil, &domain.ValidationError{Message: "the base folder of a repository cannot be deleted"}
	}
	if !folder.HasBranch(req.Branch) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("folder %s is not on branch %q", folder.ID, req.Branch),
		}
	}

	subtree, err := s.deps.Folders.Find(ctx, repos.FolderFilter{
		RepositoryID: repo.ID,
		Branch:       req.Branch,
		PathPrefix:   folder.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("find sub-folders: %w", err)
	}
	inSubtree := make(map[string]bool, len(subtree))
	candidates := make([]string, 0, len(subtree)+1)
	for _, f := range subtree {
		inSubtree[f.ID] = true
		candidates = append(candidates, f.ID)
	}
	if folder.ParentID != nil {
		candidates = append(candidates, *folder.ParentID)
	}

	onBranch, err := s.files.Resolve(ctx, repo.ID, req.Branch, nil)
	if err != nil {
		return nil, err
	}
	var contained svc.ByEntities
	for _, f := range onBranch {
		if inSubtree[f.FolderID] {
			contained = append(contained, f)
		}
	}

	result, _, err := s.removeFiles(ctx, nil, repo, req.Branch, contained, candidates)
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder deleted",
		"repository_id", repo.ID,
		"folder_id", folder.ID,
		"branch", req.Branch,
		"files_removed", result.FilesRemoved,
		"folders_deleted", result.FoldersDeleted,
	)
	return result, nil
}

// DeleteBranch removes every file and folder of a branch, then the branch
func (s *deletionService) DeleteBranch(ctx context.Context, req *svc.DeleteBranchRequest) (*svc.DeleteResult, error) {
	if err := validateBranchTarget(req.RepositoryID, req.Branch); err != nil {
		return nil, err
	}

	repo, err := s.deps.Repositories.GetByID(ctx, req.RepositoryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.deps.Authorizer.RequireRepository(ctx, req.UserID, repo, models.AccessAdmin); err != nil {
		return nil, err
	}
	if !repo.HasBranch(req.Branch) {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("cannot find branch %q in repository %s", req.Branch, repo.ID),
		}
	}
	if len(repo.Branches) == 1 {
		return nil, &domain.ValidationError{Message: "the last branch of a repository cannot be deleted"}
	}

	folders, err := s.deps.Folders.Find(ctx, repos.FolderFilter{RepositoryID: repo.ID, Branch: req.Branch})
	if err != nil {
		return nil, fmt.Errorf("find branch folders: %w", err)
	}
	candidates := make([]string, 0, len(folders))
	var base *models.Folder
	for i := range folders {
		if folders[i].ID == repo.FolderID {
			base = &folders[i]
			continue
		}
		candidates = append(candidates, folders[i].ID)
	}

	unit := dualwrite.NewUnit()
	result, delta, err := s.removeFiles(ctx, unit, repo, req.Branch, nil, candidates)
	if err != nil {
		return nil, err
	}

	now := s.deps.now()
	if base != nil && len(base.Branches) > 1 {
		patch := &models.Patch{RemoveBranch: req.Branch, UpdatedAt: now}
		unit.Stage(models.EntityFolder,
			models.UpdateWrite(base.ID, repo.ID, patch),
			models.UpdateWrite(base.ID, repo.ID, patch),
		)
		result.FoldersNarrowed++
	}

	if err := s.deps.Coordinator.FlushAll(ctx, unit); err != nil {
		return nil, err
	}
	aggregates, err := s.tracker.ApplyDelta(ctx, repo.ID, delta)
	if err != nil {
		return nil, err
	}
	result.Aggregates = &aggregates

	if err := s.deps.Repositories.RemoveBranch(ctx, repo.ID, req.Branch, now); err != nil {
		return nil, fmt.Errorf("remove repository branch: %w", err)
	}
	branches := make([]string, 0, len(repo.Branches)-1)
	for _, b := range repo.Branches {
		if b != req.Branch {
			branches = append(branches, b)
		}
	}
	if err := s.deps.Index.Update(ctx, s.deps.Indices.Repositories, repo.ID, map[string]any{
		"branches": branches,
		"updated":  now.UnixMilli(),
	}); err != nil {
		return nil, domain.NewPartialWriteError("repository", "index", err)
	}

	s.logger.Info("branch deleted",
		"repository_id", repo.ID,
		"branch", req.Branch,
		"files_removed", result.FilesRemoved,
		"folders_deleted", result.FoldersDeleted,
	)
	return result, nil
}

// removeFiles stages the removal of the selected files from branch and the
// collapse of their parent folders plus extra candidate folders.
//
// With a nil outer unit the operation owns its unit: it flushes everything
// and applies the aggregate delta itself. When joining an outer unit only
// the file document writes are flushed, so folder counts see them; the rest
// and the returned delta are left to the caller.
func (s *deletionService) removeFiles(ctx context.Context, outer *dualwrite.Unit, repo *models.Repository, branch string, sel svc.FileSelector, extra []string) (*svc.DeleteResult, models.Delta, error) {
	unit, owned := s.deps.Coordinator.Begin(outer)
	now := s.deps.now()
	result := &svc.DeleteResult{}
	var delta models.Delta

	files, err := s.files.Resolve(ctx, repo.ID, branch, sel)
	if err != nil {
		return nil, delta, err
	}

	candidates := make([]string, 0, len(files)+len(extra))
	for i := range files {
		removal, err := s.files.Stage(unit, &files[i], branch, now)
		if err != nil {
			return nil, delta, err
		}
		if removal.FullyRemoved {
			result.FilesRemoved++
		} else {
			result.FilesNarrowed++
		}
		delta = delta.Add(removal.Delta())
		candidates = append(candidates, files[i].FolderID)
	}
	candidates = append(candidates, extra...)

	if err := s.deps.Coordinator.FlushTarget(ctx, unit, models.EntityFile, dualwrite.TargetDocument); err != nil {
		return nil, delta, err
	}

	collapsed, err := s.collapser.Collapse(ctx, unit, repo, branch, candidates, now)
	if err != nil {
		return nil, delta, err
	}
	result.FoldersDeleted = collapsed.Deleted
	result.FoldersNarrowed = collapsed.Narrowed

	if !owned {
		return result, delta, nil
	}

	if err := s.deps.Coordinator.FlushAll(ctx, unit); err != nil {
		return nil, delta, err
	}
	aggregates, err := s.tracker.ApplyDelta(ctx, repo.ID, delta)
	if err != nil {
		return nil, delta, err
	}
	result.Aggregates = &aggregates
	return result, delta, nil
}

// DeleteRepository removes a repository and everything attached to it
func (s *deletionService) DeleteRepository(ctx context.Context, userID, repositoryID string) error {
	if err := validation.Validate(repositoryID, validation.Required); err != nil {
		return fmt.Errorf("%w: repository: %v", domain.ErrValidation, err)
	}

	repo, err := s.deps.Repositories.GetByID(ctx, repositoryID)
	if err != nil {
		return err
	}
	if _, err := s.deps.Authorizer.RequireRepository(ctx, userID, repo, models.AccessAdmin); err != nil {
		return err
	}
	return s.deleteRepository(ctx, userID, repo)
}

// deleteRepository removes files and folders first and the repository
// record last, so a failed deletion can be retried from the start.
func (s *deletionService) deleteRepository(ctx context.Context, userID string, repo *models.Repository) error {
	unit := dualwrite.NewUnit()

	files, err := s.deps.Files.Find(ctx, repos.FileFilter{RepositoryID: repo.ID})
	if err != nil {
		return fmt.Errorf("find repository files: %w", err)
	}
	for _, f := range files {
		unit.Stage(models.EntityFile, models.DeleteWrite(f.ID, repo.ID), models.DeleteWrite(f.ID, repo.ID))
		if f.HasContent() {
			unit.DeleteBlob(fileKey(f))
		}
	}

	folders, err := s.deps.Folders.Find(ctx, repos.FolderFilter{RepositoryID: repo.ID})
	if err != nil {
		return fmt.Errorf("find repository folders: %w", err)
	}
	for _, f := range folders {
		unit.Stage(models.EntityFolder, models.DeleteWrite(f.ID, repo.ID), models.DeleteWrite(f.ID, repo.ID))
	}

	if err := s.deps.Coordinator.FlushAll(ctx, unit); err != nil {
		return err
	}

	if err := s.deleteMedia(ctx, repo.ID, models.MediaParentRepository); err != nil {
		return err
	}

	var projectsChanged int64
	err = s.deps.TxManager.ExecTx(ctx, func(txCtx context.Context) error {
		n, err := s.deps.Projects.RemoveRepository(txCtx, repo.ID)
		if err != nil {
			return fmt.Errorf("remove repository from projects: %w", err)
		}
		projectsChanged = n
		if err := s.deps.Users.RemoveRepositoryAccess(txCtx, userID, repo.ID); err != nil {
			return fmt.Errorf("remove repository access: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	projectsUpdated, err := s.deps.Index.UpdateByQuery(ctx, s.deps.Indices.Projects,
		repoMembership(repo.ID), repoRemoval(repo.ID))
	if err != nil {
		return domain.NewPartialWriteError("project", "index", err)
	}

	if err := s.deps.Repositories.Delete(ctx, repo.ID); err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}
	if err := s.deps.Index.Delete(ctx, s.deps.Indices.Repositories, repo.ID); err != nil {
		return domain.NewPartialWriteError("repository", "index", err)
	}

	swept, err := sweepIndex(ctx, s.deps, repo.ID)
	if err != nil {
		return err
	}

	s.logger.Info("repository deleted",
		"repository_id", repo.ID,
		"files", len(files),
		"folders", len(folders),
		"projects_updated", projectsChanged,
		"project_documents_updated", projectsUpdated,
		"orphans_swept", swept,
	)
	return nil
}

func (s *deletionService) deleteMedia(ctx context.Context, parentID string, parentType models.MediaParentType) error {
	media, err := s.deps.Media.ListByParent(ctx, parentID, parentType)
	if err != nil {
		return fmt.Errorf("list media: %w", err)
	}
	for _, m := range media {
		if err := s.deps.Blobs.Delete(ctx, mediaKey(m)); err != nil {
			return domain.NewPartialWriteError("media", "blob", err)
		}
		if err := s.deps.Media.Delete(ctx, m.ID); err != nil {
			return fmt.Errorf("delete media %s: %w", m.ID, err)
		}
	}
	return nil
}

// DeleteProject removes a project, then each of its repositories in turn.
// Repositories that no longer exist are skipped.
func (s *deletionService) DeleteProject(ctx context.Context, userID, projectID string) error {
	if err := validation.Validate(projectID, validation.Required); err != nil {
		return fmt.Errorf("%w: project: %v", domain.ErrValidation, err)
	}

	project, err := s.deps.Projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if _, err := s.deps.Authorizer.RequireProject(ctx, userID, project, models.AccessAdmin); err != nil {
		return err
	}

	if err := s.deps.Projects.Delete(ctx, project.ID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if err := s.deps.Index.Delete(ctx, s.deps.Indices.Projects, project.ID); err != nil {
		return domain.NewPartialWriteError("project", "index", err)
	}
	if err := s.deps.Users.RemoveProjectAccess(ctx, userID, project.ID); err != nil {
		return fmt.Errorf("remove project access: %w", err)
	}

	for _, repositoryID := range project.Repositories {
		repo, err := s.deps.Repositories.GetByID(ctx, repositoryID)
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("project repository already gone", "project_id", project.ID, "repository_id", repositoryID)
			continue
		}
		if err != nil {
			return err
		}
		if err := s.deleteRepository(ctx, userID, repo); err != nil {
			return fmt.Errorf("delete repository %s: %w", repositoryID, err)
		}
	}

	s.logger.Info("project deleted", "project_id", project.ID, "repositories", len(project.Repositories))
	return nil
}

func validateBranchTarget(repositoryID, branch string) error {
	target := struct {
		RepositoryID string
		Branch       string
	}{repositoryID, branch}
	err := validation.ValidateStruct(&target,
		validation.Field(&target.RepositoryID, validation.Required),
		validation.Field(&target.Branch, validation.Required, validation.Length(1, config.MaxBranchNameLength)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func repoMembership(repositoryID string) repositories.Query {
	return repositories.Query{Must: []repositories.Term{{Field: "repositories", Value: repositoryID}}}
}

func repoRemoval(repositoryID string) repositories.Script {
	return repositories.Script{Op: repositories.ScriptArrayRemove, Field: "repositories", Value: repositoryID}
}

func fileKey(f models.File) string {
	return repositories.FileKey(f.RepositoryID, f.ID)
}

func mediaKey(m models.Media) string {
	return repositories.MediaKey(m.ID)
}
