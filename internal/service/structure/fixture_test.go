package structure

import (
	"io"
	"log/slog"
	"testing"
	"time"

	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
	svc "rescribe/internal/domain/services/structure"
	"rescribe/internal/dualwrite"
	"rescribe/internal/repository/memory"
	"rescribe/internal/service/auth"
)

const testUser = "user-1"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t          *testing.T
	store      *memory.Store
	index      *memory.Index
	blobs      *memory.BlobStore
	indices    *repositories.IndexNames
	deps       *Dependencies
	deletion   *deletionService
	indexing   svc.IndexingService
	reconciler svc.Reconciler
	access     []models.Access
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	index := memory.NewIndex()
	blobs := memory.NewBlobStore()
	indices := repositories.NewIndexNames("test_")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps := &Dependencies{
		Files:        store.Files(),
		Folders:      store.Folders(),
		Repositories: store.Repositories(),
		Projects:     store.Projects(),
		Users:        store.Users(),
		Media:        store.Media(),
		Index:        index,
		Indices:      indices,
		Blobs:        blobs,
		TxManager:    memory.NewTransactionManager(),
		Coordinator: dualwrite.NewCoordinator(dualwrite.Config{
			Files:     store.Files(),
			Folders:   store.Folders(),
			Index:     index,
			Indices:   indices,
			Blobs:     blobs,
			ChunkSize: 2,
			Logger:    logger,
		}),
		Authorizer: auth.NewAuthorizer(store.Users(), auth.NewChecker()),
		Logger:     logger,
		Clock:      func() time.Time { return testNow },
	}

	f := &fixture{
		t:          t,
		store:      store,
		index:      index,
		blobs:      blobs,
		indices:    indices,
		deps:       deps,
		deletion:   newDeletionService(deps),
		indexing:   NewIndexingService(deps),
		reconciler: NewReconciler(deps),
	}
	f.store.PutUser(models.User{ID: testUser})
	return f
}

// grant gives the test user level on a repository
func (f *fixture) grant(repositoryID string, level models.AccessLevel) {
	f.access = append(f.access, models.Access{ID: repositoryID, Level: level})
	f.store.PutUser(models.User{ID: testUser, Repositories: f.access})
}

// repo seeds a repository with its base folder "<id>-base" in both stores
// and grants the test user admin on it.
func (f *fixture) repo(id string, branches ...string) *models.Repository {
	f.t.Helper()
	baseID := id + "-base"
	r := models.Repository{
		ID:        id,
		Name:      id,
		Owner:     testUser,
		Branches:  branches,
		Public:    models.AccessNone,
		FolderID:  baseID,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	f.putRepository(r)
	f.putFolder(models.Folder{
		ID:           baseID,
		ProjectID:    "project-" + id,
		RepositoryID: id,
		Path:         "",
		Branches:     branches,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	})
	f.grant(id, models.AccessAdmin)
	return &r
}

func (f *fixture) putRepository(r models.Repository) {
	f.t.Helper()
	f.store.PutRepository(r)
	f.mustIndex(f.indices.Repositories, r.ID, &models.RepositoryDocument{
		Name:          r.Name,
		NameSearch:    r.Name,
		Owner:         r.Owner,
		Branches:      r.Branches,
		Public:        r.Public,
		Folder:        r.FolderID,
		LinesOfCode:   r.LinesOfCode,
		NumberOfFiles: r.NumberOfFiles,
	})
}

func (f *fixture) putFolder(folder models.Folder) {
	f.t.Helper()
	f.store.PutFolder(folder)
	f.mustIndex(f.indices.Folders, folder.ID, models.NewFolderDocument(&folder))
}

// folder seeds a folder below parentID
func (f *fixture) folder(repositoryID, id, parentID, path string, branches ...string) {
	f.t.Helper()
	f.putFolder(models.Folder{
		ID:           id,
		ProjectID:    "project-" + repositoryID,
		RepositoryID: repositoryID,
		ParentID:     &parentID,
		Path:         path,
		Name:         path,
		Branches:     branches,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	})
}

// file seeds a file with content in the blob store and adds its
// contribution to the repository counters.
func (f *fixture) file(repositoryID, id, folderID, path string, length int, branches ...string) {
	f.t.Helper()
	file := models.File{
		ID:           id,
		ProjectID:    "project-" + repositoryID,
		RepositoryID: repositoryID,
		FolderID:     folderID,
		Path:         path,
		Name:         path,
		Location:     models.LocationBlob,
		Branches:     branches,
		FileLength:   length,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	f.store.PutFile(file)
	f.mustIndex(f.indices.Files, id, models.NewFileDocument(&file, nil))
	f.mustPutBlob(repositories.FileKey(repositoryID, id))

	repo, err := f.store.Repositories().GetByID(f.t.Context(), repositoryID)
	if err != nil {
		f.t.Fatalf("seed file: %v", err)
	}
	repo.LinesOfCode += length
	repo.NumberOfFiles++
	f.putRepository(*repo)
}

func (f *fixture) project(id string, repositoryIDs ...string) {
	f.t.Helper()
	p := models.Project{
		ID:           id,
		Name:         id,
		Owner:        testUser,
		Repositories: repositoryIDs,
		Access:       []models.Access{{ID: testUser, Level: models.AccessOwner}},
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	f.store.PutProject(p)
	f.mustIndex(f.indices.Projects, id, &models.ProjectDocument{
		Name:         p.Name,
		Owner:        p.Owner,
		Repositories: p.Repositories,
	})
}

func (f *fixture) mustIndex(index, id string, doc any) {
	f.t.Helper()
	if err := f.index.Index(f.t.Context(), index, id, doc); err != nil {
		f.t.Fatalf("seed index %s/%s: %v", index, id, err)
	}
}

func (f *fixture) mustPutBlob(key string) {
	f.t.Helper()
	if err := f.blobs.Put(f.t.Context(), key, []byte("content"), "text/plain"); err != nil {
		f.t.Fatalf("seed blob %s: %v", key, err)
	}
}

// aggregates reads the counters from both stores
func (f *fixture) aggregates(repositoryID string) (document, index models.Aggregates) {
	f.t.Helper()
	repo, err := f.store.Repositories().GetByID(f.t.Context(), repositoryID)
	if err != nil {
		f.t.Fatalf("get repository: %v", err)
	}
	var doc models.RepositoryDocument
	if err := f.index.Get(f.t.Context(), f.indices.Repositories, repositoryID, &doc); err != nil {
		f.t.Fatalf("get repository document: %v", err)
	}
	return repo.Aggregates(), models.Aggregates{LinesOfCode: doc.LinesOfCode, NumberOfFiles: doc.NumberOfFiles}
}

// indexedBranches returns the branch list of an index document, nil when absent
func (f *fixture) indexedBranches(index, id string) []string {
	f.t.Helper()
	src := f.index.Source(index, id)
	if src == nil {
		return nil
	}
	raw, _ := src["branches"].([]any)
	out := make([]string, 0, len(raw))
	for _, b := range raw {
		out = append(out, b.(string))
	}
	return out
}
