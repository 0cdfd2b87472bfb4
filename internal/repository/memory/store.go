// Package memory holds in-process implementations of the document store,
// the search index and the blob store. They back the service tests and
// the server when no external stores are configured.
package memory

import (
	"context"
	"slices"
	"sync"

	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
)

// Store is an in-memory document store. The repository views returned by
// its accessors share one lock.
type Store struct {
	mu           sync.RWMutex
	files        map[string]*models.File
	folders      map[string]*models.Folder
	repositories map[string]*models.Repository
	projects     map[string]*models.Project
	users        map[string]*models.User
	media        map[string]*models.Media

	// BulkErr, when set, is returned by every BulkWrite before anything is applied
	BulkErr error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		files:        make(map[string]*models.File),
		folders:      make(map[string]*models.Folder),
		repositories: make(map[string]*models.Repository),
		projects:     make(map[string]*models.Project),
		users:        make(map[string]*models.User),
		media:        make(map[string]*models.Media),
	}
}

func (s *Store) PutFile(f models.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[f.ID] = cloneFile(&f)
}

func (s *Store) PutFolder(f models.Folder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[f.ID] = cloneFolder(&f)
}

func (s *Store) PutRepository(r models.Repository) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Branches = slices.Clone(r.Branches)
	s.repositories[r.ID] = &r
}

func (s *Store) PutProject(p models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = cloneProject(&p)
}

func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = cloneUser(&u)
}

func (s *Store) PutMedia(m models.Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[m.ID] = &m
}

// Counts returns the number of file and folder records of a repository
func (s *Store) Counts(repositoryID string) (files, folders int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.files {
		if f.RepositoryID == repositoryID {
			files++
		}
	}
	for _, f := range s.folders {
		if f.RepositoryID == repositoryID {
			folders++
		}
	}
	return files, folders
}

// Accessors for the repository interfaces

func (s *Store) Files() *FileRepository { return &FileRepository{s: s} }
func (s *Store) Folders() *FolderRepository { return &FolderRepository{s: s} }
func (s *Store) Repositories() *RepositoryRepository { return &RepositoryRepository{s: s} }
func (s *Store) Projects() *ProjectRepository { return &ProjectRepository{s: s} }
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }
func (s *Store) Media() *MediaRepository { return &MediaRepository{s: s} }

// TransactionManager runs fn directly. The store has no rollback.
type TransactionManager struct{}

func NewTransactionManager() repositories.TransactionManager {
	return TransactionManager{}
}

func (TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func cloneFile(f *models.File) *models.File {
	c := *f
	c.Branches = slices.Clone(f.Branches)
	return &c
}

func cloneFolder(f *models.Folder) *models.Folder {
	c := *f
	c.Branches = slices.Clone(f.Branches)
	if f.ParentID != nil {
		p := *f.ParentID
		c.ParentID = &p
	}
	return &c
}

func cloneProject(p *models.Project) *models.Project {
	c := *p
	c.Repositories = slices.Clone(p.Repositories)
	c.Access = slices.Clone(p.Access)
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Repositories = slices.Clone(u.Repositories)
	c.Projects = slices.Clone(u.Projects)
	return &c
}

// patchBranches applies the branch part of a patch to a branch set
func patchBranches(branches []string, p *models.Patch) []string {
	if p.RemoveBranch != "" {
		branches = slices.DeleteFunc(branches, func(b string) bool { return b == p.RemoveBranch })
	}
	if p.AddBranch != "" && !slices.Contains(branches, p.AddBranch) {
		branches = append(branches, p.AddBranch)
	}
	return branches
}

func matchesAny(ids []string, id string) bool {
	return len(ids) == 0 || slices.Contains(ids, id)
}
