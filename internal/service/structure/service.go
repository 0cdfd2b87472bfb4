// Package structure implements file, folder, branch, repository and project
// mutations that must stay consistent across the document store and the
// search index.
package structure

import (
	"log/slog"
	"time"

	"rescribe/internal/domain/repositories"
	repos "rescribe/internal/domain/repositories/structure"
	"rescribe/internal/domain/services"
	"rescribe/internal/dualwrite"
	"rescribe/internal/service/auth"
)

// Dependencies holds the collaborators shared by the structure services
type Dependencies struct {
	Files        repos.FileRepository
	Folders      repos.FolderRepository
	Repositories repos.RepositoryRepository
	Projects     repos.ProjectRepository
	Users        repos.UserRepository
	Media        repos.MediaRepository
	Index        repositories.SearchIndex
	Indices      *repositories.IndexNames
	Blobs        repositories.BlobStore
	TxManager    repositories.TransactionManager
	Coordinator  *dualwrite.Coordinator
	Authorizer   *auth.Authorizer
	Analyzer     services.ContentAnalyzer
	Logger       *slog.Logger
	Clock        func() time.Time // defaults to time.Now
}

func (d *Dependencies) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
