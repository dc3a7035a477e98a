package services

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
)

// TrashDeleter moves a path to the platform trash, reporting success
type TrashDeleter interface {
	TrashDelete(path string) bool
}

// HardDeleter removes a path permanently
type HardDeleter interface {
	HardDelete(path string) error
}

// FolderCleaner removes empty directories below a root. With recursive set,
// a directory whose subdirectories all turn out empty is removed as well.
// onFolder, if set, is called after each removal attempt.
type FolderCleaner interface {
	CleanEmptyFolders(ctx context.Context, root string, recursive bool, onFolder func(path string, err error)) (*entities.FolderCleanResult, error)
}
