package services

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/services"
	"log"
	"os"
	"path/filepath"
)

// EmptyFolderCleaner removes empty directories on the local disk
type EmptyFolderCleaner struct {
	remove func(path string) error
}

// NewEmptyFolderCleaner creates a cleaner. Removal goes through os.Remove,
// which refuses a directory that is not empty.
func NewEmptyFolderCleaner() services.FolderCleaner {
	return &EmptyFolderCleaner{remove: os.Remove}
}

// CleanEmptyFolders removes the empty subdirectories of root. A root that
// cannot be read is a FatalConfigError; everything below it is best effort.
func (c *EmptyFolderCleaner) CleanEmptyFolders(ctx context.Context, root string, recursive bool, onFolder func(path string, err error)) (*entities.FolderCleanResult, error) {
	if err := entities.ValidateRoot(root); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &entities.FatalConfigError{Path: root, Reason: "cannot list root", Err: err}
	}

	log.Printf("📂 빈 폴더 정리: %s (재귀: %v)", root, recursive)
	result := entities.NewFolderCleanResult(root)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if entry.IsDir() {
			c.removeIfEmpty(ctx, filepath.Join(root, entry.Name()), recursive, result, onFolder)
		}
	}

	log.Printf("✅ 빈 폴더 %d개 삭제, %d개 실패", len(result.DeletedFolders), len(result.FailedFolders))
	return result, nil
}

// removeIfEmpty reports whether dir is gone afterwards
func (c *EmptyFolderCleaner) removeIfEmpty(ctx context.Context, dir string, recursive bool, result *entities.FolderCleanResult, onFolder func(string, error)) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unlistable folders stay
		result.Errors = append(result.Errors, &entities.EnumerationError{Path: dir, Err: err})
		return false
	}

	remaining := len(entries)
	if recursive {
		for _, entry := range entries {
			if ctx.Err() != nil {
				return false
			}
			if entry.IsDir() && c.removeIfEmpty(ctx, filepath.Join(dir, entry.Name()), true, result, onFolder) {
				remaining--
			}
		}
	}
	if remaining > 0 || ctx.Err() != nil {
		return false
	}

	err = c.remove(dir)
	if err != nil {
		result.RecordFailed(dir, err)
	} else {
		result.RecordDeleted(dir)
	}
	if onFolder != nil {
		onFolder(dir, err)
	}
	return err == nil
}
