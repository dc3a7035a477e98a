package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go-local-duplicates/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// folderTree builds:
//
//	root/empty/
//	root/nested/inner/deeper/
//	root/kept/file.txt
//	root/mixed/empty/ + root/mixed/file.txt
func folderTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"empty", "nested/inner/deeper", "mixed/empty"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}
	writeFile(t, root, "kept/file.txt", []byte("x"))
	writeFile(t, root, "mixed/file.txt", []byte("x"))
	return root
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestEmptyFolderCleaner_Recursive(t *testing.T) {
	root := folderTree(t)

	var reported []string
	result, err := NewEmptyFolderCleaner().CleanEmptyFolders(context.Background(), root, true, func(path string, err error) {
		assert.NoError(t, err)
		reported = append(reported, path)
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(root, "empty"),
		filepath.Join(root, "nested", "inner", "deeper"),
		filepath.Join(root, "nested", "inner"),
		filepath.Join(root, "nested"),
		filepath.Join(root, "mixed", "empty"),
	}, result.DeletedFolders)
	assert.Equal(t, result.DeletedFolders, reported)
	assert.Empty(t, result.FailedFolders)

	assert.True(t, exists(root), "root is never removed")
	assert.True(t, exists(filepath.Join(root, "kept", "file.txt")))
	assert.True(t, exists(filepath.Join(root, "mixed", "file.txt")))
}

func TestEmptyFolderCleaner_TopLevelOnly(t *testing.T) {
	root := folderTree(t)

	result, err := NewEmptyFolderCleaner().CleanEmptyFolders(context.Background(), root, false, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "empty")}, result.DeletedFolders)
	assert.True(t, exists(filepath.Join(root, "nested", "inner", "deeper")))
	assert.True(t, exists(filepath.Join(root, "mixed", "empty")))
}

func TestEmptyFolderCleaner_RemoveFailureKeepsParent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "stuck"), 0755))

	stuck := filepath.Join(root, "a", "stuck")
	c := &EmptyFolderCleaner{remove: func(path string) error {
		if path == stuck {
			return errors.New("busy")
		}
		return os.Remove(path)
	}}

	result, err := c.CleanEmptyFolders(context.Background(), root, true, nil)
	require.NoError(t, err)
	assert.Empty(t, result.DeletedFolders)
	assert.Equal(t, []string{stuck}, result.FailedFolders)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, entities.ErrorKindDeletion, entities.ErrorKind(result.Errors[0]))
	assert.True(t, exists(filepath.Join(root, "a")))
}

func TestEmptyFolderCleaner_BadRoot(t *testing.T) {
	_, err := NewEmptyFolderCleaner().CleanEmptyFolders(context.Background(), filepath.Join(t.TempDir(), "missing"), true, nil)
	var fatal *entities.FatalConfigError
	assert.True(t, errors.As(err, &fatal))
}

func TestEmptyFolderCleaner_Cancelled(t *testing.T) {
	root := folderTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewEmptyFolderCleaner().CleanEmptyFolders(ctx, root, true, nil)
	require.NoError(t, err)
	assert.Empty(t, result.DeletedFolders)
	assert.True(t, exists(filepath.Join(root, "empty")))
}
