package usecases

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
	infra "go-local-duplicates/internal/infrastructure/services"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cleanupFixture struct {
	uc       *FileCleanupUseCase
	groups   *memoryGroupRepo
	progress *memoryProgressService
	deleter  *recordingDeleter
}

func newCleanupFixture(t *testing.T, fail ...string) *cleanupFixture {
	t.Helper()
	f := &cleanupFixture{
		groups:   newMemoryGroupRepo(),
		progress: newMemoryProgressService(),
		deleter:  &recordingDeleter{fail: make(map[string]bool)},
	}
	for _, p := range fail {
		f.deleter.fail[p] = true
	}
	f.uc = NewFileCleanupUseCase(f.groups, f.progress, NewDeletionPlanner(f.deleter, f.deleter), infra.NewEmptyFolderCleaner())

	for _, g := range testGroups() {
		g.OperationID = "op-1"
		require.NoError(t, f.groups.Save(context.Background(), g))
	}
	return f
}

func (f *cleanupFixture) waitDone(t *testing.T, progressID int) *entities.Progress {
	t.Helper()
	var p *entities.Progress
	require.True(t, waitFor(func() bool {
		var err error
		p, err = f.progress.GetProgress(context.Background(), progressID)
		return err == nil && p.IsTerminal()
	}), "deletion did not finish")
	return p
}

func TestFileCleanup_Preview(t *testing.T) {
	f := newCleanupFixture(t)

	preview, err := f.uc.PreviewDeletion(context.Background(), &DeleteDuplicatesRequest{
		OperationID: "op-1",
		Ordering:    "lexicographic",
	})
	require.NoError(t, err)
	assert.Len(t, preview.Plan, 2)
	assert.Equal(t, 3, preview.TotalFiles)
	assert.Equal(t, int64(40), preview.DuplicatesSize)

	// Nothing touched
	assert.Empty(t, f.deleter.trashed)
	count, _ := f.groups.Count(context.Background(), "op-1")
	assert.Equal(t, 3, count)
}

func TestFileCleanup_RequiresSelection(t *testing.T) {
	f := newCleanupFixture(t)

	_, err := f.uc.PreviewDeletion(context.Background(), &DeleteDuplicatesRequest{})
	assert.Error(t, err)

	_, err = f.uc.DeleteDuplicates(context.Background(), &DeleteDuplicatesRequest{OperationID: "op-1", Ordering: "longest"})
	assert.Error(t, err)
}

func TestFileCleanup_DeletesAndForgetsGroups(t *testing.T) {
	f := newCleanupFixture(t)

	resp, err := f.uc.DeleteDuplicates(context.Background(), &DeleteDuplicatesRequest{OperationID: "op-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalGroups)
	assert.Equal(t, 3, resp.TotalFiles)
	assert.Equal(t, int64(40), resp.DuplicatesSize)

	record := f.waitDone(t, resp.Progress.ID)
	assert.True(t, record.IsCompleted())
	assert.Equal(t, record.Max, record.Current)
	deleted, _ := record.GetMetadata("deleted")
	assert.Equal(t, 3, deleted)

	f.deleter.mu.Lock()
	assert.Len(t, f.deleter.trashed, 3)
	f.deleter.mu.Unlock()

	count, _ := f.groups.Count(context.Background(), "op-1")
	assert.Equal(t, 0, count)
}

func TestFileCleanup_FailedMemberStaysInGroup(t *testing.T) {
	f := newCleanupFixture(t, "/d/a")
	no := false

	resp, err := f.uc.DeleteDuplicates(context.Background(), &DeleteDuplicatesRequest{
		GroupIDs:    []int{1},
		Ordering:    "lexicographic",
		MoveToTrash: &no,
	})
	require.NoError(t, err)
	record := f.waitDone(t, resp.Progress.ID)
	failed, _ := record.GetMetadata("failed")
	assert.Equal(t, 1, failed)

	f.deleter.mu.Lock()
	assert.Equal(t, []string{"/d/b"}, f.deleter.removed)
	f.deleter.mu.Unlock()

	group, err := f.groups.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, group)
	assert.ElementsMatch(t, []string{"/d/a", "/d/c"}, group.Members)

	// Other groups of the operation are untouched
	count, _ := f.groups.Count(context.Background(), "op-1")
	assert.Equal(t, 3, count)
}

func TestFileCleanup_CleanupEmptyFolders(t *testing.T) {
	f := newCleanupFixture(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "old", "photos"), 0755))
	writeFile(t, root, "keep/a.txt", pattern(10, 1))

	resp, err := f.uc.CleanupEmptyFolders(context.Background(), &CleanupEmptyFoldersRequest{Root: root})
	require.NoError(t, err)
	assert.True(t, resp.Recursive)
	assert.Equal(t, entities.OperationFolderCleanup, resp.Progress.OperationType)

	record := f.waitDone(t, resp.Progress.ID)
	assert.True(t, record.IsCompleted())
	deleted, _ := record.GetMetadata("deletedFolders")
	assert.Equal(t, 2, deleted)

	_, err = os.Stat(filepath.Join(root, "old"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "keep", "a.txt"))
	assert.NoError(t, err)
}

func TestFileCleanup_CleanupEmptyFoldersBadRoot(t *testing.T) {
	f := newCleanupFixture(t)
	_, err := f.uc.CleanupEmptyFolders(context.Background(), &CleanupEmptyFoldersRequest{Root: filepath.Join(t.TempDir(), "gone")})
	var fatal *entities.FatalConfigError
	assert.ErrorAs(t, err, &fatal)
}
