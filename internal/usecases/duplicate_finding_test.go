package usecases

import (
	"context"
	"errors"
	"go-local-duplicates/internal/domain/entities"
	infra "go-local-duplicates/internal/infrastructure/services"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type findingFixture struct {
	uc       *DuplicateFindingUseCase
	groups   *memoryGroupRepo
	errors   *memoryErrorRepo
	progress *memoryProgressService
	deleter  *recordingDeleter
}

func newFindingFixture() *findingFixture {
	f := &findingFixture{
		groups:   newMemoryGroupRepo(),
		errors:   &memoryErrorRepo{},
		progress: newMemoryProgressService(),
		deleter:  &recordingDeleter{},
	}
	f.uc = NewDuplicateFindingUseCase(
		f.groups, f.errors, f.progress,
		infra.NewLocalScanner(false), infra.NewSizeSorter(),
		infra.NewBucketGrouper(infra.NewChunkComparator()),
		NewDeletionPlanner(f.deleter, f.deleter),
	)
	f.uc.SetConfiguration(entities.DefaultMatchSettings(""), time.Millisecond, 10)
	return f
}

func (f *findingFixture) waitDone(t *testing.T, progressID int) *entities.Progress {
	t.Helper()
	var p *entities.Progress
	require.True(t, waitFor(func() bool {
		var err error
		p, err = f.progress.GetProgress(context.Background(), progressID)
		return err == nil && p.IsTerminal() && len(f.uc.RunningOperations()) == 0
	}), "operation did not finish")
	return p
}

func TestDuplicateFinding_SettingsFor(t *testing.T) {
	f := newFindingFixture()
	dir := t.TempDir()
	no := false

	settings, err := f.uc.SettingsFor(&FindDuplicatesRequest{
		Root:          dir,
		Recursive:     &no,
		MatchContents: &no,
		MinSize:       100,
		MaxSize:       10,
		IncludeExt:    []string{"JPG", ".png"},
		Workers:       4,
		Ordering:      "reverse",
	})
	require.NoError(t, err)
	assert.Equal(t, dir, settings.Root)
	assert.False(t, settings.Recursive)
	assert.False(t, settings.MatchContents)
	assert.Equal(t, int64(10), settings.MinSize)
	assert.Equal(t, int64(100), settings.MaxSize)
	assert.Equal(t, []string{".jpg", ".png"}, settings.IncludeExt)
	assert.Equal(t, 4, settings.Workers)
	assert.Equal(t, entities.OrderReverseLexicographic, settings.Ordering)
	assert.Equal(t, entities.DefaultChunkSize, settings.ChunkSize)

	_, err = f.uc.SettingsFor(&FindDuplicatesRequest{Root: dir, Ordering: "shortest"})
	assert.Error(t, err)

	_, err = f.uc.SettingsFor(&FindDuplicatesRequest{Root: filepath.Join(dir, "missing")})
	var fatal *entities.FatalConfigError
	assert.True(t, errors.As(err, &fatal))
}

func TestDuplicateFinding_PersistsGroups(t *testing.T) {
	f := newFindingFixture()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", pattern(40, 1))
	b := writeFile(t, dir, "b.txt", pattern(40, 1))
	writeFile(t, dir, "c.txt", pattern(40, 2))

	resp, err := f.uc.FindDuplicates(context.Background(), &FindDuplicatesRequest{Root: dir})
	require.NoError(t, err)
	require.NotEmpty(t, resp.OperationID)

	record := f.waitDone(t, resp.Progress.ID)
	assert.True(t, record.IsCompleted())
	assert.Equal(t, resp.OperationID, record.OperationID)

	page, err := f.uc.GetMatchGroups(context.Background(), resp.OperationID, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalGroups)
	assert.ElementsMatch(t, []string{a, b}, page.Groups[0].Members)
	assert.Equal(t, int64(40), page.DuplicatesSize)
	assert.False(t, page.HasNext)

	group, err := f.uc.GetMatchGroup(context.Background(), page.Groups[0].ID)
	require.NoError(t, err)
	assert.Equal(t, resp.OperationID, group.OperationID)

	_, err = f.uc.GetMatchGroup(context.Background(), 999)
	assert.Error(t, err)
}

func TestDuplicateFinding_RecordsErrors(t *testing.T) {
	f := newFindingFixture()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", pattern(40, 1))
	b := writeFile(t, dir, "b.txt", pattern(40, 1))
	f.uc.scanner = &removingScanner{Scanner: infra.NewLocalScanner(false), remove: b}

	resp, err := f.uc.FindDuplicates(context.Background(), &FindDuplicatesRequest{Root: dir})
	require.NoError(t, err)
	f.waitDone(t, resp.Progress.ID)

	errs, counts, err := f.uc.GetOperationErrors(context.Background(), resp.OperationID, 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, entities.ErrorKindComparison, errs[0].Kind)
	assert.Equal(t, 1, counts[entities.ErrorKindComparison])
}

func TestDuplicateFinding_AutoDelete(t *testing.T) {
	f := newFindingFixture()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", pattern(40, 1))
	b := writeFile(t, dir, "b.txt", pattern(40, 1))

	resp, err := f.uc.FindDuplicates(context.Background(), &FindDuplicatesRequest{
		Root:       dir,
		AutoDelete: true,
		Ordering:   "lexicographic",
	})
	require.NoError(t, err)
	record := f.waitDone(t, resp.Progress.ID)

	// b sorts last and survives
	f.deleter.mu.Lock()
	assert.Equal(t, []string{a}, f.deleter.trashed)
	assert.NotContains(t, f.deleter.trashed, b)
	f.deleter.mu.Unlock()

	// The group is kept as found, with the deletion outcome alongside
	page, err := f.uc.GetMatchGroups(context.Background(), resp.OperationID, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalGroups)
	assert.ElementsMatch(t, []string{a, b}, page.Groups[0].Members)

	assert.True(t, record.IsCompleted())
	assert.EqualValues(t, 40, record.Metadata["duplicatesSize"])
	assert.EqualValues(t, 1, record.Metadata["deletedFiles"])
	assert.EqualValues(t, 0, record.Metadata["failedFiles"])
	assert.EqualValues(t, 40, record.Metadata["bytesFreed"])
}

func TestDuplicateFinding_CancelUnknown(t *testing.T) {
	f := newFindingFixture()
	err := f.uc.CancelOperation(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrOperationNotFound)

	_, err = f.uc.LiveSnapshot("nope")
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestDuplicateFinding_RecentOperations(t *testing.T) {
	f := newFindingFixture()
	dir := t.TempDir()

	for i := 0; i < 3; i++ {
		resp, err := f.uc.FindDuplicates(context.Background(), &FindDuplicatesRequest{Root: dir})
		require.NoError(t, err)
		f.waitDone(t, resp.Progress.ID)
	}

	recent, err := f.uc.GetRecentOperations(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
	for _, p := range recent {
		assert.Equal(t, entities.OperationDuplicateSearch, p.OperationType)
	}
}
