package usecases

import (
	"context"
	"errors"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/services"
	infra "go-local-duplicates/internal/infrastructure/services"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i) + seed
	}
	return b
}

func newTestOperation(settings entities.MatchSettings, comparator services.ContentComparator) *Operation {
	if comparator == nil {
		comparator = infra.NewChunkComparator()
	}
	return NewOperation(settings, infra.NewLocalScanner(false), infra.NewSizeSorter(), infra.NewBucketGrouper(comparator))
}

// groupSets renders groups as sorted member lists for order-independent asserts
func groupSets(groups []*entities.MatchGroup) [][]string {
	out := make([][]string, 0, len(groups))
	for _, g := range groups {
		members := append([]string(nil), g.Members...)
		sort.Strings(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// removingScanner deletes a path after enumeration so the comparison hits a vanished file
type removingScanner struct {
	services.Scanner
	remove string
}

func (s *removingScanner) Scan(ctx context.Context, opts services.ScanOptions, reporter services.ProgressReporter) ([]entities.Candidate, []error) {
	candidates, errs := s.Scanner.Scan(ctx, opts, reporter)
	_ = os.Remove(s.remove)
	return candidates, errs
}

// cancellingComparator requests cancellation after a number of comparisons
type cancellingComparator struct {
	services.ContentComparator
	mu    sync.Mutex
	calls int
	after int
	op    *Operation
}

func (c *cancellingComparator) Compare(a, b string, size, chunk int64, cancelled func() bool) (bool, error) {
	c.mu.Lock()
	c.calls++
	if c.calls == c.after {
		c.op.RequestCancel()
	}
	c.mu.Unlock()
	return c.ContentComparator.Compare(a, b, size, chunk, cancelled)
}

func TestOperation_FindsIdenticalPairOnly(t *testing.T) {
	dir := t.TempDir()
	content := pattern(100, 1)
	a := writeFile(t, dir, "a.bin", content)
	b := writeFile(t, dir, "b.bin", content)
	changed := append([]byte(nil), content...)
	changed[57] ^= 0xFF
	writeFile(t, dir, "c.bin", changed)
	writeFile(t, dir, "d.bin", pattern(50, 1))
	writeFile(t, dir, "sub/e.bin", content)

	settings := entities.DefaultMatchSettings(dir)
	settings.Recursive = false
	op := newTestOperation(settings, nil)
	defer op.Dispose()

	results, errs, err := op.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs)

	require.Equal(t, 1, results.Len())
	assert.Equal(t, [][]string{{a, b}}, groupSets(results.Groups()))
	group := results.Groups()[0]
	assert.Equal(t, int64(100), group.FileSize)
	assert.Equal(t, op.ID(), group.OperationID)
	assert.Equal(t, int64(100), results.DuplicatesSize())

	record := op.ProgressRecord()
	assert.True(t, record.IsCompleted())
	assert.True(t, record.Complete)
	assert.Equal(t, record.Max, record.Current)
}

func TestOperation_RecursiveIncludesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	content := pattern(64, 3)
	a := writeFile(t, dir, "a.bin", content)
	e := writeFile(t, dir, "nested/deeper/e.bin", content)

	op := newTestOperation(entities.DefaultMatchSettings(dir), nil)
	defer op.Dispose()

	results, errs, err := op.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, [][]string{{a, e}}, groupSets(results.Groups()))
}

func TestOperation_EmptyDirectory(t *testing.T) {
	op := newTestOperation(entities.DefaultMatchSettings(t.TempDir()), nil)
	defer op.Dispose()

	results, errs, err := op.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, 0, results.Len())
	assert.True(t, op.Snapshot().Complete)
}

func TestOperation_VanishedFileIsComparisonError(t *testing.T) {
	dir := t.TempDir()
	content := pattern(100, 9)
	writeFile(t, dir, "a.bin", content)
	b := writeFile(t, dir, "b.bin", content)
	f := writeFile(t, dir, "f.bin", pattern(200, 4))
	g := writeFile(t, dir, "g.bin", pattern(200, 4))

	scanner := &removingScanner{Scanner: infra.NewLocalScanner(false), remove: b}
	op := NewOperation(entities.DefaultMatchSettings(dir), scanner, infra.NewSizeSorter(),
		infra.NewBucketGrouper(infra.NewChunkComparator()))
	defer op.Dispose()

	results, errs, err := op.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, errs, 1)
	var cmpErr *entities.ComparisonError
	require.True(t, errors.As(errs[0], &cmpErr))
	assert.Contains(t, []string{cmpErr.PathA, cmpErr.PathB}, b)
	assert.True(t, errors.Is(errs[0], os.ErrNotExist))

	// Grouping carried on past the failure
	assert.Equal(t, [][]string{{f, g}}, groupSets(results.Groups()))
	assert.True(t, op.ProgressRecord().IsCompleted())
}

func TestOperation_InvalidRootIsFatal(t *testing.T) {
	tests := []struct {
		name string
		root func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }},
		{"file", func(t *testing.T) string { return writeFile(t, t.TempDir(), "x.txt", []byte("x")) }},
		{"empty", func(t *testing.T) string { return "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := newTestOperation(entities.DefaultMatchSettings(tt.root(t)), nil)
			defer op.Dispose()

			results, errs, err := op.Run(context.Background())
			require.Error(t, err)
			var fatal *entities.FatalConfigError
			assert.True(t, errors.As(err, &fatal))
			assert.Nil(t, results)
			assert.Nil(t, errs)
			assert.True(t, op.ProgressRecord().IsFailed())
		})
	}
}

func TestOperation_RunTwice(t *testing.T) {
	op := newTestOperation(entities.DefaultMatchSettings(t.TempDir()), nil)
	defer op.Dispose()

	_, _, err := op.Run(context.Background())
	require.NoError(t, err)

	_, _, err = op.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestOperation_DisposeBeforeRun(t *testing.T) {
	op := newTestOperation(entities.DefaultMatchSettings(t.TempDir()), nil)
	op.Dispose()
	op.Dispose()

	_, _, err := op.Run(context.Background())
	assert.ErrorIs(t, err, ErrDisposed)

	// Snapshots is closed so readers do not hang
	_, ok := <-op.Snapshots()
	assert.False(t, ok)

	// Cancelling a disposed operation has no effect
	op.RequestCancel()
	assert.False(t, op.IsCancelRequested())
}

func TestOperation_SnapshotsCloseAfterRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.bin", pattern(10, 1))
	writeFile(t, dir, "b.bin", pattern(10, 1))

	op := newTestOperation(entities.DefaultMatchSettings(dir), nil)
	defer op.Dispose()

	var (
		mu        sync.Mutex
		violation bool
	)
	op.OnProgress(func(s entities.ProgressSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		if s.Current > s.Max || s.Current < 0 {
			violation = true
		}
	})

	_, _, err := op.Run(context.Background())
	require.NoError(t, err)

	var last entities.ProgressSnapshot
	for s := range op.Snapshots() {
		last = s
	}
	assert.True(t, last.Complete)
	assert.Equal(t, last.Max, last.Current)
	assert.Equal(t, float64(100), last.Percentage())

	mu.Lock()
	assert.False(t, violation)
	mu.Unlock()
}

func TestOperation_CancelYieldsSubset(t *testing.T) {
	dir := t.TempDir()
	for size := 10; size < 20; size++ {
		for n := 0; n < 3; n++ {
			writeFile(t, dir, filepath.Join("s", string(rune('a'+size-10)), string(rune('0'+n))+".bin"), pattern(size, byte(size)))
		}
	}

	full := newTestOperation(entities.DefaultMatchSettings(dir), nil)
	defer full.Dispose()
	fullResults, _, err := full.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, fullResults.Len())

	expected := make(map[string]string)
	for _, g := range fullResults.Groups() {
		for _, m := range g.Members {
			expected[m] = g.Members[0]
		}
	}

	comparator := &cancellingComparator{ContentComparator: infra.NewChunkComparator(), after: 5}
	partial := newTestOperation(entities.DefaultMatchSettings(dir), comparator)
	comparator.op = partial
	defer partial.Dispose()

	partialResults, errs, err := partial.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.True(t, partial.ProgressRecord().IsCancelled())
	assert.Less(t, partialResults.Len(), fullResults.Len())

	for _, g := range partialResults.Groups() {
		require.True(t, g.IsValid())
		anchor := expected[g.Members[0]]
		require.NotEmpty(t, anchor)
		for _, m := range g.Members {
			assert.Equal(t, anchor, expected[m], "member %s belongs to another group", m)
		}
	}
}

func TestOperation_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.bin", pattern(10, 1))
	writeFile(t, dir, "b.bin", pattern(10, 1))

	op := newTestOperation(entities.DefaultMatchSettings(dir), nil)
	defer op.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, _, err := op.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, results.Len())
	assert.True(t, op.ProgressRecord().IsCancelled())
}

func TestOperation_ParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 6; i++ {
		size := 32 + i*8
		writeFile(t, dir, filepath.Join("x", string(rune('a'+i))+"1"), pattern(size, byte(i)))
		writeFile(t, dir, filepath.Join("y", string(rune('a'+i))+"2"), pattern(size, byte(i)))
		writeFile(t, dir, filepath.Join("z", string(rune('a'+i))+"3"), pattern(size, byte(i+100)))
	}

	run := func(workers int) [][]string {
		settings := entities.DefaultMatchSettings(dir)
		settings.Workers = workers
		op := newTestOperation(settings, nil)
		defer op.Dispose()
		results, errs, err := op.Run(context.Background())
		require.NoError(t, err)
		require.Empty(t, errs)
		return groupSets(results.Groups())
	}

	sequential := run(1)
	assert.Len(t, sequential, 6)
	assert.Equal(t, sequential, run(4))
}
