package services

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeReporter struct {
	mu        sync.Mutex
	current   int64
	max       int64
	message   string
	cancelled bool
	cancelAt  int64 // request cancel once current reaches this value (0 = never)
}

func (r *fakeReporter) AdvanceMaxProgress(delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.max += delta
}

func (r *fakeReporter) AdvanceProgress(delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current += delta
	if r.cancelAt > 0 && r.current >= r.cancelAt {
		r.cancelled = true
	}
}

func (r *fakeReporter) SetMessage(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.message = message
}

func (r *fakeReporter) IsCancelRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

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
