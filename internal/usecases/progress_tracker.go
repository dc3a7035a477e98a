package usecases

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
	"sync"
	"sync/atomic"
)

// ProgressTracker owns one Progress and one cancellation flag. Counters are
// mutated by the worker and observed from other goroutines through
// Snapshot, the Snapshots channel or a callback.
type ProgressTracker struct {
	mu       sync.Mutex
	progress *entities.Progress

	cancelRequested atomic.Bool
	disposed        atomic.Bool
	ctx             context.Context
	cancel          context.CancelFunc

	pubMu      sync.Mutex
	snapshots  chan entities.ProgressSnapshot
	closed     bool
	onProgress func(entities.ProgressSnapshot)
}

// NewProgressTracker creates a tracker for the given operation type
func NewProgressTracker(operationType string) *ProgressTracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &ProgressTracker{
		progress:  entities.NewProgress(operationType),
		ctx:       ctx,
		cancel:    cancel,
		snapshots: make(chan entities.ProgressSnapshot, 1),
	}
}

// OnProgress registers a callback invoked with every snapshot. It runs on the
// worker goroutine and must not block.
func (t *ProgressTracker) OnProgress(fn func(entities.ProgressSnapshot)) {
	t.pubMu.Lock()
	t.onProgress = fn
	t.pubMu.Unlock()
}

// Snapshots delivers the latest snapshot; stale values are dropped when the
// reader falls behind. The channel is closed when the operation ends.
func (t *ProgressTracker) Snapshots() <-chan entities.ProgressSnapshot {
	return t.snapshots
}

// Snapshot returns the current counters
func (t *ProgressTracker) Snapshot() entities.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress.Snapshot()
}

// ProgressRecord returns a copy of the full progress record
func (t *ProgressTracker) ProgressRecord() entities.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.progress
}

func (t *ProgressTracker) SetMaxProgress(n int64) {
	t.update(func(p *entities.Progress) { p.SetMax(n) })
}

func (t *ProgressTracker) AdvanceMaxProgress(delta int64) {
	if delta == 0 {
		return
	}
	t.update(func(p *entities.Progress) { p.AdvanceMax(delta) })
}

func (t *ProgressTracker) AdvanceProgress(delta int64) {
	t.update(func(p *entities.Progress) { p.Advance(delta) })
}

func (t *ProgressTracker) SetMessage(message string) {
	t.update(func(p *entities.Progress) { p.UpdateStep(message, message) })
}

// MarkComplete forces current to max and flags completion
func (t *ProgressTracker) MarkComplete() {
	t.update(func(p *entities.Progress) { p.MarkComplete() })
}

// RequestCancel asks the worker to stop at its next checkpoint.
// It does nothing once the tracker is disposed.
func (t *ProgressTracker) RequestCancel() {
	if t.disposed.Load() {
		return
	}
	t.cancelRequested.Store(true)
	t.cancel()
}

// IsCancelRequested is polled by the worker between units of work
func (t *ProgressTracker) IsCancelRequested() bool {
	return t.cancelRequested.Load()
}

// Context is cancelled by RequestCancel and Dispose
func (t *ProgressTracker) Context() context.Context {
	return t.ctx
}

func (t *ProgressTracker) update(fn func(p *entities.Progress)) {
	t.mu.Lock()
	fn(t.progress)
	snap := t.progress.Snapshot()
	t.mu.Unlock()
	t.publish(snap)
}

func (t *ProgressTracker) publish(snap entities.ProgressSnapshot) {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()

	if t.onProgress != nil {
		t.onProgress(snap)
	}
	if t.closed {
		return
	}
	select {
	case t.snapshots <- snap:
	default:
		// Drop the stale value so the reader sees the latest one
		select {
		case <-t.snapshots:
		default:
		}
		select {
		case t.snapshots <- snap:
		default:
		}
	}
}

func (t *ProgressTracker) closeSnapshots() {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.snapshots)
	}
}

// finish moves the record into its terminal state and publishes it
func (t *ProgressTracker) finish(fn func(p *entities.Progress)) {
	t.update(fn)
	t.closeSnapshots()
}

// cloneProgress copies a record so it can be serialized while the worker
// keeps mutating the original
func cloneProgress(p *entities.Progress) *entities.Progress {
	c := *p
	c.Metadata = make(map[string]interface{}, len(p.Metadata))
	for k, v := range p.Metadata {
		c.Metadata[k] = v
	}
	return &c
}
