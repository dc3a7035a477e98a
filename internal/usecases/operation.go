package usecases

import (
	"context"
	"errors"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/services"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

var (
	// ErrAlreadyRun is returned by a second call to Run
	ErrAlreadyRun = errors.New("operation has already been run")
	// ErrDisposed is returned by Run after Dispose
	ErrDisposed = errors.New("operation has been disposed")
	// ErrOperationNotFound is returned when no running operation has the given id
	ErrOperationNotFound = errors.New("operation not found")
	// ErrNotFound is wrapped when a stored record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest is wrapped when request fields are missing or malformed
	ErrInvalidRequest = errors.New("invalid request")
)

// Operation is a cancellable duplicate search: scan, sort by size, group.
// Run may be called once. Partial results survive cancellation.
type Operation struct {
	*ProgressTracker

	id       string
	settings entities.MatchSettings
	scanner  services.Scanner
	sorter   services.SizeSorter
	grouper  services.DuplicateGrouper

	results  *entities.MatchCollection
	ran      atomic.Bool
	disposer sync.Once
}

// NewOperation creates a search over settings. Settings are normalized and
// never change afterwards.
func NewOperation(settings entities.MatchSettings, scanner services.Scanner, sorter services.SizeSorter, grouper services.DuplicateGrouper) *Operation {
	op := &Operation{
		ProgressTracker: NewProgressTracker(entities.OperationDuplicateSearch),
		id:              uuid.New().String(),
		settings:        settings.Normalize(),
		scanner:         scanner,
		sorter:          sorter,
		grouper:         grouper,
		results:         entities.NewMatchCollection(),
	}
	op.progress.OperationID = op.id
	return op
}

// ID returns the operation id
func (o *Operation) ID() string {
	return o.id
}

// Settings returns the normalized settings
func (o *Operation) Settings() entities.MatchSettings {
	return o.settings
}

// Results returns the live collection; it may be read while Run appends
func (o *Operation) Results() *entities.MatchCollection {
	return o.results
}

// Run performs the search. Non-fatal errors come back in the slice; the
// final error is only set for an invalid root, a second Run or a disposed
// operation. Cancellation is not an error.
func (o *Operation) Run(ctx context.Context) (*entities.MatchCollection, []error, error) {
	if o.disposed.Load() {
		return nil, nil, ErrDisposed
	}
	if !o.ran.CompareAndSwap(false, true) {
		return nil, nil, ErrAlreadyRun
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	unlink := context.AfterFunc(o.ctx, stop)
	defer unlink()

	errs := make([]error, 0)
	started := time.Now()

	if err := entities.ValidateRoot(o.settings.Root); err != nil {
		log.Printf("❌ 잘못된 검색 경로: %v", err)
		o.finish(func(p *entities.Progress) { p.Fail(err.Error()) })
		return nil, nil, err
	}

	o.update(func(p *entities.Progress) {
		p.Start()
		p.UpdateStep("scanning", "파일 목록 수집 중...")
	})

	candidates, scanErrs := o.scanner.Scan(runCtx, services.ScanOptionsFrom(o.settings), o)
	errs = append(errs, scanErrs...)

	if !o.stopped(runCtx) {
		o.update(func(p *entities.Progress) {
			p.UpdateStep("comparing", "파일 내용 비교 중...")
		})
		sorted := o.sorter.Sort(candidates)
		groupErrs := o.grouper.Group(runCtx, sorted, services.GroupOptions{
			MatchContents: o.settings.MatchContents,
			ChunkSize:     o.settings.ChunkSize,
			Workers:       o.settings.Workers,
		}, o.results, o)
		errs = append(errs, groupErrs...)
	}

	for _, g := range o.results.Groups() {
		g.OperationID = o.id
	}

	if o.stopped(runCtx) {
		o.finish(func(p *entities.Progress) {
			p.UpdateStep("cancelled", "작업이 취소되었습니다")
			p.Cancel()
		})
		log.Printf("⏹️ 중복 검색 취소됨: %d개 그룹 (부분 결과)", o.results.Len())
	} else {
		o.finish(func(p *entities.Progress) {
			p.UpdateStep("completed", "중복 검색 완료")
			p.Finish()
		})
		log.Printf("✅ 중복 검색 완료: %d개 후보, %d개 그룹, %s 중복, %v 소요",
			len(candidates), o.results.Len(),
			humanize.IBytes(uint64(o.results.DuplicatesSize())),
			time.Since(started).Round(time.Millisecond))
	}

	return o.results, errs, nil
}

func (o *Operation) stopped(ctx context.Context) bool {
	return o.IsCancelRequested() || ctx.Err() != nil
}

// Dispose releases the cancellation context. Calling it again is a no-op.
func (o *Operation) Dispose() {
	o.disposer.Do(func() {
		o.disposed.Store(true)
		o.cancel()
		if !o.ran.Load() {
			o.closeSnapshots()
		}
	})
}
