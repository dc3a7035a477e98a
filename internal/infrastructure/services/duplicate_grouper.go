package services

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/services"
	"sync"

	"golang.org/x/sync/semaphore"
)

// SizePerProgress is the number of bytes one progress unit stands for
const SizePerProgress = 5 * 1024

// BucketGrouper builds match groups by pairwise comparison inside each run of
// equal-size candidates
type BucketGrouper struct {
	comparator services.ContentComparator
}

// NewBucketGrouper creates a grouper on top of a content comparator
func NewBucketGrouper(comparator services.ContentComparator) services.DuplicateGrouper {
	return &BucketGrouper{comparator: comparator}
}

// ComparisonWeight is the progress cost of comparing two files of size bytes
func ComparisonWeight(size int64) int64 {
	return 1 + size/SizePerProgress
}

// EstimateWork returns the progress units a grouping pass over sorted may consume
func EstimateWork(sorted []entities.Candidate) int64 {
	var total int64
	for _, bucket := range SizeBuckets(sorted) {
		k := int64(len(bucket))
		if k < 2 {
			continue
		}
		total += k * (k - 1) / 2 * ComparisonWeight(bucket[0].Size)
	}
	return total
}

type groupRun struct {
	ctx      context.Context
	opts     services.GroupOptions
	out      *entities.MatchCollection
	reporter services.ProgressReporter
	cmp      services.ContentComparator

	mu   sync.Mutex
	errs []error
}

func (g *BucketGrouper) Group(ctx context.Context, sorted []entities.Candidate, opts services.GroupOptions, out *entities.MatchCollection, reporter services.ProgressReporter) []error {
	run := &groupRun{
		ctx:      ctx,
		opts:     opts,
		out:      out,
		reporter: reporter,
		cmp:      g.comparator,
		errs:     make([]error, 0),
	}

	if reporter != nil {
		reporter.AdvanceMaxProgress(EstimateWork(sorted))
	}

	if opts.Workers <= 1 {
		run.groupSorted(sorted)
		return run.errs
	}

	// Buckets never share candidates, so they can be grouped independently
	sem := semaphore.NewWeighted(int64(opts.Workers))
	var wg sync.WaitGroup
	for _, bucket := range SizeBuckets(sorted) {
		if len(bucket) < 2 {
			continue
		}
		if run.cancelled() {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(bucket []entities.Candidate) {
			defer wg.Done()
			defer sem.Release(1)
			run.groupSorted(bucket)
		}(bucket)
	}
	wg.Wait()

	return run.errs
}

func (r *groupRun) cancelled() bool {
	return r.ctx.Err() != nil || (r.reporter != nil && r.reporter.IsCancelRequested())
}

// groupSorted runs the pairwise pass over a size-sorted slice. The first
// match of candidate i creates its group; matched candidates are consumed.
func (r *groupRun) groupSorted(sorted []entities.Candidate) {
	consumed := make([]bool, len(sorted))

	for i := 0; i < len(sorted); i++ {
		if consumed[i] {
			continue
		}
		if r.cancelled() {
			return
		}

		var group *entities.MatchGroup
		size := sorted[i].Size
		weight := ComparisonWeight(size)

		for j := i + 1; j < len(sorted); j++ {
			if consumed[j] {
				continue
			}
			if sorted[j].Size > size {
				break
			}

			if r.matches(sorted[i].Path, sorted[j].Path, size) {
				if group == nil {
					group = entities.NewMatchGroup(size, sorted[i].Path)
				}
				group.Add(sorted[j].Path)
				consumed[j] = true
			}

			if r.reporter != nil {
				r.reporter.AdvanceProgress(weight)
			}
			if r.cancelled() {
				r.out.Add(group)
				return
			}
		}

		if group != nil {
			r.out.Add(group)
		}
	}
}

// matches treats a comparison failure as a non-match and records it
func (r *groupRun) matches(pathA, pathB string, size int64) bool {
	if !r.opts.MatchContents {
		return true
	}
	same, err := r.cmp.Compare(pathA, pathB, size, r.opts.ChunkSize, r.cancelled)
	if err != nil {
		r.mu.Lock()
		r.errs = append(r.errs, &entities.ComparisonError{PathA: pathA, PathB: pathB, Err: err})
		r.mu.Unlock()
		return false
	}
	return same
}
