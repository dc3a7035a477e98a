package services

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
)

// GroupOptions tune the grouping pass
type GroupOptions struct {
	MatchContents bool
	ChunkSize     int64
	Workers       int
}

// DuplicateGrouper builds match groups from size-sorted candidates
type DuplicateGrouper interface {
	Group(ctx context.Context, sorted []entities.Candidate, opts GroupOptions, out *entities.MatchCollection, reporter ProgressReporter) []error
}
