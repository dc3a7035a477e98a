package services

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
)

// ScanOptions selects candidates below a root
type ScanOptions struct {
	Root       string
	Recursive  bool
	IncludeExt []string // normalized, with leading dot
	ExcludeExt []string
	MinSize    int64
	MaxSize    int64
}

// ScanOptionsFrom derives scan options from match settings
func ScanOptionsFrom(s entities.MatchSettings) ScanOptions {
	return ScanOptions{
		Root:       s.Root,
		Recursive:  s.Recursive,
		IncludeExt: s.IncludeExt,
		ExcludeExt: s.ExcludeExt,
		MinSize:    s.MinSize,
		MaxSize:    s.MaxSize,
	}
}

// Scanner enumerates candidate files. Per-entry failures are returned in the
// error slice and never stop the walk.
type Scanner interface {
	Scan(ctx context.Context, opts ScanOptions, reporter ProgressReporter) ([]entities.Candidate, []error)
}

// SizeSorter orders candidates ascending by size
type SizeSorter interface {
	Sort(candidates []entities.Candidate) []entities.Candidate
}
