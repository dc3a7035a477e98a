package services

import (
	"context"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/services"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LocalScanner enumerates regular files on the local filesystem
type LocalScanner struct {
	verbose bool
}

// NewLocalScanner creates a scanner; verbose logs every recorded entry error
func NewLocalScanner(verbose bool) services.Scanner {
	return &LocalScanner{verbose: verbose}
}

func (s *LocalScanner) Scan(ctx context.Context, opts services.ScanOptions, reporter services.ProgressReporter) ([]entities.Candidate, []error) {
	if err := entities.ValidateRoot(opts.Root); err != nil {
		return nil, []error{err}
	}

	f := newScanFilter(opts)
	candidates := make([]entities.Candidate, 0)
	errs := make([]error, 0)

	stop := func() bool {
		return ctx.Err() != nil || (reporter != nil && reporter.IsCancelRequested())
	}
	record := func(path string, err error) {
		if s.verbose {
			log.Printf("⚠️ 항목 건너뜀: %s (%v)", path, err)
		}
		errs = append(errs, &entities.EnumerationError{Path: path, Err: err})
	}
	accept := func(path string, info fs.FileInfo) {
		if !f.accept(path, info.Size()) {
			return
		}
		candidates = append(candidates, entities.NewCandidate(path, info.Size(), info.ModTime()))
		if reporter != nil {
			reporter.AdvanceMaxProgress(1)
			reporter.AdvanceProgress(1)
		}
	}

	if !opts.Recursive {
		entries, err := os.ReadDir(opts.Root)
		if err != nil {
			// ReadDir still returns the entries it managed to read
			record(opts.Root, err)
		}
		for _, entry := range entries {
			if stop() {
				break
			}
			if !entry.Type().IsRegular() {
				continue
			}
			path := filepath.Join(opts.Root, entry.Name())
			info, err := entry.Info()
			if err != nil {
				record(path, err)
				continue
			}
			accept(path, info)
		}
		return candidates, errs
	}

	walkErr := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if stop() {
			return filepath.SkipAll
		}
		if err != nil {
			record(path, err)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			record(path, err)
			return nil
		}
		accept(path, info)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, &entities.EnumerationError{Path: opts.Root, Err: fmt.Errorf("walk aborted: %w", walkErr)})
	}

	return candidates, errs
}

// scanFilter applies include, exclude and size filters in that order
type scanFilter struct {
	include map[string]bool
	exclude map[string]bool
	min     int64
	max     int64
}

func newScanFilter(opts services.ScanOptions) *scanFilter {
	f := &scanFilter{min: opts.MinSize, max: opts.MaxSize}
	if f.max <= 0 {
		f.max = 1<<63 - 1
	}
	f.include = extensionSet(opts.IncludeExt)
	f.exclude = extensionSet(opts.ExcludeExt)
	return f
}

// extensionSet returns nil when no usable extension is configured
func extensionSet(exts []string) map[string]bool {
	normalized := entities.NormalizeExtensions(exts)
	if len(normalized) == 0 {
		return nil
	}
	set := make(map[string]bool, len(normalized))
	for _, ext := range normalized {
		set[ext] = true
	}
	return set
}

func (f *scanFilter) accept(path string, size int64) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if f.include != nil && !f.include[ext] {
		return false
	}
	if f.exclude != nil && f.exclude[ext] {
		return false
	}
	return size >= f.min && size <= f.max
}
