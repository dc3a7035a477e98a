package entities

import (
	"path/filepath"
	"strings"
	"time"
)

// Candidate is a regular file that passed the scan filters and is eligible for comparison
type Candidate struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// NewCandidate creates a candidate for the given path
func NewCandidate(path string, size int64, modTime time.Time) Candidate {
	return Candidate{
		Path:    path,
		Size:    size,
		ModTime: modTime,
	}
}

// Name returns the base name of the candidate
func (c Candidate) Name() string {
	return filepath.Base(c.Path)
}

// Extension returns the lowercased extension including the leading dot
func (c Candidate) Extension() string {
	return strings.ToLower(filepath.Ext(c.Path))
}

// SizeCategory returns the size category of the candidate
func (c Candidate) SizeCategory() string {
	return SizeCategoryOf(c.Size)
}

// SizeCategoryOf buckets a byte count into small/medium/large/very_large
func SizeCategoryOf(size int64) string {
	const (
		mb = 1024 * 1024
		gb = mb * 1024
	)

	switch {
	case size < mb:
		return "small"
	case size < 100*mb:
		return "medium"
	case size < gb:
		return "large"
	default:
		return "very_large"
	}
}

// NormalizeExtension lowercases an extension and ensures a leading dot.
// An empty input stays empty.
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(strings.ToLower(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// TotalCandidateSize sums the sizes of the given candidates
func TotalCandidateSize(candidates []Candidate) int64 {
	var total int64
	for _, c := range candidates {
		total += c.Size
	}
	return total
}
