package entities

import (
	"sort"
	"time"
)

// ScanStatistics summarizes the candidates of a scan
type ScanStatistics struct {
	Root       string `json:"root"`
	TotalFiles int    `json:"totalFiles"`
	TotalSize  int64  `json:"totalSize"`

	FilesByExtension map[string]int   `json:"filesByExtension"`
	SizesByExtension map[string]int64 `json:"sizesByExtension"`
	FilesBySize      map[string]int   `json:"filesBySize"`
	SizesBySize      map[string]int64 `json:"sizesBySize"`

	// Files sharing a size with at least one other file
	SizeCollisions int `json:"sizeCollisions"`

	ErrorCount  int       `json:"errorCount"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// ExtensionStats represents statistics for one extension
type ExtensionStats struct {
	Extension string `json:"extension"`
	Count     int    `json:"count"`
	TotalSize int64  `json:"totalSize"`
	AvgSize   int64  `json:"avgSize"`
}

// NewScanStatistics creates empty statistics for root
func NewScanStatistics(root string) *ScanStatistics {
	return &ScanStatistics{
		Root:             root,
		FilesByExtension: make(map[string]int),
		SizesByExtension: make(map[string]int64),
		FilesBySize:      make(map[string]int),
		SizesBySize:      make(map[string]int64),
		GeneratedAt:      time.Now(),
	}
}

// BuildScanStatistics computes statistics for a candidate list
func BuildScanStatistics(root string, candidates []Candidate, errCount int) *ScanStatistics {
	stats := NewScanStatistics(root)
	sizes := make(map[int64]int)
	for _, c := range candidates {
		stats.AddCandidate(c)
		sizes[c.Size]++
	}
	for _, n := range sizes {
		if n > 1 {
			stats.SizeCollisions += n
		}
	}
	stats.ErrorCount = errCount
	return stats
}

// AddCandidate updates the statistics with one candidate
func (s *ScanStatistics) AddCandidate(c Candidate) {
	s.TotalFiles++
	s.TotalSize += c.Size

	ext := c.Extension()
	if ext == "" {
		ext = "(none)"
	}
	s.FilesByExtension[ext]++
	s.SizesByExtension[ext] += c.Size

	category := c.SizeCategory()
	s.FilesBySize[category]++
	s.SizesBySize[category] += c.Size
}

// GetAverageFileSize returns the average file size
func (s *ScanStatistics) GetAverageFileSize() int64 {
	if s.TotalFiles == 0 {
		return 0
	}
	return s.TotalSize / int64(s.TotalFiles)
}

// TopExtensions returns extensions ordered by file count, largest first
func (s *ScanStatistics) TopExtensions(limit int) []*ExtensionStats {
	out := make([]*ExtensionStats, 0, len(s.FilesByExtension))
	for ext, count := range s.FilesByExtension {
		size := s.SizesByExtension[ext]
		out = append(out, &ExtensionStats{
			Extension: ext,
			Count:     count,
			TotalSize: size,
			AvgSize:   size / int64(count),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Extension < out[j].Extension
	})
	if limit > 0 && limit < len(out) {
		return out[:limit]
	}
	return out
}
