package services

import (
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/services"
	"sort"
)

// SizeSorter orders candidates ascending by size. Equal sizes keep no
// particular order.
type SizeSorter struct{}

// NewSizeSorter creates the sorter
func NewSizeSorter() services.SizeSorter {
	return SizeSorter{}
}

func (SizeSorter) Sort(candidates []entities.Candidate) []entities.Candidate {
	sorted := make([]entities.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Size < sorted[j].Size
	})
	return sorted
}

// SizeBuckets splits a size-sorted list into runs of equal size
func SizeBuckets(sorted []entities.Candidate) [][]entities.Candidate {
	var buckets [][]entities.Candidate
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i].Size != sorted[start].Size {
			buckets = append(buckets, sorted[start:i])
			start = i
		}
	}
	return buckets
}
