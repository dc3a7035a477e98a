package entities

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ComparisonResult represents the result of comparing two directory trees:
// which target files are byte-identical to some source file
type ComparisonResult struct {
	ID         int    `json:"id"`
	SourceRoot string `json:"sourceRoot"`
	TargetRoot string `json:"targetRoot"`

	// Statistics
	SourceFileCount int `json:"sourceFileCount"`
	TargetFileCount int `json:"targetFileCount"`
	DuplicateCount  int `json:"duplicateCount"`

	// Size information
	SourceTotalSize int64 `json:"sourceTotalSize"`
	TargetTotalSize int64 `json:"targetTotalSize"`
	DuplicateSize   int64 `json:"duplicateSize"`

	// Target files that also exist in source
	DuplicateFiles []Candidate `json:"duplicateFiles"`

	// Deletion recommendation
	CanDeleteTarget       bool    `json:"canDeleteTarget"`
	DuplicationPercentage float64 `json:"duplicationPercentage"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewComparisonResult creates a new comparison result
func NewComparisonResult(sourceRoot, targetRoot string) *ComparisonResult {
	now := time.Now()
	return &ComparisonResult{
		SourceRoot:     sourceRoot,
		TargetRoot:     targetRoot,
		DuplicateFiles: make([]Candidate, 0),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AddDuplicateFile adds a duplicated target file to the result
func (cr *ComparisonResult) AddDuplicateFile(file Candidate) {
	cr.DuplicateFiles = append(cr.DuplicateFiles, file)
	cr.DuplicateCount = len(cr.DuplicateFiles)
	cr.DuplicateSize += file.Size
	cr.UpdatedAt = time.Now()
	cr.calculateRecommendation()
}

// SetSourceStats sets the source tree statistics
func (cr *ComparisonResult) SetSourceStats(fileCount int, totalSize int64) {
	cr.SourceFileCount = fileCount
	cr.SourceTotalSize = totalSize
	cr.UpdatedAt = time.Now()
	cr.calculateRecommendation()
}

// SetTargetStats sets the target tree statistics
func (cr *ComparisonResult) SetTargetStats(fileCount int, totalSize int64) {
	cr.TargetFileCount = fileCount
	cr.TargetTotalSize = totalSize
	cr.UpdatedAt = time.Now()
	cr.calculateRecommendation()
}

func (cr *ComparisonResult) calculateRecommendation() {
	if cr.TargetFileCount == 0 {
		cr.DuplicationPercentage = 0
		cr.CanDeleteTarget = false
		return
	}

	cr.DuplicationPercentage = float64(cr.DuplicateCount) / float64(cr.TargetFileCount) * 100

	// Only a fully duplicated target is safe to remove
	cr.CanDeleteTarget = cr.DuplicationPercentage >= 100.0
}

// GetUniqueFilesInTarget returns the number of unique files in the target tree
func (cr *ComparisonResult) GetUniqueFilesInTarget() int {
	return cr.TargetFileCount - cr.DuplicateCount
}

// GetUniqueFilesSize returns the size of unique files in the target tree
func (cr *ComparisonResult) GetUniqueFilesSize() int64 {
	return cr.TargetTotalSize - cr.DuplicateSize
}

// GetDuplicatePaths returns the paths of duplicated target files
func (cr *ComparisonResult) GetDuplicatePaths() []string {
	paths := make([]string, len(cr.DuplicateFiles))
	for i, f := range cr.DuplicateFiles {
		paths[i] = f.Path
	}
	return paths
}

// HasDuplicates returns true if there are any duplicate files
func (cr *ComparisonResult) HasDuplicates() bool {
	return cr.DuplicateCount > 0
}

// Summary returns a human-readable summary of the comparison
func (cr *ComparisonResult) Summary() string {
	if !cr.HasDuplicates() {
		return "중복 파일이 발견되지 않았습니다."
	}

	return fmt.Sprintf(
		"총 %d개 파일 중 %d개 중복 파일 발견 (%.1f%%), %s 절약 가능",
		cr.TargetFileCount,
		cr.DuplicateCount,
		cr.DuplicationPercentage,
		humanize.IBytes(uint64(cr.DuplicateSize)),
	)
}
