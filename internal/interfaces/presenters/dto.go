package presenters

import (
	"time"
)

// Common DTOs for API requests and responses

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ProgressDTO represents progress information
type ProgressDTO struct {
	ID            int                    `json:"id"`
	OperationID   string                 `json:"operationId,omitempty"`
	OperationType string                 `json:"operationType"`
	Current       int64                  `json:"current"`
	Max           int64                  `json:"max"`
	Complete      bool                   `json:"complete"`
	Status        string                 `json:"status"`
	CurrentStep   string                 `json:"currentStep"`
	Message       string                 `json:"message,omitempty"`
	ErrorMessage  string                 `json:"errorMessage,omitempty"`
	Percentage    float64                `json:"percentage"`
	StartTime     time.Time              `json:"startTime"`
	EndTime       *time.Time             `json:"endTime,omitempty"`
	LastUpdated   time.Time              `json:"lastUpdated"`
	ETA           *time.Time             `json:"eta,omitempty"`
	Duration      string                 `json:"duration"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// CandidateDTO represents a file on disk
type CandidateDTO struct {
	Path          string    `json:"path"`
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"sizeFormatted"`
	ModTime       time.Time `json:"modTime"`
	Extension     string    `json:"extension"`
	SizeCategory  string    `json:"sizeCategory"`
}

// MatchGroupDTO represents a group of byte-identical files
type MatchGroupDTO struct {
	ID                      int       `json:"id"`
	OperationID             string    `json:"operationId"`
	FileSize                int64     `json:"fileSize"`
	FileSizeFormatted       string    `json:"fileSizeFormatted"`
	Members                 []string  `json:"members"`
	Count                   int       `json:"count"`
	DuplicatesSize          int64     `json:"duplicatesSize"`
	DuplicatesSizeFormatted string    `json:"duplicatesSizeFormatted"`
	CreatedAt               time.Time `json:"createdAt"`
}

// MatchGroupsPageDTO represents one page of groups
type MatchGroupsPageDTO struct {
	Groups                  []*MatchGroupDTO `json:"groups"`
	TotalGroups             int              `json:"totalGroups"`
	TotalPages              int              `json:"totalPages"`
	CurrentPage             int              `json:"currentPage"`
	PageSize                int              `json:"pageSize"`
	HasNext                 bool             `json:"hasNext"`
	HasPrev                 bool             `json:"hasPrev"`
	DuplicatesSize          int64            `json:"duplicatesSize"`
	DuplicatesSizeFormatted string           `json:"duplicatesSizeFormatted"`
}

// ComparisonResultDTO represents folder comparison result
type ComparisonResultDTO struct {
	ID                       int             `json:"id"`
	SourceRoot               string          `json:"sourceRoot"`
	TargetRoot               string          `json:"targetRoot"`
	SourceFileCount          int             `json:"sourceFileCount"`
	TargetFileCount          int             `json:"targetFileCount"`
	DuplicateCount           int             `json:"duplicateCount"`
	SourceTotalSize          int64           `json:"sourceTotalSize"`
	SourceTotalSizeFormatted string          `json:"sourceTotalSizeFormatted"`
	TargetTotalSize          int64           `json:"targetTotalSize"`
	TargetTotalSizeFormatted string          `json:"targetTotalSizeFormatted"`
	DuplicateSize            int64           `json:"duplicateSize"`
	DuplicateSizeFormatted   string          `json:"duplicateSizeFormatted"`
	DuplicateFiles           []*CandidateDTO `json:"duplicateFiles"`
	CanDeleteTarget          bool            `json:"canDeleteTarget"`
	DuplicationPercentage    float64         `json:"duplicationPercentage"`
	UniqueFilesInTarget      int             `json:"uniqueFilesInTarget"`
	UniqueFilesSize          int64           `json:"uniqueFilesSize"`
	UniqueFilesSizeFormatted string          `json:"uniqueFilesSizeFormatted"`
	Summary                  string          `json:"summary"`
	CreatedAt                time.Time       `json:"createdAt"`
	UpdatedAt                time.Time       `json:"updatedAt"`
}

// ScanStatisticsDTO represents the statistics of a scan
type ScanStatisticsDTO struct {
	Root                     string               `json:"root"`
	TotalFiles               int                  `json:"totalFiles"`
	TotalSize                int64                `json:"totalSize"`
	TotalSizeFormatted       string               `json:"totalSizeFormatted"`
	AverageFileSize          int64                `json:"averageFileSize"`
	AverageFileSizeFormatted string               `json:"averageFileSizeFormatted"`
	FilesByExtension         map[string]int       `json:"filesByExtension"`
	FilesBySize              map[string]int       `json:"filesBySize"`
	SizesBySize              map[string]int64     `json:"sizesBySize"`
	SizeCollisions           int                  `json:"sizeCollisions"`
	TopExtensions            []*ExtensionStatsDTO `json:"topExtensions"`
	ErrorCount               int                  `json:"errorCount"`
	GeneratedAt              time.Time            `json:"generatedAt"`
}

// ExtensionStatsDTO represents statistics for a file extension
type ExtensionStatsDTO struct {
	Extension          string `json:"extension"`
	Count              int    `json:"count"`
	TotalSize          int64  `json:"totalSize"`
	TotalSizeFormatted string `json:"totalSizeFormatted"`
	AvgSize            int64  `json:"avgSize"`
	AvgSizeFormatted   string `json:"avgSizeFormatted"`
}

// OperationErrorDTO represents a recorded non-fatal error
type OperationErrorDTO struct {
	Kind      string    `json:"kind"`
	Path      string    `json:"path,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Response DTOs

// ScanResponseDTO represents a file scanning response
type ScanResponseDTO struct {
	Progress   *ProgressDTO       `json:"progress,omitempty"`
	Statistics *ScanStatisticsDTO `json:"statistics"`
	Duration   string             `json:"duration"`
	Errors     []string           `json:"errors,omitempty"`
}

// FindResponseDTO represents a started duplicate search
type FindResponseDTO struct {
	OperationID string       `json:"operationId"`
	Progress    *ProgressDTO `json:"progress"`
	Root        string       `json:"root"`
	Ordering    string       `json:"ordering"`
}

// OperationErrorsResponseDTO lists the recorded errors of an operation
type OperationErrorsResponseDTO struct {
	OperationID string               `json:"operationId"`
	Errors      []*OperationErrorDTO `json:"errors"`
	CountByKind map[string]int       `json:"countByKind"`
}

// ComparisonResponseDTO represents a folder comparison response
type ComparisonResponseDTO struct {
	Progress         *ProgressDTO         `json:"progress,omitempty"`
	ComparisonResult *ComparisonResultDTO `json:"comparisonResult,omitempty"`
	Errors           []string             `json:"errors,omitempty"`
}

// DeletionPreviewDTO lists survivors and removals per group
type DeletionPreviewDTO struct {
	Groups                  []*DeletionPlanDTO `json:"groups"`
	TotalFiles              int                `json:"totalFiles"`
	DuplicatesSize          int64              `json:"duplicatesSize"`
	DuplicatesSizeFormatted string             `json:"duplicatesSizeFormatted"`
}

// DeletionPlanDTO is the plan for one group
type DeletionPlanDTO struct {
	GroupID  int      `json:"groupId"`
	Survivor string   `json:"survivor"`
	Removals []string `json:"removals"`
}

// FolderCleanupResponseDTO represents a started empty-folder cleanup
type FolderCleanupResponseDTO struct {
	Progress  *ProgressDTO `json:"progress"`
	Root      string       `json:"root"`
	Recursive bool         `json:"recursive"`
}

// DeleteResponseDTO represents a started deletion
type DeleteResponseDTO struct {
	Progress                *ProgressDTO `json:"progress"`
	TotalGroups             int          `json:"totalGroups"`
	TotalFiles              int          `json:"totalFiles"`
	DuplicatesSize          int64        `json:"duplicatesSize"`
	DuplicatesSizeFormatted string       `json:"duplicatesSizeFormatted"`
}
