package presenters

import (
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/usecases"
	"time"

	"github.com/dustin/go-humanize"
)

// Entity to DTO mappers

// ToProgressDTO converts a Progress entity to ProgressDTO
func ToProgressDTO(progress *entities.Progress) *ProgressDTO {
	if progress == nil {
		return nil
	}

	dto := &ProgressDTO{
		ID:            progress.ID,
		OperationID:   progress.OperationID,
		OperationType: progress.OperationType,
		Current:       progress.Current,
		Max:           progress.Max,
		Complete:      progress.Complete,
		Status:        progress.Status,
		CurrentStep:   progress.CurrentStep,
		Message:       progress.Message,
		ErrorMessage:  progress.ErrorMessage,
		Percentage:    progress.GetPercentage(),
		StartTime:     progress.StartTime,
		EndTime:       progress.EndTime,
		LastUpdated:   progress.LastUpdated,
		Duration:      formatDuration(progress.GetDuration()),
		Metadata:      progress.Metadata,
	}

	if eta := progress.GetETA(); eta != nil {
		dto.ETA = eta
	}

	return dto
}

// ToProgressDTOList converts a slice of Progress entities
func ToProgressDTOList(list []*entities.Progress) []*ProgressDTO {
	dtos := make([]*ProgressDTO, len(list))
	for i, p := range list {
		dtos[i] = ToProgressDTO(p)
	}
	return dtos
}

// ToCandidateDTO converts a Candidate to CandidateDTO
func ToCandidateDTO(c entities.Candidate) *CandidateDTO {
	return &CandidateDTO{
		Path:          c.Path,
		Name:          c.Name(),
		Size:          c.Size,
		SizeFormatted: FormatSize(c.Size),
		ModTime:       c.ModTime,
		Extension:     c.Extension(),
		SizeCategory:  c.SizeCategory(),
	}
}

// ToMatchGroupDTO converts a MatchGroup entity to MatchGroupDTO
func ToMatchGroupDTO(group *entities.MatchGroup) *MatchGroupDTO {
	if group == nil {
		return nil
	}

	members := make([]string, len(group.Members))
	copy(members, group.Members)

	return &MatchGroupDTO{
		ID:                      group.ID,
		OperationID:             group.OperationID,
		FileSize:                group.FileSize,
		FileSizeFormatted:       FormatSize(group.FileSize),
		Members:                 members,
		Count:                   group.Count(),
		DuplicatesSize:          group.DuplicatesSize(),
		DuplicatesSizeFormatted: FormatSize(group.DuplicatesSize()),
		CreatedAt:               group.CreatedAt,
	}
}

// ToMatchGroupDTOList converts a slice of MatchGroup entities
func ToMatchGroupDTOList(groups []*entities.MatchGroup) []*MatchGroupDTO {
	dtos := make([]*MatchGroupDTO, len(groups))
	for i, group := range groups {
		dtos[i] = ToMatchGroupDTO(group)
	}
	return dtos
}

// ToComparisonResultDTO converts a ComparisonResult entity to ComparisonResultDTO
func ToComparisonResultDTO(result *entities.ComparisonResult) *ComparisonResultDTO {
	if result == nil {
		return nil
	}

	files := make([]*CandidateDTO, len(result.DuplicateFiles))
	for i, f := range result.DuplicateFiles {
		files[i] = ToCandidateDTO(f)
	}

	return &ComparisonResultDTO{
		ID:                       result.ID,
		SourceRoot:               result.SourceRoot,
		TargetRoot:               result.TargetRoot,
		SourceFileCount:          result.SourceFileCount,
		TargetFileCount:          result.TargetFileCount,
		DuplicateCount:           result.DuplicateCount,
		SourceTotalSize:          result.SourceTotalSize,
		SourceTotalSizeFormatted: FormatSize(result.SourceTotalSize),
		TargetTotalSize:          result.TargetTotalSize,
		TargetTotalSizeFormatted: FormatSize(result.TargetTotalSize),
		DuplicateSize:            result.DuplicateSize,
		DuplicateSizeFormatted:   FormatSize(result.DuplicateSize),
		DuplicateFiles:           files,
		CanDeleteTarget:          result.CanDeleteTarget,
		DuplicationPercentage:    result.DuplicationPercentage,
		UniqueFilesInTarget:      result.GetUniqueFilesInTarget(),
		UniqueFilesSize:          result.GetUniqueFilesSize(),
		UniqueFilesSizeFormatted: FormatSize(result.GetUniqueFilesSize()),
		Summary:                  result.Summary(),
		CreatedAt:                result.CreatedAt,
		UpdatedAt:                result.UpdatedAt,
	}
}

// ToComparisonResultDTOList converts a slice of ComparisonResult entities
func ToComparisonResultDTOList(results []*entities.ComparisonResult) []*ComparisonResultDTO {
	dtos := make([]*ComparisonResultDTO, len(results))
	for i, r := range results {
		dtos[i] = ToComparisonResultDTO(r)
	}
	return dtos
}

// ToScanStatisticsDTO converts a ScanStatistics entity to ScanStatisticsDTO
func ToScanStatisticsDTO(stats *entities.ScanStatistics, top []*entities.ExtensionStats) *ScanStatisticsDTO {
	if stats == nil {
		return nil
	}

	return &ScanStatisticsDTO{
		Root:                     stats.Root,
		TotalFiles:               stats.TotalFiles,
		TotalSize:                stats.TotalSize,
		TotalSizeFormatted:       FormatSize(stats.TotalSize),
		AverageFileSize:          stats.GetAverageFileSize(),
		AverageFileSizeFormatted: FormatSize(stats.GetAverageFileSize()),
		FilesByExtension:         stats.FilesByExtension,
		FilesBySize:              stats.FilesBySize,
		SizesBySize:              stats.SizesBySize,
		SizeCollisions:           stats.SizeCollisions,
		TopExtensions:            ToExtensionStatsDTOList(top),
		ErrorCount:               stats.ErrorCount,
		GeneratedAt:              stats.GeneratedAt,
	}
}

// ToExtensionStatsDTO converts an ExtensionStats entity to ExtensionStatsDTO
func ToExtensionStatsDTO(stats *entities.ExtensionStats) *ExtensionStatsDTO {
	if stats == nil {
		return nil
	}

	return &ExtensionStatsDTO{
		Extension:          stats.Extension,
		Count:              stats.Count,
		TotalSize:          stats.TotalSize,
		TotalSizeFormatted: FormatSize(stats.TotalSize),
		AvgSize:            stats.AvgSize,
		AvgSizeFormatted:   FormatSize(stats.AvgSize),
	}
}

// ToExtensionStatsDTOList converts a slice of ExtensionStats entities
func ToExtensionStatsDTOList(statsList []*entities.ExtensionStats) []*ExtensionStatsDTO {
	dtos := make([]*ExtensionStatsDTO, len(statsList))
	for i, stats := range statsList {
		dtos[i] = ToExtensionStatsDTO(stats)
	}
	return dtos
}

// ToOperationErrorDTOList converts recorded errors
func ToOperationErrorDTOList(errs []*entities.OperationError) []*OperationErrorDTO {
	dtos := make([]*OperationErrorDTO, len(errs))
	for i, e := range errs {
		dtos[i] = &OperationErrorDTO{
			Kind:      e.Kind,
			Path:      e.Path,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		}
	}
	return dtos
}

// UseCase response to DTO mappers

// ToScanResponseDTO converts a ScanFilesResponse to ScanResponseDTO
func ToScanResponseDTO(response *usecases.ScanFilesResponse) *ScanResponseDTO {
	if response == nil {
		return nil
	}

	return &ScanResponseDTO{
		Progress:   ToProgressDTO(response.Progress),
		Statistics: ToScanStatisticsDTO(response.Statistics, response.TopExtensions),
		Duration:   response.Duration,
		Errors:     response.Errors,
	}
}

// ToFindResponseDTO converts a FindDuplicatesResponse to FindResponseDTO
func ToFindResponseDTO(response *usecases.FindDuplicatesResponse) *FindResponseDTO {
	if response == nil {
		return nil
	}

	return &FindResponseDTO{
		OperationID: response.OperationID,
		Progress:    ToProgressDTO(response.Progress),
		Root:        response.Settings.Root,
		Ordering:    response.Settings.Ordering.String(),
	}
}

// ToMatchGroupsPageDTO converts a GetMatchGroupsResponse to MatchGroupsPageDTO
func ToMatchGroupsPageDTO(response *usecases.GetMatchGroupsResponse) *MatchGroupsPageDTO {
	if response == nil {
		return nil
	}

	return &MatchGroupsPageDTO{
		Groups:                  ToMatchGroupDTOList(response.Groups),
		TotalGroups:             response.TotalGroups,
		TotalPages:              response.TotalPages,
		CurrentPage:             response.CurrentPage,
		PageSize:                response.PageSize,
		HasNext:                 response.HasNext,
		HasPrev:                 response.HasPrev,
		DuplicatesSize:          response.DuplicatesSize,
		DuplicatesSizeFormatted: FormatSize(response.DuplicatesSize),
	}
}

// ToComparisonResponseDTO converts a CompareFoldersResponse to ComparisonResponseDTO
func ToComparisonResponseDTO(response *usecases.CompareFoldersResponse) *ComparisonResponseDTO {
	if response == nil {
		return nil
	}

	return &ComparisonResponseDTO{
		Progress:         ToProgressDTO(response.Progress),
		ComparisonResult: ToComparisonResultDTO(response.ComparisonResult),
		Errors:           response.Errors,
	}
}

// ToDeletionPreviewDTO converts a PreviewDeletionResponse to DeletionPreviewDTO
func ToDeletionPreviewDTO(response *usecases.PreviewDeletionResponse) *DeletionPreviewDTO {
	if response == nil {
		return nil
	}

	groups := make([]*DeletionPlanDTO, len(response.Plan))
	for i, entry := range response.Plan {
		groups[i] = &DeletionPlanDTO{
			GroupID:  entry.GroupID,
			Survivor: entry.Survivor,
			Removals: entry.Removals,
		}
	}

	return &DeletionPreviewDTO{
		Groups:                  groups,
		TotalFiles:              response.TotalFiles,
		DuplicatesSize:          response.DuplicatesSize,
		DuplicatesSizeFormatted: FormatSize(response.DuplicatesSize),
	}
}

// ToDeleteResponseDTO converts a DeleteDuplicatesResponse to DeleteResponseDTO
func ToDeleteResponseDTO(response *usecases.DeleteDuplicatesResponse) *DeleteResponseDTO {
	if response == nil {
		return nil
	}

	return &DeleteResponseDTO{
		Progress:                ToProgressDTO(response.Progress),
		TotalGroups:             response.TotalGroups,
		TotalFiles:              response.TotalFiles,
		DuplicatesSize:          response.DuplicatesSize,
		DuplicatesSizeFormatted: FormatSize(response.DuplicatesSize),
	}
}

// Utility functions

// FormatSize formats a byte count in IEC units
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// formatDuration formats duration in human readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}

// CreateErrorResponse creates a standard error response
func CreateErrorResponse(err error, code string) *ErrorResponse {
	response := &ErrorResponse{
		Error: err.Error(),
		Code:  code,
	}
	return response
}

// CreateSuccessResponse creates a standard success response
func CreateSuccessResponse(message string, data interface{}) *SuccessResponse {
	return &SuccessResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// ToFolderCleanupResponseDTO converts a CleanupEmptyFoldersResponse
func ToFolderCleanupResponseDTO(response *usecases.CleanupEmptyFoldersResponse) *FolderCleanupResponseDTO {
	if response == nil {
		return nil
	}
	return &FolderCleanupResponseDTO{
		Progress:  ToProgressDTO(response.Progress),
		Root:      response.Root,
		Recursive: response.Recursive,
	}
}
