package usecases

import (
	"context"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/services"
	"log"
	"time"

	"github.com/dustin/go-humanize"
)

// FileScanningUseCase handles filtered scans that only report statistics
type FileScanningUseCase struct {
	scanner         services.Scanner
	progressService services.ProgressService

	// Configuration
	defaults      entities.MatchSettings
	topExtensions int
	maxErrors     int
}

// NewFileScanningUseCase creates a new file scanning use case
func NewFileScanningUseCase(
	scanner services.Scanner,
	progressService services.ProgressService,
) *FileScanningUseCase {
	return &FileScanningUseCase{
		scanner:         scanner,
		progressService: progressService,
		defaults:        entities.DefaultMatchSettings(""),
		topExtensions:   10,
		maxErrors:       100,
	}
}

// ScanFilesRequest represents the request for scanning a root
type ScanFilesRequest struct {
	Root       string   `json:"root"`
	Recursive  *bool    `json:"recursive,omitempty"`
	MinSize    int64    `json:"minSize,omitempty"`
	MaxSize    int64    `json:"maxSize,omitempty"`
	IncludeExt []string `json:"includeExt,omitempty"`
	ExcludeExt []string `json:"excludeExt,omitempty"`

	ProgressCallback func(entities.ProgressSnapshot) `json:"-"`
}

// ScanFilesResponse represents the response for scanning a root
type ScanFilesResponse struct {
	Progress      *entities.Progress         `json:"progress,omitempty"`
	Statistics    *entities.ScanStatistics   `json:"statistics"`
	TopExtensions []*entities.ExtensionStats `json:"topExtensions"`
	Errors        []string                   `json:"errors,omitempty"`
	Duration      string                     `json:"duration"`
}

// settingsFor merges the request over the configured defaults
func (uc *FileScanningUseCase) settingsFor(req *ScanFilesRequest) entities.MatchSettings {
	s := uc.defaults
	s.Root = req.Root
	if req.Recursive != nil {
		s.Recursive = *req.Recursive
	}
	if req.MinSize > 0 || req.MaxSize > 0 {
		max := req.MaxSize
		if max == 0 {
			max = -1
		}
		s.SetSizeRange(req.MinSize, max)
	}
	if len(req.IncludeExt) > 0 {
		s.IncludeExt = req.IncludeExt
	}
	if len(req.ExcludeExt) > 0 {
		s.ExcludeExt = req.ExcludeExt
	}
	return s.Normalize()
}

// ScanFiles enumerates the candidates below a root and summarizes them.
// It runs on the caller's goroutine; ctx cancellation stops the walk.
func (uc *FileScanningUseCase) ScanFiles(ctx context.Context, req *ScanFilesRequest) (*ScanFilesResponse, error) {
	log.Printf("🔍 파일 스캔 시작: %s", req.Root)

	if err := entities.ValidateRoot(req.Root); err != nil {
		return nil, err
	}
	settings := uc.settingsFor(req)
	started := time.Now()

	var progress *entities.Progress
	if uc.progressService != nil {
		p, err := uc.progressService.StartOperation(ctx, entities.OperationFileScan, "")
		if err != nil {
			log.Printf("⚠️ 진행 상황 생성 실패: %v", err)
		} else {
			progress = p
		}
	}

	tracker := NewProgressTracker(entities.OperationFileScan)
	if req.ProgressCallback != nil {
		tracker.OnProgress(req.ProgressCallback)
	}
	stop := context.AfterFunc(ctx, tracker.RequestCancel)
	defer stop()

	candidates, errs := uc.scanner.Scan(ctx, services.ScanOptionsFrom(settings), tracker)
	tracker.finish(func(p *entities.Progress) { p.MarkComplete() })

	stats := entities.BuildScanStatistics(settings.Root, candidates, len(errs))
	response := &ScanFilesResponse{
		Statistics:    stats,
		TopExtensions: stats.TopExtensions(uc.topExtensions),
		Errors:        entities.ErrorStrings(uc.capErrors(errs)),
		Duration:      time.Since(started).Round(time.Millisecond).String(),
	}

	if progress != nil {
		uc.recordProgress(ctx, progress, stats, ctx.Err() != nil)
		response.Progress = progress
	}

	log.Printf("✅ 파일 스캔 완료: %d개 파일, %s, 오류 %d개",
		stats.TotalFiles, humanize.IBytes(uint64(stats.TotalSize)), len(errs))
	return response, nil
}

func (uc *FileScanningUseCase) capErrors(errs []error) []error {
	if uc.maxErrors > 0 && len(errs) > uc.maxErrors {
		return errs[:uc.maxErrors]
	}
	return errs
}

func (uc *FileScanningUseCase) recordProgress(ctx context.Context, progress *entities.Progress, stats *entities.ScanStatistics, cancelled bool) {
	progress.Start()
	progress.SetMax(int64(stats.TotalFiles))
	progress.SetMetadata("root", stats.Root)
	progress.SetMetadata("totalFiles", stats.TotalFiles)
	progress.SetMetadata("totalSize", stats.TotalSize)
	progress.SetMetadata("errors", stats.ErrorCount)
	if cancelled {
		progress.UpdateStep("cancelled", "스캔이 취소되었습니다")
		progress.MarkComplete()
		progress.Cancel()
	} else {
		progress.UpdateStep("completed", fmt.Sprintf("%d개 파일 스캔 완료", stats.TotalFiles))
		progress.Finish()
	}

	// The request context may already be gone; the record still has to land
	if err := uc.progressService.UpdateOperation(context.WithoutCancel(ctx), progress); err != nil {
		log.Printf("⚠️ 진행 상황 저장 실패: %v", err)
	}
}

// SetConfiguration sets the use case configuration
func (uc *FileScanningUseCase) SetConfiguration(defaults entities.MatchSettings, topExtensions, maxErrors int) {
	uc.defaults = defaults
	if topExtensions > 0 {
		uc.topExtensions = topExtensions
	}
	if maxErrors > 0 {
		uc.maxErrors = maxErrors
	}
}
