package usecases

import (
	"context"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/repositories"
	"go-local-duplicates/internal/domain/services"
	"log"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// FolderComparisonUseCase finds target files that also exist in a source tree
type FolderComparisonUseCase struct {
	comparisonRepo  repositories.ComparisonRepository
	progressService services.ProgressService
	scanner         services.Scanner
	comparator      services.ContentComparator

	// Configuration
	chunkSize int64
	recursive bool
	minSize   int64
}

// NewFolderComparisonUseCase creates a new folder comparison use case
func NewFolderComparisonUseCase(
	comparisonRepo repositories.ComparisonRepository,
	progressService services.ProgressService,
	scanner services.Scanner,
	comparator services.ContentComparator,
) *FolderComparisonUseCase {
	return &FolderComparisonUseCase{
		comparisonRepo:  comparisonRepo,
		progressService: progressService,
		scanner:         scanner,
		comparator:      comparator,
		chunkSize:       entities.DefaultChunkSize,
		recursive:       true,
	}
}

// CompareFoldersRequest represents the request for comparing folders
type CompareFoldersRequest struct {
	SourceRoot         string                   `json:"sourceRoot"`
	TargetRoot         string                   `json:"targetRoot"`
	Recursive          *bool                    `json:"recursive,omitempty"`
	ChunkSize          int64                    `json:"chunkSize,omitempty"`
	MinSize            int64                    `json:"minSize,omitempty"`
	ForceNewComparison bool                     `json:"forceNewComparison"`
	ProgressCallback   func(*entities.Progress) `json:"-"`
}

// CompareFoldersResponse represents the response for comparing folders
type CompareFoldersResponse struct {
	Progress         *entities.Progress         `json:"progress,omitempty"`
	ComparisonResult *entities.ComparisonResult `json:"comparisonResult,omitempty"`
	Errors           []string                   `json:"errors,omitempty"`
}

// StartComparison validates both roots and compares them in the background.
// A stored result for the same roots is returned instead unless forced.
func (uc *FolderComparisonUseCase) StartComparison(ctx context.Context, req *CompareFoldersRequest) (*CompareFoldersResponse, error) {
	log.Printf("📂 폴더 비교 요청: %s vs %s", req.SourceRoot, req.TargetRoot)

	if err := uc.validateRoots(req); err != nil {
		return nil, err
	}

	if !req.ForceNewComparison && uc.comparisonRepo != nil {
		existing, err := uc.comparisonRepo.GetByRoots(ctx, req.SourceRoot, req.TargetRoot)
		if err == nil && existing != nil {
			log.Printf("📋 기존 비교 결과 발견: ID %d", existing.ID)
			return &CompareFoldersResponse{ComparisonResult: existing}, nil
		}
	}

	progress, err := uc.progressService.StartOperation(ctx, entities.OperationFolderComparison, "")
	if err != nil {
		return nil, fmt.Errorf("진행 상황 생성 실패: %w", err)
	}
	progress.SetMetadata("sourceRoot", req.SourceRoot)
	progress.SetMetadata("targetRoot", req.TargetRoot)

	response := &CompareFoldersResponse{Progress: cloneProgress(progress)}

	// Comparison continues after the HTTP request returns
	go uc.performFolderComparison(context.Background(), req, progress)

	return response, nil
}

func (uc *FolderComparisonUseCase) performFolderComparison(ctx context.Context, req *CompareFoldersRequest, progress *entities.Progress) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("💥 폴더 비교 중 패닉 발생: %v", r)
			uc.progressService.FailOperation(ctx, progress.ID, fmt.Sprintf("패닉 발생: %v", r))
		}
	}()

	progress.Start()
	progress.UpdateStep("comparing", "폴더 비교 중...")
	uc.progressService.UpdateOperation(ctx, progress)

	result, errs, err := uc.Compare(ctx, req, func(snap entities.ProgressSnapshot) {
		progress.SetMax(snap.Max)
		progress.Advance(snap.Current - progress.Current)
		if req.ProgressCallback != nil {
			req.ProgressCallback(progress)
		}
	})
	if err != nil {
		log.Printf("❌ 폴더 비교 실패: %v", err)
		uc.progressService.FailOperation(ctx, progress.ID, err.Error())
		return
	}

	progress.SetMetadata("comparisonId", result.ID)
	progress.SetMetadata("duplicateCount", result.DuplicateCount)
	progress.SetMetadata("errors", len(errs))
	progress.UpdateStep("completed", result.Summary())
	progress.Finish()
	if err := uc.progressService.UpdateOperation(ctx, progress); err != nil {
		log.Printf("⚠️ 진행 상황 저장 실패: %v", err)
	}
	if req.ProgressCallback != nil {
		req.ProgressCallback(progress)
	}
}

// Compare scans both roots and checks every target file against the source
// files of the same size. It runs on the caller's goroutine and saves the
// result when a repository is configured.
func (uc *FolderComparisonUseCase) Compare(ctx context.Context, req *CompareFoldersRequest, onProgress func(entities.ProgressSnapshot)) (*entities.ComparisonResult, []error, error) {
	if err := uc.validateRoots(req); err != nil {
		return nil, nil, err
	}

	recursive := uc.recursive
	if req.Recursive != nil {
		recursive = *req.Recursive
	}
	chunk := uc.chunkSize
	if req.ChunkSize > 0 {
		chunk = req.ChunkSize
	}
	minSize := uc.minSize
	if req.MinSize > 0 {
		minSize = req.MinSize
	}

	tracker := NewProgressTracker(entities.OperationFolderComparison)
	if onProgress != nil {
		tracker.OnProgress(onProgress)
	}
	stop := context.AfterFunc(ctx, tracker.RequestCancel)
	defer stop()

	opts := services.ScanOptions{Recursive: recursive, MinSize: minSize}

	opts.Root = req.SourceRoot
	sourceFiles, errs := uc.scanner.Scan(ctx, opts, tracker)
	opts.Root = req.TargetRoot
	targetFiles, targetErrs := uc.scanner.Scan(ctx, opts, tracker)
	errs = append(errs, targetErrs...)

	log.Printf("📊 기준 폴더: %d개 파일, 대상 폴더: %d개 파일", len(sourceFiles), len(targetFiles))

	result := entities.NewComparisonResult(req.SourceRoot, req.TargetRoot)
	result.SetSourceStats(len(sourceFiles), entities.TotalCandidateSize(sourceFiles))
	result.SetTargetStats(len(targetFiles), entities.TotalCandidateSize(targetFiles))

	bySize := make(map[int64][]entities.Candidate)
	for _, c := range sourceFiles {
		bySize[c.Size] = append(bySize[c.Size], c)
	}

	for _, target := range targetFiles {
		if tracker.IsCancelRequested() {
			break
		}
		tracker.SetMessage(target.Path)
		found, cmpErrs := uc.findInSource(target, bySize[target.Size], chunk, tracker)
		errs = append(errs, cmpErrs...)
		if found {
			result.AddDuplicateFile(target)
		}
	}

	cancelled := tracker.IsCancelRequested()
	tracker.finish(func(p *entities.Progress) { p.MarkComplete() })
	if cancelled {
		log.Printf("⏹️ 폴더 비교 취소됨")
		return result, errs, context.Canceled
	}

	if uc.comparisonRepo != nil {
		if err := uc.comparisonRepo.Save(context.WithoutCancel(ctx), result); err != nil {
			return result, errs, fmt.Errorf("비교 결과 저장 실패: %w", err)
		}
	}

	log.Printf("🎉 폴더 비교 완료: %d개 중복 (%.1f%%), %s, 대상 삭제 가능: %v",
		result.DuplicateCount, result.DuplicationPercentage,
		humanize.IBytes(uint64(result.DuplicateSize)), result.CanDeleteTarget)
	return result, errs, nil
}

// findInSource compares target against same-size source files until one matches
func (uc *FolderComparisonUseCase) findInSource(target entities.Candidate, sources []entities.Candidate, chunk int64, tracker *ProgressTracker) (bool, []error) {
	var errs []error
	weight := int64(1)
	tracker.AdvanceMaxProgress(weight)
	defer tracker.AdvanceProgress(weight)

	for _, source := range sources {
		if tracker.IsCancelRequested() {
			return false, errs
		}
		if source.Path == target.Path {
			continue
		}
		same, err := uc.comparator.Compare(source.Path, target.Path, target.Size, chunk, tracker.IsCancelRequested)
		if err != nil {
			errs = append(errs, &entities.ComparisonError{PathA: source.Path, PathB: target.Path, Err: err})
			continue
		}
		if same {
			return true, errs
		}
	}
	return false, errs
}

func (uc *FolderComparisonUseCase) validateRoots(req *CompareFoldersRequest) error {
	if err := entities.ValidateRoot(req.SourceRoot); err != nil {
		return fmt.Errorf("기준 폴더 접근 실패: %w", err)
	}
	if err := entities.ValidateRoot(req.TargetRoot); err != nil {
		return fmt.Errorf("대상 폴더 접근 실패: %w", err)
	}
	if filepath.Clean(req.SourceRoot) == filepath.Clean(req.TargetRoot) {
		return &entities.FatalConfigError{Path: req.TargetRoot, Reason: "source and target are the same directory"}
	}
	return nil
}

// GetComparisonProgress returns the persisted progress of a comparison
func (uc *FolderComparisonUseCase) GetComparisonProgress(ctx context.Context, progressID int) (*entities.Progress, error) {
	return uc.progressService.GetProgress(ctx, progressID)
}

// LoadSavedComparison loads a previously saved comparison result
func (uc *FolderComparisonUseCase) LoadSavedComparison(ctx context.Context, sourceRoot, targetRoot string) (*entities.ComparisonResult, error) {
	comparison, err := uc.comparisonRepo.GetByRoots(ctx, sourceRoot, targetRoot)
	if err != nil {
		return nil, fmt.Errorf("저장된 비교 결과 조회 실패: %w", err)
	}
	if comparison == nil {
		return nil, fmt.Errorf("저장된 비교 결과를 찾을 수 없습니다: %w", ErrNotFound)
	}
	return comparison, nil
}

// DeleteComparisonResult deletes a comparison result
func (uc *FolderComparisonUseCase) DeleteComparisonResult(ctx context.Context, comparisonID int) error {
	return uc.comparisonRepo.Delete(ctx, comparisonID)
}

// GetRecentComparisons returns recent comparison results
func (uc *FolderComparisonUseCase) GetRecentComparisons(ctx context.Context, limit int) ([]*entities.ComparisonResult, error) {
	if limit <= 0 {
		limit = 10
	}
	return uc.comparisonRepo.GetRecentComparisons(ctx, limit)
}

// SetConfiguration sets the use case configuration
func (uc *FolderComparisonUseCase) SetConfiguration(chunkSize int64, recursive bool, minSize int64) {
	if chunkSize > 0 {
		uc.chunkSize = chunkSize
	}
	uc.recursive = recursive
	if minSize >= 0 {
		uc.minSize = minSize
	}
}
