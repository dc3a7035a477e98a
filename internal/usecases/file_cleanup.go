package usecases

import (
	"context"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/repositories"
	"go-local-duplicates/internal/domain/services"
	"log"

	"github.com/dustin/go-humanize"
)

// FileCleanupUseCase deletes the redundant members of stored groups and
// the folders left empty afterwards
type FileCleanupUseCase struct {
	groupRepo       repositories.MatchGroupRepository
	progressService services.ProgressService
	planner         *DeletionPlanner
	folderCleaner   services.FolderCleaner

	// Configuration
	defaultOrder entities.MatchOrdering
	moveToTrash  bool
}

// NewFileCleanupUseCase creates a new file cleanup use case
func NewFileCleanupUseCase(
	groupRepo repositories.MatchGroupRepository,
	progressService services.ProgressService,
	planner *DeletionPlanner,
	folderCleaner services.FolderCleaner,
) *FileCleanupUseCase {
	return &FileCleanupUseCase{
		groupRepo:       groupRepo,
		progressService: progressService,
		planner:         planner,
		folderCleaner:   folderCleaner,
		defaultOrder:    entities.OrderNone,
		moveToTrash:     true,
	}
}

// DeleteDuplicatesRequest selects groups either by id or by operation
type DeleteDuplicatesRequest struct {
	OperationID      string                   `json:"operationId,omitempty"`
	GroupIDs         []int                    `json:"groupIds,omitempty"`
	Ordering         string                   `json:"ordering,omitempty"`
	MoveToTrash      *bool                    `json:"moveToTrash,omitempty"`
	ProgressCallback func(*entities.Progress) `json:"-"`
}

// DeleteDuplicatesResponse represents the response of a started deletion
type DeleteDuplicatesResponse struct {
	Progress       *entities.Progress `json:"progress"`
	TotalGroups    int                `json:"totalGroups"`
	TotalFiles     int                `json:"totalFiles"`
	DuplicatesSize int64              `json:"duplicatesSize"`
}

// CleanupEmptyFoldersRequest names the directory whose empty subfolders go.
// Recursive defaults to true.
type CleanupEmptyFoldersRequest struct {
	Root             string                   `json:"root"`
	Recursive        *bool                    `json:"recursive,omitempty"`
	ProgressCallback func(*entities.Progress) `json:"-"`
}

// CleanupEmptyFoldersResponse represents a started folder cleanup
type CleanupEmptyFoldersResponse struct {
	Progress  *entities.Progress `json:"progress"`
	Root      string             `json:"root"`
	Recursive bool               `json:"recursive"`
}

// PreviewDeletionResponse lists what a deletion would do
type PreviewDeletionResponse struct {
	Plan           []entities.DeletionPlanEntry `json:"plan"`
	TotalFiles     int                          `json:"totalFiles"`
	DuplicatesSize int64                        `json:"duplicatesSize"`
}

func (uc *FileCleanupUseCase) resolve(ctx context.Context, req *DeleteDuplicatesRequest) ([]*entities.MatchGroup, entities.MatchOrdering, bool, error) {
	order := uc.defaultOrder
	if req.Ordering != "" {
		parsed, err := entities.ParseMatchOrdering(req.Ordering)
		if err != nil {
			return nil, order, false, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		order = parsed
	}
	moveToTrash := uc.moveToTrash
	if req.MoveToTrash != nil {
		moveToTrash = *req.MoveToTrash
	}

	var groups []*entities.MatchGroup
	switch {
	case len(req.GroupIDs) > 0:
		for _, id := range req.GroupIDs {
			g, err := uc.groupRepo.GetByID(ctx, id)
			if err != nil {
				return nil, order, false, fmt.Errorf("그룹 조회 실패: %w", err)
			}
			if g == nil {
				log.Printf("⚠️ 그룹을 찾을 수 없음: %d", id)
				continue
			}
			groups = append(groups, g)
		}
	case req.OperationID != "":
		var err error
		groups, err = uc.groupRepo.GetByOperation(ctx, req.OperationID)
		if err != nil {
			return nil, order, false, fmt.Errorf("그룹 조회 실패: %w", err)
		}
	default:
		return nil, order, false, fmt.Errorf("%w: operationId 또는 groupIds가 필요합니다", ErrInvalidRequest)
	}
	return groups, order, moveToTrash, nil
}

// PreviewDeletion returns the survivor and removals of each group
func (uc *FileCleanupUseCase) PreviewDeletion(ctx context.Context, req *DeleteDuplicatesRequest) (*PreviewDeletionResponse, error) {
	groups, order, _, err := uc.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	plan := uc.planner.Plan(groups, order)
	resp := &PreviewDeletionResponse{Plan: plan}
	for _, entry := range plan {
		resp.TotalFiles += len(entry.Removals)
		resp.DuplicatesSize += entry.FileSize * int64(len(entry.Removals))
	}
	return resp, nil
}

// DeleteDuplicates starts deleting all but one member of each selected group
func (uc *FileCleanupUseCase) DeleteDuplicates(ctx context.Context, req *DeleteDuplicatesRequest) (*DeleteDuplicatesResponse, error) {
	groups, order, moveToTrash, err := uc.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Printf("🗑️ 중복 파일 삭제 시작: %d개 그룹", len(groups))

	progress, err := uc.progressService.StartOperation(ctx, entities.OperationFileCleanup, "")
	if err != nil {
		return nil, fmt.Errorf("진행 상황 생성 실패: %w", err)
	}

	response := &DeleteDuplicatesResponse{
		Progress:    cloneProgress(progress),
		TotalGroups: len(groups),
		TotalFiles:  CountRemovals(groups),
	}
	for _, g := range groups {
		response.DuplicatesSize += g.DuplicatesSize()
	}

	// Deletion continues after the HTTP request returns
	go uc.performDeletion(context.Background(), groups, order, moveToTrash, progress, req.ProgressCallback)

	return response, nil
}

func (uc *FileCleanupUseCase) performDeletion(ctx context.Context, groups []*entities.MatchGroup, order entities.MatchOrdering, moveToTrash bool, progress *entities.Progress, callback func(*entities.Progress)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ 파일 삭제 중 패닉 발생: %v", r)
			uc.progressService.FailOperation(ctx, progress.ID, fmt.Sprintf("패닉 발생: %v", r))
		}
	}()

	progress.Start()
	progress.SetMax(int64(CountRemovals(groups)))
	progress.UpdateStep("deleting", "중복 파일 삭제 중...")
	uc.progressService.UpdateOperation(ctx, progress)

	originals := make(map[int][]string, len(groups))
	for _, g := range groups {
		originals[g.ID] = append([]string(nil), g.Members...)
	}

	result := uc.planner.Execute(ctx, groups, order, moveToTrash, func(path string, err error) {
		progress.Advance(1)
		if callback != nil {
			callback(progress)
		}
	})
	uc.syncGroups(ctx, originals, result)

	progress.SetMetadata("deleted", len(result.DeletedPaths))
	progress.SetMetadata("failed", len(result.FailedPaths))
	progress.SetMetadata("bytesFreed", result.BytesFreed)
	progress.SetMetadata("duplicatesSize", result.DuplicatesSize)
	progress.UpdateStep("completed", fmt.Sprintf("%d개 삭제, %d개 실패", len(result.DeletedPaths), len(result.FailedPaths)))
	progress.Finish()
	if err := uc.progressService.UpdateOperation(ctx, progress); err != nil {
		log.Printf("⚠️ 진행 상황 저장 실패: %v", err)
	}
	if callback != nil {
		callback(progress)
	}

	log.Printf("✅ 중복 파일 삭제 완료: %d개 삭제, %d개 실패, %s 확보",
		len(result.DeletedPaths), len(result.FailedPaths), humanize.IBytes(uint64(result.BytesFreed)))
}

// syncGroups drops deleted members from stored groups. A group that no
// longer holds two files is removed.
func (uc *FileCleanupUseCase) syncGroups(ctx context.Context, originals map[int][]string, result *entities.DeletionResult) {
	deleted := make(map[string]bool, len(result.DeletedPaths))
	for _, path := range result.DeletedPaths {
		deleted[path] = true
	}

	for id, members := range originals {
		if id == 0 {
			continue
		}
		remaining := 0
		for _, m := range members {
			if !deleted[m] {
				remaining++
			}
		}
		if remaining <= 1 {
			if err := uc.groupRepo.Delete(ctx, id); err != nil {
				log.Printf("⚠️ 그룹 삭제 실패 [%d]: %v", id, err)
			}
			continue
		}
		for _, m := range members {
			if !deleted[m] {
				continue
			}
			if err := uc.groupRepo.RemoveMember(ctx, id, m); err != nil {
				log.Printf("⚠️ 그룹 멤버 삭제 실패 [%d] %s: %v", id, m, err)
			}
		}
	}
}

// CleanupEmptyFolders validates the root and removes its empty subfolders in
// the background
func (uc *FileCleanupUseCase) CleanupEmptyFolders(ctx context.Context, req *CleanupEmptyFoldersRequest) (*CleanupEmptyFoldersResponse, error) {
	log.Printf("📂 빈 폴더 정리 요청: %s", req.Root)
	if err := entities.ValidateRoot(req.Root); err != nil {
		return nil, err
	}
	recursive := true
	if req.Recursive != nil {
		recursive = *req.Recursive
	}

	progress, err := uc.progressService.StartOperation(ctx, entities.OperationFolderCleanup, "")
	if err != nil {
		return nil, fmt.Errorf("진행 상황 생성 실패: %w", err)
	}
	progress.SetMetadata("root", req.Root)

	response := &CleanupEmptyFoldersResponse{
		Progress:  cloneProgress(progress),
		Root:      req.Root,
		Recursive: recursive,
	}

	go uc.performFolderCleanup(context.Background(), req.Root, recursive, progress, req.ProgressCallback)

	return response, nil
}

func (uc *FileCleanupUseCase) performFolderCleanup(ctx context.Context, root string, recursive bool, progress *entities.Progress, callback func(*entities.Progress)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ 빈 폴더 정리 중 패닉 발생: %v", r)
			uc.progressService.FailOperation(ctx, progress.ID, fmt.Sprintf("패닉 발생: %v", r))
		}
	}()

	progress.Start()
	progress.UpdateStep("cleaning", "빈 폴더 정리 중...")
	uc.progressService.UpdateOperation(ctx, progress)

	result, err := uc.folderCleaner.CleanEmptyFolders(ctx, root, recursive, func(path string, err error) {
		progress.AdvanceMax(1)
		progress.Advance(1)
		if callback != nil {
			callback(progress)
		}
	})
	if err != nil {
		log.Printf("❌ 빈 폴더 정리 실패: %v", err)
		uc.progressService.FailOperation(ctx, progress.ID, fmt.Sprintf("빈 폴더 정리 실패: %v", err))
		return
	}

	progress.SetMetadata("deletedFolders", len(result.DeletedFolders))
	progress.SetMetadata("failedFolders", len(result.FailedFolders))
	progress.SetMetadata("errors", len(result.Errors))
	progress.UpdateStep("completed", fmt.Sprintf("%d개 폴더 삭제, %d개 실패", len(result.DeletedFolders), len(result.FailedFolders)))
	progress.Finish()
	if err := uc.progressService.UpdateOperation(ctx, progress); err != nil {
		log.Printf("⚠️ 진행 상황 저장 실패: %v", err)
	}
	if callback != nil {
		callback(progress)
	}
}

// GetCleanupProgress returns the persisted progress of a deletion
func (uc *FileCleanupUseCase) GetCleanupProgress(ctx context.Context, progressID int) (*entities.Progress, error) {
	return uc.progressService.GetProgress(ctx, progressID)
}

// SetConfiguration updates the default ordering and deletion mode
func (uc *FileCleanupUseCase) SetConfiguration(order entities.MatchOrdering, moveToTrash bool) {
	uc.defaultOrder = order
	uc.moveToTrash = moveToTrash
}
