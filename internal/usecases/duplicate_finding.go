package usecases

import (
	"context"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/repositories"
	"go-local-duplicates/internal/domain/services"
	"log"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// DuplicateFindingUseCase runs duplicate searches in the background, persists
// their groups, errors and progress, and lets callers cancel them
type DuplicateFindingUseCase struct {
	groupRepo       repositories.MatchGroupRepository
	errorRepo       repositories.OperationErrorRepository
	progressService services.ProgressService
	scanner         services.Scanner
	sorter          services.SizeSorter
	grouper         services.DuplicateGrouper
	planner         *DeletionPlanner

	// Configuration
	defaults        entities.MatchSettings
	saveInterval    time.Duration
	maxStoredErrors int

	mu      sync.Mutex
	running map[string]*Operation
}

// NewDuplicateFindingUseCase creates a new duplicate finding use case
func NewDuplicateFindingUseCase(
	groupRepo repositories.MatchGroupRepository,
	errorRepo repositories.OperationErrorRepository,
	progressService services.ProgressService,
	scanner services.Scanner,
	sorter services.SizeSorter,
	grouper services.DuplicateGrouper,
	planner *DeletionPlanner,
) *DuplicateFindingUseCase {
	return &DuplicateFindingUseCase{
		groupRepo:       groupRepo,
		errorRepo:       errorRepo,
		progressService: progressService,
		scanner:         scanner,
		sorter:          sorter,
		grouper:         grouper,
		planner:         planner,
		defaults:        entities.DefaultMatchSettings(""),
		saveInterval:    2 * time.Second,
		maxStoredErrors: 1000,
		running:         make(map[string]*Operation),
	}
}

// FindDuplicatesRequest represents the request for finding duplicates.
// Unset optional fields fall back to the configured defaults.
type FindDuplicatesRequest struct {
	Root          string   `json:"root"`
	Recursive     *bool    `json:"recursive,omitempty"`
	MatchContents *bool    `json:"matchContents,omitempty"`
	ChunkSize     int64    `json:"chunkSize,omitempty"`
	MinSize       int64    `json:"minSize,omitempty"`
	MaxSize       int64    `json:"maxSize,omitempty"`
	IncludeExt    []string `json:"includeExt,omitempty"`
	ExcludeExt    []string `json:"excludeExt,omitempty"`
	Workers       int      `json:"workers,omitempty"`
	Ordering      string   `json:"ordering,omitempty"`
	AutoDelete    bool     `json:"autoDelete"`
	MoveToTrash   *bool    `json:"moveToTrash,omitempty"`

	ProgressCallback func(*entities.Progress) `json:"-"`
}

// FindDuplicatesResponse represents the response for finding duplicates
type FindDuplicatesResponse struct {
	OperationID string                 `json:"operationId"`
	Progress    *entities.Progress     `json:"progress"`
	Settings    entities.MatchSettings `json:"settings"`
}

// GetMatchGroupsResponse represents the paginated response for groups
type GetMatchGroupsResponse struct {
	Groups         []*entities.MatchGroup `json:"groups"`
	TotalGroups    int                    `json:"totalGroups"`
	TotalPages     int                    `json:"totalPages"`
	CurrentPage    int                    `json:"currentPage"`
	PageSize       int                    `json:"pageSize"`
	HasNext        bool                   `json:"hasNext"`
	HasPrev        bool                   `json:"hasPrev"`
	DuplicatesSize int64                  `json:"duplicatesSize"`
}

// SettingsFor merges a request over the configured defaults
func (uc *DuplicateFindingUseCase) SettingsFor(req *FindDuplicatesRequest) (entities.MatchSettings, error) {
	s := uc.defaults
	s.Root = req.Root
	if req.Recursive != nil {
		s.Recursive = *req.Recursive
	}
	if req.MatchContents != nil {
		s.MatchContents = *req.MatchContents
	}
	if req.ChunkSize > 0 {
		s.ChunkSize = req.ChunkSize
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
	if req.Workers > 0 {
		s.Workers = req.Workers
	}
	if req.Ordering != "" {
		order, err := entities.ParseMatchOrdering(req.Ordering)
		if err != nil {
			return s, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		s.Ordering = order
	}
	if req.MoveToTrash != nil {
		s.MoveToTrash = *req.MoveToTrash
	}
	s.AutoDelete = req.AutoDelete || s.AutoDelete

	if err := entities.ValidateRoot(s.Root); err != nil {
		return s, err
	}
	return s.Normalize(), nil
}

// FindDuplicates validates the request and starts the search in the background
func (uc *DuplicateFindingUseCase) FindDuplicates(ctx context.Context, req *FindDuplicatesRequest) (*FindDuplicatesResponse, error) {
	log.Printf("🔍 중복 파일 검색 요청: %s", req.Root)

	settings, err := uc.SettingsFor(req)
	if err != nil {
		return nil, err
	}

	op := NewOperation(settings, uc.scanner, uc.sorter, uc.grouper)

	progress, err := uc.progressService.StartOperation(ctx, entities.OperationDuplicateSearch, op.ID())
	if err != nil {
		op.Dispose()
		return nil, fmt.Errorf("진행 상황 생성 실패: %w", err)
	}
	progress.SetMetadata("root", settings.Root)

	uc.mu.Lock()
	uc.running[op.ID()] = op
	uc.mu.Unlock()

	// The search outlives the HTTP request
	go uc.performDuplicateSearch(context.Background(), op, progress, req.ProgressCallback)

	return &FindDuplicatesResponse{
		OperationID: op.ID(),
		Progress:    progress,
		Settings:    settings,
	}, nil
}

func (uc *DuplicateFindingUseCase) performDuplicateSearch(ctx context.Context, op *Operation, progress *entities.Progress, callback func(*entities.Progress)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ 중복 검색 중 패닉 발생: %v", r)
			uc.progressService.FailOperation(ctx, progress.ID, fmt.Sprintf("패닉 발생: %v", r))
		}
		uc.mu.Lock()
		delete(uc.running, op.ID())
		uc.mu.Unlock()
		op.Dispose()
	}()

	if _, _, err := uc.runAndPersist(ctx, op, progress, callback); err != nil {
		log.Printf("❌ 중복 검색 실패: %v", err)
	}
}

func (uc *DuplicateFindingUseCase) runAndPersist(ctx context.Context, op *Operation, progress *entities.Progress, callback func(*entities.Progress)) (*entities.MatchCollection, []error, error) {
	var lastSave time.Time
	op.OnProgress(func(snap entities.ProgressSnapshot) {
		// The terminal record is written once the groups are stored
		if snap.Complete || time.Since(lastSave) < uc.saveInterval {
			return
		}
		record := uc.mergeRecord(op, progress)
		if record.IsTerminal() {
			return
		}
		lastSave = time.Now()
		if err := uc.progressService.UpdateOperation(ctx, record); err != nil {
			log.Printf("⚠️ 진행 상황 저장 실패: %v", err)
		}
		if callback != nil {
			callback(record)
		}
	})

	results, errs, err := op.Run(ctx)
	if err != nil {
		uc.progressService.FailOperation(ctx, progress.ID, err.Error())
		return nil, nil, err
	}

	// Groups are stored as found, before any auto-delete drains them
	duplicatesSize := results.DuplicatesSize()
	if err := uc.saveResults(ctx, op.ID(), results, errs); err != nil {
		log.Printf("❌ 검색 결과 저장 실패: %v", err)
		errs = append(errs, err)
	}

	record := uc.mergeRecord(op, progress)
	record.SetMetadata("groups", results.Len())
	record.SetMetadata("duplicatesSize", duplicatesSize)

	settings := op.Settings()
	if live := op.ProgressRecord(); settings.AutoDelete && !live.IsCancelled() && results.Len() > 0 {
		deletion := uc.autoDelete(ctx, op.ID(), results, settings)
		errs = append(errs, deletion.Errors...)
		record.SetMetadata("deletedFiles", len(deletion.DeletedPaths))
		record.SetMetadata("failedFiles", len(deletion.FailedPaths))
		record.SetMetadata("bytesFreed", deletion.BytesFreed)
	}

	record.SetMetadata("errors", len(errs))
	if err := uc.progressService.UpdateOperation(ctx, record); err != nil {
		log.Printf("⚠️ 진행 상황 저장 실패: %v", err)
	}
	if callback != nil {
		callback(record)
	}

	return results, errs, nil
}

// autoDelete removes all but one member of copies of the found groups, so
// the returned collection still lists every duplicate
func (uc *DuplicateFindingUseCase) autoDelete(ctx context.Context, operationID string, results *entities.MatchCollection, settings entities.MatchSettings) *entities.DeletionResult {
	found := results.Groups()
	groups := make([]*entities.MatchGroup, 0, len(found))
	for _, g := range found {
		groups = append(groups, g.Clone())
	}

	log.Printf("🗑️ 자동 삭제 시작: %d개 그룹", len(groups))
	deletion := uc.planner.Execute(ctx, groups, settings.Ordering, settings.MoveToTrash, nil)
	log.Printf("🗑️ 자동 삭제 완료: %d개 삭제, %d개 실패, %s 확보",
		len(deletion.DeletedPaths), len(deletion.FailedPaths), humanize.IBytes(uint64(deletion.BytesFreed)))

	if len(deletion.Errors) > 0 {
		records := make([]*entities.OperationError, 0, len(deletion.Errors))
		for _, err := range deletion.Errors {
			records = append(records, entities.NewOperationError(operationID, err))
		}
		if err := uc.errorRepo.SaveBatch(ctx, records); err != nil {
			log.Printf("⚠️ 삭제 오류 저장 실패: %v", err)
		}
	}
	return deletion
}

// mergeRecord copies the live counters into the persisted record
func (uc *DuplicateFindingUseCase) mergeRecord(op *Operation, progress *entities.Progress) *entities.Progress {
	live := op.ProgressRecord()
	record := cloneProgress(progress)
	record.Current = live.Current
	record.Max = live.Max
	record.Complete = live.Complete
	record.Status = live.Status
	record.CurrentStep = live.CurrentStep
	record.Message = live.Message
	record.ErrorMessage = live.ErrorMessage
	record.EndTime = live.EndTime
	record.LastUpdated = time.Now()
	return record
}

func (uc *DuplicateFindingUseCase) saveResults(ctx context.Context, operationID string, results *entities.MatchCollection, errs []error) error {
	valid := make([]*entities.MatchGroup, 0, results.Len())
	for _, g := range results.Groups() {
		g.OperationID = operationID
		if g.IsValid() {
			valid = append(valid, g)
		}
	}
	if err := uc.groupRepo.SaveBatch(ctx, valid); err != nil {
		return fmt.Errorf("중복 그룹 저장 실패: %w", err)
	}

	if len(errs) > uc.maxStoredErrors {
		log.Printf("⚠️ 오류 %d개 중 %d개만 저장", len(errs), uc.maxStoredErrors)
		errs = errs[:uc.maxStoredErrors]
	}
	records := make([]*entities.OperationError, 0, len(errs))
	for _, err := range errs {
		records = append(records, entities.NewOperationError(operationID, err))
	}
	if err := uc.errorRepo.SaveBatch(ctx, records); err != nil {
		return fmt.Errorf("오류 기록 저장 실패: %w", err)
	}
	return nil
}

// CancelOperation requests cancellation of a running search
func (uc *DuplicateFindingUseCase) CancelOperation(ctx context.Context, operationID string) error {
	uc.mu.Lock()
	op, ok := uc.running[operationID]
	uc.mu.Unlock()
	if !ok {
		return ErrOperationNotFound
	}
	log.Printf("⏹️ 중복 검색 취소 요청: %s", operationID)
	op.RequestCancel()
	return nil
}

// RunningOperations returns the ids of searches in progress
func (uc *DuplicateFindingUseCase) RunningOperations() []string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	ids := make([]string, 0, len(uc.running))
	for id := range uc.running {
		ids = append(ids, id)
	}
	return ids
}

// LiveSnapshot returns the in-memory progress of a running search
func (uc *DuplicateFindingUseCase) LiveSnapshot(operationID string) (entities.ProgressSnapshot, error) {
	uc.mu.Lock()
	op, ok := uc.running[operationID]
	uc.mu.Unlock()
	if !ok {
		return entities.ProgressSnapshot{}, ErrOperationNotFound
	}
	return op.Snapshot(), nil
}

// GetProgress returns the persisted progress of an operation
func (uc *DuplicateFindingUseCase) GetProgress(ctx context.Context, progressID int) (*entities.Progress, error) {
	return uc.progressService.GetProgress(ctx, progressID)
}

// GetProgressByOperation returns the persisted progress by operation id
func (uc *DuplicateFindingUseCase) GetProgressByOperation(ctx context.Context, operationID string) (*entities.Progress, error) {
	return uc.progressService.GetByOperationID(ctx, operationID)
}

// GetRecentOperations lists the most recent operations
func (uc *DuplicateFindingUseCase) GetRecentOperations(ctx context.Context, limit int) ([]*entities.Progress, error) {
	if limit <= 0 {
		limit = 20
	}
	return uc.progressService.GetRecentOperations(ctx, limit)
}

// GetMatchGroups returns a page of groups of an operation
func (uc *DuplicateFindingUseCase) GetMatchGroups(ctx context.Context, operationID string, page, pageSize int) (*GetMatchGroupsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	total, err := uc.groupRepo.Count(ctx, operationID)
	if err != nil {
		return nil, fmt.Errorf("그룹 수 조회 실패: %w", err)
	}
	groups, err := uc.groupRepo.GetPaginated(ctx, operationID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("그룹 조회 실패: %w", err)
	}
	size, err := uc.groupRepo.GetTotalDuplicatesSize(ctx, operationID)
	if err != nil {
		return nil, fmt.Errorf("중복 용량 조회 실패: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &GetMatchGroupsResponse{
		Groups:         groups,
		TotalGroups:    total,
		TotalPages:     totalPages,
		CurrentPage:    page,
		PageSize:       pageSize,
		HasNext:        page < totalPages,
		HasPrev:        page > 1,
		DuplicatesSize: size,
	}, nil
}

// GetMatchGroup returns one group
func (uc *DuplicateFindingUseCase) GetMatchGroup(ctx context.Context, groupID int) (*entities.MatchGroup, error) {
	group, err := uc.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("그룹 조회 실패: %w", err)
	}
	if group == nil {
		return nil, fmt.Errorf("그룹 %d을(를) 찾을 수 없습니다: %w", groupID, ErrNotFound)
	}
	return group, nil
}

// DeleteMatchGroup forgets a group without touching its files
func (uc *DuplicateFindingUseCase) DeleteMatchGroup(ctx context.Context, groupID int) error {
	return uc.groupRepo.Delete(ctx, groupID)
}

// GetOperationErrors returns the recorded errors of an operation
func (uc *DuplicateFindingUseCase) GetOperationErrors(ctx context.Context, operationID string, limit int) ([]*entities.OperationError, map[string]int, error) {
	if limit <= 0 {
		limit = 100
	}
	errs, err := uc.errorRepo.GetByOperation(ctx, operationID, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("오류 기록 조회 실패: %w", err)
	}
	counts, err := uc.errorRepo.CountByKind(ctx, operationID)
	if err != nil {
		return nil, nil, fmt.Errorf("오류 통계 조회 실패: %w", err)
	}
	return errs, counts, nil
}

// SetConfiguration updates the defaults used for new searches
func (uc *DuplicateFindingUseCase) SetConfiguration(defaults entities.MatchSettings, saveInterval time.Duration, maxStoredErrors int) {
	uc.defaults = defaults
	if saveInterval > 0 {
		uc.saveInterval = saveInterval
	}
	if maxStoredErrors > 0 {
		uc.maxStoredErrors = maxStoredErrors
	}
}
