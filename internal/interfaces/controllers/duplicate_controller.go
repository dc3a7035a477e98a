package controllers

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/interfaces/middleware"
	"go-local-duplicates/internal/interfaces/presenters"
	"go-local-duplicates/internal/usecases"
	"net/http"
)

// DuplicateFinder is the part of the duplicate finding use case the controller needs
type DuplicateFinder interface {
	FindDuplicates(ctx context.Context, req *usecases.FindDuplicatesRequest) (*usecases.FindDuplicatesResponse, error)
	CancelOperation(ctx context.Context, operationID string) error
	LiveSnapshot(operationID string) (entities.ProgressSnapshot, error)
	GetProgress(ctx context.Context, progressID int) (*entities.Progress, error)
	GetProgressByOperation(ctx context.Context, operationID string) (*entities.Progress, error)
	GetRecentOperations(ctx context.Context, limit int) ([]*entities.Progress, error)
	GetMatchGroups(ctx context.Context, operationID string, page, pageSize int) (*usecases.GetMatchGroupsResponse, error)
	GetMatchGroup(ctx context.Context, groupID int) (*entities.MatchGroup, error)
	DeleteMatchGroup(ctx context.Context, groupID int) error
	GetOperationErrors(ctx context.Context, operationID string, limit int) ([]*entities.OperationError, map[string]int, error)
}

// DuplicateController handles HTTP requests related to duplicate searches
type DuplicateController struct {
	duplicateFindingUseCase DuplicateFinder
}

// NewDuplicateController creates a new duplicate controller
func NewDuplicateController(duplicateFindingUseCase DuplicateFinder) *DuplicateController {
	return &DuplicateController{
		duplicateFindingUseCase: duplicateFindingUseCase,
	}
}

// FindDuplicates starts a background search and returns its ids
func (c *DuplicateController) FindDuplicates(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req usecases.FindDuplicatesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), longTimeout)
	defer cancel()

	response, err := c.duplicateFindingUseCase.FindDuplicates(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.SendJSON(w, http.StatusAccepted, presenters.ToFindResponseDTO(response))
}

// GetDuplicateProgress returns a progress record by id or by operationId
func (c *DuplicateController) GetDuplicateProgress(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	var (
		progress *entities.Progress
		err      error
	)
	if operationID := r.URL.Query().Get("operationId"); operationID != "" {
		progress, err = c.duplicateFindingUseCase.GetProgressByOperation(ctx, operationID)
	} else {
		var id int
		if id, err = requireQueryInt(r, "id"); err == nil {
			progress, err = c.duplicateFindingUseCase.GetProgress(ctx, id)
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, presenters.ToProgressDTO(progress))
}

// GetLiveSnapshot returns the in-memory snapshot of a running search
func (c *DuplicateController) GetLiveSnapshot(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	snapshot, err := c.duplicateFindingUseCase.LiveSnapshot(r.URL.Query().Get("operationId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"current":    snapshot.Current,
		"max":        snapshot.Max,
		"complete":   snapshot.Complete,
		"message":    snapshot.Message,
		"percentage": snapshot.Percentage(),
	})
}

// CancelOperation requests cancellation of a running search
func (c *DuplicateController) CancelOperation(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	operationID := r.URL.Query().Get("operationId")
	if operationID == "" {
		writeError(w, &middleware.CustomError{Message: "operationId is required", Code: "INVALID_REQUEST", Status: http.StatusBadRequest})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	if err := c.duplicateFindingUseCase.CancelOperation(ctx, operationID); err != nil {
		writeError(w, err)
		return
	}

	middleware.SendJSONSuccess(w, map[string]string{"operationId": operationID}, "취소 요청됨")
}

// GetRecentOperations lists recent progress records
func (c *DuplicateController) GetRecentOperations(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	operations, err := c.duplicateFindingUseCase.GetRecentOperations(ctx, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, presenters.ToProgressDTOList(operations))
}

// GetMatchGroups returns a page of groups of one operation
func (c *DuplicateController) GetMatchGroups(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", 50)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), longTimeout)
	defer cancel()

	result, err := c.duplicateFindingUseCase.GetMatchGroups(ctx, r.URL.Query().Get("operationId"), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, presenters.ToMatchGroupsPageDTO(result))
}

// GetMatchGroup returns one group
func (c *DuplicateController) GetMatchGroup(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	groupID, err := requireQueryInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	group, err := c.duplicateFindingUseCase.GetMatchGroup(ctx, groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, presenters.ToMatchGroupDTO(group))
}

// DeleteMatchGroup forgets a group. Its files stay on disk.
func (c *DuplicateController) DeleteMatchGroup(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodDelete) {
		return
	}

	groupID, err := requireQueryInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	if err := c.duplicateFindingUseCase.DeleteMatchGroup(ctx, groupID); err != nil {
		writeError(w, err)
		return
	}

	middleware.SendJSONSuccess(w, map[string]int{"groupId": groupID}, "그룹이 삭제되었습니다")
}

// GetOperationErrors lists the recorded non-fatal errors of an operation
func (c *DuplicateController) GetOperationErrors(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	operationID := r.URL.Query().Get("operationId")
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	errs, counts, err := c.duplicateFindingUseCase.GetOperationErrors(ctx, operationID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, &presenters.OperationErrorsResponseDTO{
		OperationID: operationID,
		Errors:      presenters.ToOperationErrorDTOList(errs),
		CountByKind: counts,
	})
}
