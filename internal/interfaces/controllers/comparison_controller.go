package controllers

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/interfaces/middleware"
	"go-local-duplicates/internal/interfaces/presenters"
	"go-local-duplicates/internal/usecases"
	"net/http"
)

// FolderComparer is the part of the folder comparison use case the controller needs
type FolderComparer interface {
	StartComparison(ctx context.Context, req *usecases.CompareFoldersRequest) (*usecases.CompareFoldersResponse, error)
	GetComparisonProgress(ctx context.Context, progressID int) (*entities.Progress, error)
	LoadSavedComparison(ctx context.Context, sourceRoot, targetRoot string) (*entities.ComparisonResult, error)
	DeleteComparisonResult(ctx context.Context, comparisonID int) error
	GetRecentComparisons(ctx context.Context, limit int) ([]*entities.ComparisonResult, error)
}

// ComparisonController handles HTTP requests related to folder comparison
type ComparisonController struct {
	folderComparisonUseCase FolderComparer
}

// NewComparisonController creates a new comparison controller
func NewComparisonController(folderComparisonUseCase FolderComparer) *ComparisonController {
	return &ComparisonController{
		folderComparisonUseCase: folderComparisonUseCase,
	}
}

// CompareFolders starts a comparison, or returns the stored one for the same roots
func (c *ComparisonController) CompareFolders(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req usecases.CompareFoldersRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.SourceRoot == "" || req.TargetRoot == "" {
		writeError(w, &middleware.CustomError{Message: "sourceRoot and targetRoot are required", Code: "INVALID_REQUEST", Status: http.StatusBadRequest})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), longTimeout)
	defer cancel()

	response, err := c.folderComparisonUseCase.StartComparison(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusAccepted
	if response.Progress == nil {
		status = http.StatusOK
	}
	middleware.SendJSON(w, status, presenters.ToComparisonResponseDTO(response))
}

// GetComparisonProgress returns the progress record of a comparison
func (c *ComparisonController) GetComparisonProgress(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	progressID, err := requireQueryInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	progress, err := c.folderComparisonUseCase.GetComparisonProgress(ctx, progressID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, presenters.ToProgressDTO(progress))
}

// LoadSavedComparison returns the stored result for two roots
func (c *ComparisonController) LoadSavedComparison(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	sourceRoot := r.URL.Query().Get("sourceRoot")
	targetRoot := r.URL.Query().Get("targetRoot")
	if sourceRoot == "" || targetRoot == "" {
		writeError(w, &middleware.CustomError{Message: "sourceRoot and targetRoot are required", Code: "INVALID_REQUEST", Status: http.StatusBadRequest})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	comparison, err := c.folderComparisonUseCase.LoadSavedComparison(ctx, sourceRoot, targetRoot)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, presenters.ToComparisonResultDTO(comparison))
}

// DeleteComparisonResult removes a stored comparison
func (c *ComparisonController) DeleteComparisonResult(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost, http.MethodDelete) {
		return
	}

	comparisonID, err := requireQueryInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	if err := c.folderComparisonUseCase.DeleteComparisonResult(ctx, comparisonID); err != nil {
		writeError(w, err)
		return
	}

	middleware.SendJSONSuccess(w, map[string]int{"comparisonId": comparisonID}, "비교 결과가 삭제되었습니다")
}

// GetRecentComparisons lists the latest comparisons
func (c *ComparisonController) GetRecentComparisons(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	results, err := c.folderComparisonUseCase.GetRecentComparisons(ctx, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, presenters.ToComparisonResultDTOList(results))
}
