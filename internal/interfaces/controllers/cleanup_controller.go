package controllers

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/interfaces/middleware"
	"go-local-duplicates/internal/interfaces/presenters"
	"go-local-duplicates/internal/usecases"
	"net/http"
)

// DuplicateCleaner is the part of the cleanup use case the controller needs
type DuplicateCleaner interface {
	PreviewDeletion(ctx context.Context, req *usecases.DeleteDuplicatesRequest) (*usecases.PreviewDeletionResponse, error)
	DeleteDuplicates(ctx context.Context, req *usecases.DeleteDuplicatesRequest) (*usecases.DeleteDuplicatesResponse, error)
	CleanupEmptyFolders(ctx context.Context, req *usecases.CleanupEmptyFoldersRequest) (*usecases.CleanupEmptyFoldersResponse, error)
	GetCleanupProgress(ctx context.Context, progressID int) (*entities.Progress, error)
}

// CleanupController handles HTTP requests related to deleting duplicates
type CleanupController struct {
	fileCleanupUseCase DuplicateCleaner
}

// NewCleanupController creates a new cleanup controller
func NewCleanupController(fileCleanupUseCase DuplicateCleaner) *CleanupController {
	return &CleanupController{
		fileCleanupUseCase: fileCleanupUseCase,
	}
}

// PreviewDeletion returns survivors and removals without touching the disk
func (c *CleanupController) PreviewDeletion(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req usecases.DeleteDuplicatesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), longTimeout)
	defer cancel()

	response, err := c.fileCleanupUseCase.PreviewDeletion(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, presenters.ToDeletionPreviewDTO(response))
}

// DeleteDuplicates starts removing all but one member of each selected group
func (c *CleanupController) DeleteDuplicates(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req usecases.DeleteDuplicatesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), longTimeout)
	defer cancel()

	response, err := c.fileCleanupUseCase.DeleteDuplicates(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.SendJSON(w, http.StatusAccepted, presenters.ToDeleteResponseDTO(response))
}

// CleanupEmptyFolders starts removing the empty subfolders of a root
func (c *CleanupController) CleanupEmptyFolders(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req usecases.CleanupEmptyFoldersRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	response, err := c.fileCleanupUseCase.CleanupEmptyFolders(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.SendJSON(w, http.StatusAccepted, presenters.ToFolderCleanupResponseDTO(response))
}

// GetCleanupProgress returns the progress record of a deletion
func (c *CleanupController) GetCleanupProgress(w http.ResponseWriter, r *http.Request) {
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

	progress, err := c.fileCleanupUseCase.GetCleanupProgress(ctx, progressID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, presenters.ToProgressDTO(progress))
}
