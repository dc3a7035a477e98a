package controllers

import (
	"context"
	"go-local-duplicates/internal/interfaces/presenters"
	"go-local-duplicates/internal/usecases"
	"net/http"
	"time"
)

// FileScanner is the part of the scanning use case the controller needs
type FileScanner interface {
	ScanFiles(ctx context.Context, req *usecases.ScanFilesRequest) (*usecases.ScanFilesResponse, error)
}

// FileController handles HTTP requests related to file scanning
type FileController struct {
	fileScanningUseCase FileScanner
	scanTimeout         time.Duration
}

// NewFileController creates a new file controller
func NewFileController(fileScanningUseCase FileScanner) *FileController {
	return &FileController{
		fileScanningUseCase: fileScanningUseCase,
		scanTimeout:         5 * time.Minute,
	}
}

// ScanFiles walks a root synchronously and returns its statistics
func (c *FileController) ScanFiles(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req usecases.ScanFilesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Root == "" {
		req.Root = r.URL.Query().Get("root")
	}

	// A client that goes away cancels the walk
	ctx, cancel := context.WithTimeout(r.Context(), c.scanTimeout)
	defer cancel()

	response, err := c.fileScanningUseCase.ScanFiles(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, presenters.ToScanResponseDTO(response))
}
