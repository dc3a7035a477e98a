package services

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
)

// ProgressReporter is the narrow view of a running operation that the scanner
// and grouper use to report work and poll for cancellation
type ProgressReporter interface {
	AdvanceMaxProgress(delta int64)
	AdvanceProgress(delta int64)
	SetMessage(message string)
	IsCancelRequested() bool
}

// ProgressService defines the domain service for persisted progress records
type ProgressService interface {
	// Operation lifecycle
	StartOperation(ctx context.Context, operationType, operationID string) (*entities.Progress, error)
	UpdateOperation(ctx context.Context, progress *entities.Progress) error
	CompleteOperation(ctx context.Context, progressID int) error
	CancelOperation(ctx context.Context, progressID int) error
	FailOperation(ctx context.Context, progressID int, errorMessage string) error

	// Progress queries
	GetProgress(ctx context.Context, progressID int) (*entities.Progress, error)
	GetByOperationID(ctx context.Context, operationID string) (*entities.Progress, error)
	GetRecentOperations(ctx context.Context, limit int) ([]*entities.Progress, error)
}
