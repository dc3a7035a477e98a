package repositories

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
)

// ProgressRepository defines the interface for progress tracking data access operations
type ProgressRepository interface {
	// Basic CRUD operations
	Save(ctx context.Context, progress *entities.Progress) error
	GetByID(ctx context.Context, id int) (*entities.Progress, error)
	GetByOperationID(ctx context.Context, operationID string) (*entities.Progress, error)
	Update(ctx context.Context, progress *entities.Progress) error
	Delete(ctx context.Context, id int) error

	// Query operations
	GetByStatus(ctx context.Context, status string) ([]*entities.Progress, error)
	GetRecentOperations(ctx context.Context, limit int) ([]*entities.Progress, error)

	// Cleanup operations
	DeleteOlderThan(ctx context.Context, days int) (int, error)

	// Statistics operations
	CountByStatus(ctx context.Context) (map[string]int, error)
}
