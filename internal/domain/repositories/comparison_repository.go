package repositories

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
)

// ComparisonRepository defines the interface for folder comparison data access operations
type ComparisonRepository interface {
	// Basic CRUD operations
	Save(ctx context.Context, result *entities.ComparisonResult) error
	GetByID(ctx context.Context, id int) (*entities.ComparisonResult, error)
	Delete(ctx context.Context, id int) error

	// Query operations
	GetByRoots(ctx context.Context, sourceRoot, targetRoot string) (*entities.ComparisonResult, error)
	GetRecentComparisons(ctx context.Context, limit int) ([]*entities.ComparisonResult, error)

	// Statistics operations
	Count(ctx context.Context) (int, error)
}
