package repositories

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
)

// MatchGroupRepository defines the interface for persisted duplicate groups
type MatchGroupRepository interface {
	// Basic CRUD operations
	Save(ctx context.Context, group *entities.MatchGroup) error
	SaveBatch(ctx context.Context, groups []*entities.MatchGroup) error
	GetByID(ctx context.Context, id int) (*entities.MatchGroup, error)
	Delete(ctx context.Context, id int) error

	// Member operations
	RemoveMember(ctx context.Context, groupID int, path string) error

	// Query operations
	GetByOperation(ctx context.Context, operationID string) ([]*entities.MatchGroup, error)
	GetPaginated(ctx context.Context, operationID string, offset, limit int) ([]*entities.MatchGroup, error)

	// Statistics operations
	Count(ctx context.Context, operationID string) (int, error)
	GetTotalDuplicatesSize(ctx context.Context, operationID string) (int64, error)

	// Cleanup operations
	DeleteByOperation(ctx context.Context, operationID string) error
}
