package repositories

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
)

// OperationErrorRepository stores the non-fatal errors of an operation
type OperationErrorRepository interface {
	SaveBatch(ctx context.Context, errs []*entities.OperationError) error
	GetByOperation(ctx context.Context, operationID string, limit int) ([]*entities.OperationError, error)
	CountByKind(ctx context.Context, operationID string) (map[string]int, error)
	DeleteByOperation(ctx context.Context, operationID string) error
}
