package sqlite

import (
	"context"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/repositories"
	"strings"

	"github.com/jmoiron/sqlx"
)

// sqlite caps bound parameters per statement; keep inserts well below it
const errorInsertChunk = 150

type OperationErrorRepository struct {
	db *sqlx.DB
}

func NewOperationErrorRepository(db *sqlx.DB) repositories.OperationErrorRepository {
	return &OperationErrorRepository{db: db}
}

// CreateTables creates the necessary database tables
func (r *OperationErrorRepository) CreateTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS operation_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		path TEXT,
		message TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_operation_errors_operation_id ON operation_errors(operation_id);
	CREATE INDEX IF NOT EXISTS idx_operation_errors_kind ON operation_errors(kind);
	`

	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *OperationErrorRepository) SaveBatch(ctx context.Context, errs []*entities.OperationError) error {
	if len(errs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for start := 0; start < len(errs); start += errorInsertChunk {
		end := start + errorInsertChunk
		if end > len(errs) {
			end = len(errs)
		}
		chunk := errs[start:end]

		query := "INSERT INTO operation_errors (operation_id, kind, path, message, created_at) VALUES "
		values := make([]string, len(chunk))
		args := make([]interface{}, 0, len(chunk)*5)
		for i, e := range chunk {
			values[i] = "(?, ?, ?, ?, ?)"
			args = append(args, e.OperationID, e.Kind, e.Path, e.Message, e.CreatedAt)
		}

		query += strings.Join(values, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OperationErrorRepository) GetByOperation(ctx context.Context, operationID string, limit int) ([]*entities.OperationError, error) {
	query := `
	SELECT id, operation_id AS operationid, kind, COALESCE(path, '') AS path,
		   message, created_at AS createdat
	FROM operation_errors
	WHERE operation_id = ?
	ORDER BY id
	LIMIT ?
	`

	var errs []*entities.OperationError
	if err := r.db.SelectContext(ctx, &errs, query, operationID, limit); err != nil {
		return nil, err
	}
	if errs == nil {
		errs = make([]*entities.OperationError, 0)
	}
	return errs, nil
}

func (r *OperationErrorRepository) CountByKind(ctx context.Context, operationID string) (map[string]int, error) {
	query := `SELECT kind, COUNT(*) FROM operation_errors WHERE operation_id = ? GROUP BY kind`
	rows, err := r.db.QueryContext(ctx, query, operationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		result[kind] = count
	}

	return result, rows.Err()
}

func (r *OperationErrorRepository) DeleteByOperation(ctx context.Context, operationID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM operation_errors WHERE operation_id = ?`, operationID)
	return err
}
