package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/repositories"
	"time"

	"github.com/jmoiron/sqlx"
)

const progressColumns = `id, operation_id, operation_type, current_value, max_value, complete, status, current_step,
		   message, error_message, start_time, end_time, last_updated, metadata`

type ProgressRepository struct {
	db *sqlx.DB
}

func NewProgressRepository(db *sqlx.DB) repositories.ProgressRepository {
	return &ProgressRepository{db: db}
}

// CreateTables creates the necessary database tables
func (r *ProgressRepository) CreateTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS progress (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation_id TEXT DEFAULT '',
		operation_type TEXT NOT NULL,
		current_value INTEGER DEFAULT 0,
		max_value INTEGER DEFAULT 0,
		complete BOOLEAN DEFAULT FALSE,
		status TEXT DEFAULT 'pending',
		current_step TEXT,
		message TEXT,
		error_message TEXT,
		start_time DATETIME DEFAULT CURRENT_TIMESTAMP,
		end_time DATETIME,
		last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
		metadata TEXT -- JSON
	);

	CREATE INDEX IF NOT EXISTS idx_progress_operation_id ON progress(operation_id);
	CREATE INDEX IF NOT EXISTS idx_progress_operation_type ON progress(operation_type);
	CREATE INDEX IF NOT EXISTS idx_progress_status ON progress(status);
	CREATE INDEX IF NOT EXISTS idx_progress_start_time ON progress(start_time);
	`

	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *ProgressRepository) Save(ctx context.Context, progress *entities.Progress) error {
	metadataJSON, err := json.Marshal(progress.Metadata)
	if err != nil {
		return err
	}

	if progress.ID == 0 {
		query := `
		INSERT INTO progress (
			operation_id, operation_type, current_value, max_value, complete, status, current_step,
			message, error_message, start_time, end_time, last_updated, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		result, err := r.db.ExecContext(ctx, query,
			progress.OperationID, progress.OperationType, progress.Current, progress.Max,
			progress.Complete, progress.Status, progress.CurrentStep, progress.Message,
			progress.ErrorMessage, progress.StartTime, progress.EndTime, progress.LastUpdated,
			string(metadataJSON),
		)
		if err != nil {
			return err
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		progress.ID = int(id)
		return nil
	}

	query := `
	UPDATE progress SET
		operation_id = ?, operation_type = ?, current_value = ?, max_value = ?, complete = ?,
		status = ?, current_step = ?, message = ?, error_message = ?,
		start_time = ?, end_time = ?, last_updated = ?, metadata = ?
	WHERE id = ?
	`

	_, err = r.db.ExecContext(ctx, query,
		progress.OperationID, progress.OperationType, progress.Current, progress.Max,
		progress.Complete, progress.Status, progress.CurrentStep, progress.Message,
		progress.ErrorMessage, progress.StartTime, progress.EndTime, progress.LastUpdated,
		string(metadataJSON), progress.ID,
	)
	return err
}

func (r *ProgressRepository) GetByID(ctx context.Context, id int) (*entities.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM progress WHERE id = ?`

	progress, err := r.scanProgress(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return progress, err
}

// GetByOperationID returns the most recent progress record of an operation
func (r *ProgressRepository) GetByOperationID(ctx context.Context, operationID string) (*entities.Progress, error) {
	query := `SELECT ` + progressColumns + `
	FROM progress
	WHERE operation_id = ?
	ORDER BY id DESC
	LIMIT 1
	`

	progress, err := r.scanProgress(r.db.QueryRowContext(ctx, query, operationID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return progress, err
}

func (r *ProgressRepository) Update(ctx context.Context, progress *entities.Progress) error {
	return r.Save(ctx, progress)
}

func (r *ProgressRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM progress WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *ProgressRepository) GetByStatus(ctx context.Context, status string) ([]*entities.Progress, error) {
	query := `SELECT ` + progressColumns + `
	FROM progress
	WHERE status = ?
	ORDER BY start_time DESC
	`
	return r.queryProgress(ctx, query, status)
}

func (r *ProgressRepository) GetRecentOperations(ctx context.Context, limit int) ([]*entities.Progress, error) {
	query := `SELECT ` + progressColumns + `
	FROM progress
	ORDER BY start_time DESC, id DESC
	LIMIT ?
	`
	return r.queryProgress(ctx, query, limit)
}

func (r *ProgressRepository) DeleteOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	query := `DELETE FROM progress WHERE start_time < ?`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	count, _ := result.RowsAffected()
	return int(count), nil
}

func (r *ProgressRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM progress GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}

	return result, rows.Err()
}

func (r *ProgressRepository) queryProgress(ctx context.Context, query string, args ...interface{}) ([]*entities.Progress, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progressList []*entities.Progress
	for rows.Next() {
		progress, err := r.scanProgress(rows)
		if err != nil {
			return nil, err
		}
		progressList = append(progressList, progress)
	}

	return progressList, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Helper method to scan a progress row
func (r *ProgressRepository) scanProgress(row rowScanner) (*entities.Progress, error) {
	var progress entities.Progress
	var endTime sql.NullTime
	var operationID, currentStep, message, errorMessage sql.NullString
	var startTime, lastUpdated time.Time
	var metadataJSON sql.NullString

	err := row.Scan(
		&progress.ID, &operationID, &progress.OperationType, &progress.Current,
		&progress.Max, &progress.Complete, &progress.Status, &currentStep,
		&message, &errorMessage, &startTime, &endTime, &lastUpdated, &metadataJSON,
	)
	if err != nil {
		return nil, err
	}

	progress.OperationID = operationID.String
	progress.CurrentStep = currentStep.String
	progress.Message = message.String
	progress.ErrorMessage = errorMessage.String
	progress.StartTime = startTime
	progress.LastUpdated = lastUpdated
	if endTime.Valid {
		progress.EndTime = &endTime.Time
	}

	// Parse metadata JSON
	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &progress.Metadata); err != nil {
			return nil, err
		}
	}
	if progress.Metadata == nil {
		progress.Metadata = make(map[string]interface{})
	}

	return &progress, nil
}
