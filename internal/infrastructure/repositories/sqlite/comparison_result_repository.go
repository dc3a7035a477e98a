package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/repositories"
	"log"

	"github.com/jmoiron/sqlx"
)

const comparisonColumns = `id, source_root, target_root, source_file_count, target_file_count,
		   duplicate_count, source_total_size, target_total_size, duplicate_size,
		   can_delete_target, duplication_percentage, duplicate_files, created_at, updated_at`

type ComparisonResultRepository struct {
	db *sqlx.DB
}

func NewComparisonResultRepository(db *sqlx.DB) repositories.ComparisonRepository {
	return &ComparisonResultRepository{db: db}
}

// CreateTables creates the necessary database tables
func (r *ComparisonResultRepository) CreateTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS comparison_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_root TEXT NOT NULL,
		target_root TEXT NOT NULL,
		source_file_count INTEGER DEFAULT 0,
		target_file_count INTEGER DEFAULT 0,
		duplicate_count INTEGER DEFAULT 0,
		source_total_size INTEGER DEFAULT 0,
		target_total_size INTEGER DEFAULT 0,
		duplicate_size INTEGER DEFAULT 0,
		can_delete_target BOOLEAN DEFAULT FALSE,
		duplication_percentage REAL DEFAULT 0.0,
		duplicate_files TEXT, -- JSON
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_comparison_results_roots ON comparison_results(source_root, target_root);
	CREATE INDEX IF NOT EXISTS idx_comparison_results_created_at ON comparison_results(created_at);
	`

	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *ComparisonResultRepository) Save(ctx context.Context, result *entities.ComparisonResult) error {
	log.Printf("💾 비교 결과 저장 - ID: %d, 중복 파일 수: %d", result.ID, len(result.DuplicateFiles))

	filesJSON, err := json.Marshal(result.DuplicateFiles)
	if err != nil {
		return err
	}

	if result.ID == 0 {
		query := `
		INSERT INTO comparison_results (
			source_root, target_root, source_file_count, target_file_count, duplicate_count,
			source_total_size, target_total_size, duplicate_size,
			can_delete_target, duplication_percentage, duplicate_files, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := r.db.ExecContext(ctx, query,
			result.SourceRoot, result.TargetRoot, result.SourceFileCount, result.TargetFileCount,
			result.DuplicateCount, result.SourceTotalSize, result.TargetTotalSize, result.DuplicateSize,
			result.CanDeleteTarget, result.DuplicationPercentage, string(filesJSON),
			result.CreatedAt, result.UpdatedAt,
		)
		if err != nil {
			log.Printf("❌ 비교 결과 삽입 실패: %v", err)
			return err
		}

		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		result.ID = int(id)
		return nil
	}

	query := `
	UPDATE comparison_results SET
		source_root = ?, target_root = ?, source_file_count = ?, target_file_count = ?,
		duplicate_count = ?, source_total_size = ?, target_total_size = ?, duplicate_size = ?,
		can_delete_target = ?, duplication_percentage = ?, duplicate_files = ?, updated_at = ?
	WHERE id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		result.SourceRoot, result.TargetRoot, result.SourceFileCount, result.TargetFileCount,
		result.DuplicateCount, result.SourceTotalSize, result.TargetTotalSize, result.DuplicateSize,
		result.CanDeleteTarget, result.DuplicationPercentage, string(filesJSON), result.UpdatedAt,
		result.ID,
	)
	if err != nil {
		log.Printf("❌ 비교 결과 업데이트 실패: %v", err)
	}
	return err
}

func (r *ComparisonResultRepository) GetByID(ctx context.Context, id int) (*entities.ComparisonResult, error) {
	query := `SELECT ` + comparisonColumns + ` FROM comparison_results WHERE id = ?`

	result, err := r.scanComparisonResult(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return result, err
}

func (r *ComparisonResultRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM comparison_results WHERE id = ?`, id)
	return err
}

// GetByRoots returns the latest comparison of the given pair of roots
func (r *ComparisonResultRepository) GetByRoots(ctx context.Context, sourceRoot, targetRoot string) (*entities.ComparisonResult, error) {
	query := `SELECT ` + comparisonColumns + `
	FROM comparison_results
	WHERE source_root = ? AND target_root = ?
	ORDER BY updated_at DESC, id DESC
	LIMIT 1
	`

	result, err := r.scanComparisonResult(r.db.QueryRowContext(ctx, query, sourceRoot, targetRoot))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return result, err
}

func (r *ComparisonResultRepository) GetRecentComparisons(ctx context.Context, limit int) ([]*entities.ComparisonResult, error) {
	query := `SELECT ` + comparisonColumns + `
	FROM comparison_results
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*entities.ComparisonResult, 0)
	for rows.Next() {
		result, err := r.scanComparisonResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

func (r *ComparisonResultRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comparison_results`).Scan(&count)
	return count, err
}

func (r *ComparisonResultRepository) scanComparisonResult(row rowScanner) (*entities.ComparisonResult, error) {
	var result entities.ComparisonResult
	var filesJSON sql.NullString

	err := row.Scan(
		&result.ID, &result.SourceRoot, &result.TargetRoot,
		&result.SourceFileCount, &result.TargetFileCount, &result.DuplicateCount,
		&result.SourceTotalSize, &result.TargetTotalSize, &result.DuplicateSize,
		&result.CanDeleteTarget, &result.DuplicationPercentage, &filesJSON,
		&result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if filesJSON.Valid && filesJSON.String != "" {
		if err := json.Unmarshal([]byte(filesJSON.String), &result.DuplicateFiles); err != nil {
			log.Printf("⚠️ 중복 파일 목록 파싱 실패 [%d]: %v", result.ID, err)
		}
	}
	if result.DuplicateFiles == nil {
		result.DuplicateFiles = make([]entities.Candidate, 0)
	}

	return &result, nil
}
