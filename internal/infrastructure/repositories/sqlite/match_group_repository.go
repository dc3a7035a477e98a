package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/repositories"
	"strings"

	"github.com/jmoiron/sqlx"
)

type MatchGroupRepository struct {
	db *sqlx.DB
}

func NewMatchGroupRepository(db *sqlx.DB) repositories.MatchGroupRepository {
	return &MatchGroupRepository{db: db}
}

// CreateTables creates the necessary database tables
func (r *MatchGroupRepository) CreateTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS match_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation_id TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		member_count INTEGER NOT NULL,
		duplicates_size INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS match_group_members (
		group_id INTEGER NOT NULL,
		path TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (group_id, path),
		FOREIGN KEY (group_id) REFERENCES match_groups(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_match_groups_operation_id ON match_groups(operation_id);
	CREATE INDEX IF NOT EXISTS idx_match_groups_duplicates_size ON match_groups(duplicates_size);
	CREATE INDEX IF NOT EXISTS idx_match_group_members_group_id ON match_group_members(group_id);
	`

	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *MatchGroupRepository) Save(ctx context.Context, group *entities.MatchGroup) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.saveTx(ctx, tx, group); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveBatch stores all groups in a single transaction
func (r *MatchGroupRepository) SaveBatch(ctx context.Context, groups []*entities.MatchGroup) error {
	if len(groups) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, group := range groups {
		if err := r.saveTx(ctx, tx, group); err != nil {
			return fmt.Errorf("그룹 저장 실패 (size %d): %w", group.FileSize, err)
		}
	}

	return tx.Commit()
}

func (r *MatchGroupRepository) saveTx(ctx context.Context, tx *sqlx.Tx, group *entities.MatchGroup) error {
	if group.ID == 0 {
		query := `
		INSERT INTO match_groups (operation_id, file_size, member_count, duplicates_size, created_at)
		VALUES (?, ?, ?, ?, ?)
		`
		result, err := tx.ExecContext(ctx, query,
			group.OperationID, group.FileSize, group.Count(), group.DuplicatesSize(), group.CreatedAt)
		if err != nil {
			return err
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		group.ID = int(id)
	} else {
		query := `
		UPDATE match_groups
		SET operation_id = ?, file_size = ?, member_count = ?, duplicates_size = ?
		WHERE id = ?
		`
		_, err := tx.ExecContext(ctx, query,
			group.OperationID, group.FileSize, group.Count(), group.DuplicatesSize(), group.ID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM match_group_members WHERE group_id = ?", group.ID); err != nil {
			return err
		}
	}

	if len(group.Members) == 0 {
		return nil
	}

	query := "INSERT INTO match_group_members (group_id, path, position) VALUES "
	values := make([]string, len(group.Members))
	args := make([]interface{}, 0, len(group.Members)*3)

	for i, path := range group.Members {
		values[i] = "(?, ?, ?)"
		args = append(args, group.ID, path, i)
	}

	query += strings.Join(values, ", ")
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func (r *MatchGroupRepository) GetByID(ctx context.Context, id int) (*entities.MatchGroup, error) {
	query := `
	SELECT id, operation_id, file_size, created_at
	FROM match_groups WHERE id = ?
	`

	var group entities.MatchGroup
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID, &group.OperationID, &group.FileSize, &group.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	members, err := r.loadMembers(ctx, []int{group.ID})
	if err != nil {
		return nil, err
	}
	group.Members = members[group.ID]

	return &group, nil
}

func (r *MatchGroupRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM match_group_members WHERE group_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM match_groups WHERE id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveMember drops a single path from a group and refreshes its counters
func (r *MatchGroupRepository) RemoveMember(ctx context.Context, groupID int, path string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"DELETE FROM match_group_members WHERE group_id = ? AND path = ?", groupID, path)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("file %s not found in match group %d", path, groupID)
	}

	query := `
	UPDATE match_groups SET
		member_count = (SELECT COUNT(*) FROM match_group_members WHERE group_id = ?),
		duplicates_size = file_size * MAX((SELECT COUNT(*) FROM match_group_members WHERE group_id = ?) - 1, 0)
	WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, query, groupID, groupID, groupID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *MatchGroupRepository) GetByOperation(ctx context.Context, operationID string) ([]*entities.MatchGroup, error) {
	query := `
	SELECT id, operation_id, file_size, created_at
	FROM match_groups
	WHERE operation_id = ?
	ORDER BY id
	`
	return r.queryGroups(ctx, query, operationID)
}

func (r *MatchGroupRepository) GetPaginated(ctx context.Context, operationID string, offset, limit int) ([]*entities.MatchGroup, error) {
	query := `
	SELECT id, operation_id, file_size, created_at
	FROM match_groups
	WHERE operation_id = ?
	ORDER BY id
	LIMIT ? OFFSET ?
	`
	return r.queryGroups(ctx, query, operationID, limit, offset)
}

func (r *MatchGroupRepository) Count(ctx context.Context, operationID string) (int, error) {
	query := `SELECT COUNT(*) FROM match_groups WHERE operation_id = ?`
	var count int
	err := r.db.QueryRowContext(ctx, query, operationID).Scan(&count)
	return count, err
}

func (r *MatchGroupRepository) GetTotalDuplicatesSize(ctx context.Context, operationID string) (int64, error) {
	query := `SELECT COALESCE(SUM(duplicates_size), 0) FROM match_groups WHERE operation_id = ?`
	var total int64
	err := r.db.QueryRowContext(ctx, query, operationID).Scan(&total)
	return total, err
}

func (r *MatchGroupRepository) DeleteByOperation(ctx context.Context, operationID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
	DELETE FROM match_group_members
	WHERE group_id IN (SELECT id FROM match_groups WHERE operation_id = ?)
	`, operationID)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM match_groups WHERE operation_id = ?", operationID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *MatchGroupRepository) queryGroups(ctx context.Context, query string, args ...interface{}) ([]*entities.MatchGroup, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*entities.MatchGroup, 0)
	var ids []int
	for rows.Next() {
		var group entities.MatchGroup
		if err := rows.Scan(&group.ID, &group.OperationID, &group.FileSize, &group.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, &group)
		ids = append(ids, group.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return groups, nil
	}

	members, err := r.loadMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		group.Members = members[group.ID]
	}

	return groups, nil
}

// loadMembers fetches the member paths of several groups in insertion order
func (r *MatchGroupRepository) loadMembers(ctx context.Context, groupIDs []int) (map[int][]string, error) {
	query, args, err := sqlx.In(`
	SELECT group_id, path
	FROM match_group_members
	WHERE group_id IN (?)
	ORDER BY group_id, position
	`, groupIDs)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make(map[int][]string, len(groupIDs))
	for rows.Next() {
		var groupID int
		var path string
		if err := rows.Scan(&groupID, &path); err != nil {
			return nil, err
		}
		members[groupID] = append(members[groupID], path)
	}

	return members, rows.Err()
}
