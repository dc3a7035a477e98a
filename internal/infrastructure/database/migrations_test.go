package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	m := NewMigrator(db)

	version, err := m.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, m.LatestVersion())

	require.NoError(t, m.Run(ctx))
	require.NoError(t, m.Run(ctx))

	version, err = m.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.LatestVersion(), version)

	pending, err = m.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	for _, table := range []string{"progress", "match_groups", "match_group_members", "operation_errors", "comparison_results"} {
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table))
		assert.Equal(t, 1, n, table)
	}
}

func TestMigrator_Rollback(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	m := NewMigrator(db)
	require.NoError(t, m.Run(ctx))

	require.NoError(t, m.Rollback(ctx))
	version, err := m.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.LatestVersion()-1, version)

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='comparison_results'"))
	assert.Equal(t, 0, n)

	// Re-applies the dropped table
	require.NoError(t, m.Run(ctx))
	version, _ = m.CurrentVersion(ctx)
	assert.Equal(t, m.LatestVersion(), version)
}

func TestMigrator_Backup(t *testing.T) {
	ctx := context.Background()
	m := NewMigrator(newTestDB(t))
	require.NoError(t, m.Run(ctx))

	backup := filepath.Join(t.TempDir(), "backup.db")
	require.NoError(t, m.BackupDatabase(ctx, backup))

	copyDB, err := sqlx.Connect("sqlite3", backup)
	require.NoError(t, err)
	defer copyDB.Close()

	version, err := NewMigrator(copyDB).CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.LatestVersion(), version)
}
