package database

import (
	"context"
	"database/sql"
	"fmt"
	"go-local-duplicates/internal/infrastructure/repositories/sqlite"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *sqlx.DB) error
	Down        func(context.Context, *sqlx.DB) error
}

// Migrator handles database migrations
type Migrator struct {
	db         *sqlx.DB
	migrations []Migration
}

// NewMigrator creates a new database migrator
func NewMigrator(db *sqlx.DB) *Migrator {
	migrator := &Migrator{
		db:         db,
		migrations: []Migration{},
	}

	migrator.addMigrations()
	return migrator
}

type tableCreator interface {
	CreateTables(ctx context.Context) error
}

func createWith(repo interface{}) func(context.Context, *sqlx.DB) error {
	return func(ctx context.Context, _ *sqlx.DB) error {
		return repo.(tableCreator).CreateTables(ctx)
	}
}

func dropTables(tables ...string) func(context.Context, *sqlx.DB) error {
	return func(ctx context.Context, db *sqlx.DB) error {
		for _, table := range tables {
			if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return err
			}
		}
		return nil
	}
}

// addMigrations adds all migration definitions.
// Table layouts live with their repositories so both paths create the same schema.
func (m *Migrator) addMigrations() {
	m.migrations = append(m.migrations,
		Migration{
			Version:     1,
			Description: "Create schema_migrations table",
			Up: func(ctx context.Context, db *sqlx.DB) error {
				query := `
					CREATE TABLE IF NOT EXISTS schema_migrations (
						version INTEGER PRIMARY KEY,
						description TEXT NOT NULL,
						applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
					)
				`
				_, err := db.ExecContext(ctx, query)
				return err
			},
			Down: dropTables("schema_migrations"),
		},
		Migration{
			Version:     2,
			Description: "Create progress table",
			Up:          createWith(sqlite.NewProgressRepository(m.db)),
			Down:        dropTables("progress"),
		},
		Migration{
			Version:     3,
			Description: "Create match group tables",
			Up:          createWith(sqlite.NewMatchGroupRepository(m.db)),
			Down:        dropTables("match_group_members", "match_groups"),
		},
		Migration{
			Version:     4,
			Description: "Create operation_errors table",
			Up:          createWith(sqlite.NewOperationErrorRepository(m.db)),
			Down:        dropTables("operation_errors"),
		},
		Migration{
			Version:     5,
			Description: "Create comparison_results table",
			Up:          createWith(sqlite.NewComparisonResultRepository(m.db)),
			Down:        dropTables("comparison_results"),
		},
	)
}

// Run executes all pending migrations
func (m *Migrator) Run(ctx context.Context) error {
	log.Println("🔄 데이터베이스 마이그레이션 시작...")

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	log.Printf("📊 현재 스키마 버전: %d", currentVersion)

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		log.Printf("⬆️  마이그레이션 %d 적용: %s", migration.Version, migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if err := m.recordMigration(ctx, migration.Version, migration.Description); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		log.Printf("✅ 마이그레이션 %d 완료", migration.Version)
	}

	newVersion, _ := m.CurrentVersion(ctx)
	log.Printf("🎉 마이그레이션 완료. 스키마 버전: %d", newVersion)

	return nil
}

// Rollback reverts the most recently applied migration
func (m *Migrator) Rollback(ctx context.Context) error {
	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if currentVersion <= 1 {
		return fmt.Errorf("nothing to roll back (version %d)", currentVersion)
	}

	for _, migration := range m.migrations {
		if migration.Version != currentVersion {
			continue
		}
		log.Printf("⬇️  마이그레이션 %d 되돌리기: %s", migration.Version, migration.Description)
		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("rollback of migration %d failed: %w", migration.Version, err)
		}
		_, err := m.db.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", migration.Version)
		return err
	}

	return fmt.Errorf("unknown schema version %d", currentVersion)
}

// CurrentVersion returns the current schema version, 0 for a fresh database
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows || strings.Contains(err.Error(), "no such table") {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

// Pending lists the migrations that Run would apply
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

// LatestVersion is the version a fully migrated database reports
func (m *Migrator) LatestVersion() int {
	return m.migrations[len(m.migrations)-1].Version
}

func (m *Migrator) recordMigration(ctx context.Context, version int, description string) error {
	query := "INSERT INTO schema_migrations (version, description) VALUES (?, ?)"
	_, err := m.db.ExecContext(ctx, query, version, description)
	return err
}

// BackupDatabase creates a copy of the current database with VACUUM INTO
func (m *Migrator) BackupDatabase(ctx context.Context, backupPath string) error {
	log.Printf("💾 데이터베이스 백업 생성: %s", backupPath)

	query := fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(backupPath, "'", "''"))
	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create database backup: %w", err)
	}

	log.Printf("✅ 데이터베이스 백업 완료")
	return nil
}
