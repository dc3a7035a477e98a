package main

import (
	"context"
	"fmt"
	"go-local-duplicates/internal/infrastructure/database"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/urfave/cli/v2"
)

const defaultDBPath = "./data/dupfind.db"

func main() {
	app := cli.App{
		Name:  "dupfind-migrate",
		Usage: "manage the dupfind SQLite schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "path to the SQLite database file",
				Value:   defaultDBPath,
				EnvVars: []string{"DUPFIND_DATABASE_PATH"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "abort after this long",
				Value: 5 * time.Minute,
			},
		},
		Commands: []*cli.Command{{
			Name:  "up",
			Usage: "apply all pending migrations",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "backup",
					Usage: "copy the database before migrating",
					Value: true,
				},
				&cli.StringFlag{
					Name:  "backup-path",
					Usage: "backup file (default: dupfind_backup_<timestamp>.db)",
				},
			},
			Action: withMigrator(func(ctx context.Context, m *database.Migrator, c *cli.Context) error {
				pending, err := m.Pending(ctx)
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					log.Println("✅ 적용할 마이그레이션이 없습니다")
					return nil
				}
				if c.Bool("backup") {
					if err := m.BackupDatabase(ctx, backupPath(c.String("backup-path"))); err != nil {
						return err
					}
				}
				return m.Run(ctx)
			}),
		}, {
			Name:    "status",
			Aliases: []string{"version"},
			Usage:   "show the schema version and pending migrations",
			Action: withMigrator(func(ctx context.Context, m *database.Migrator, c *cli.Context) error {
				current, err := m.CurrentVersion(ctx)
				if err != nil {
					return err
				}
				pending, err := m.Pending(ctx)
				if err != nil {
					return err
				}

				fmt.Printf("schema version: %d (latest %d)\n", current, m.LatestVersion())
				for _, migration := range pending {
					fmt.Printf("  pending %d: %s\n", migration.Version, migration.Description)
				}
				return nil
			}),
		}, {
			Name:      "backup",
			Usage:     "copy the database to the given path",
			ArgsUsage: "<path>",
			Action: withMigrator(func(ctx context.Context, m *database.Migrator, c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.Exit("backup requires exactly one path", 2)
				}
				return m.BackupDatabase(ctx, c.Args().First())
			}),
		}, {
			Name:  "rollback",
			Usage: "revert the most recent migration",
			Action: withMigrator(func(ctx context.Context, m *database.Migrator, c *cli.Context) error {
				return m.Rollback(ctx)
			}),
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func backupPath(custom string) string {
	if custom != "" {
		return custom
	}
	return fmt.Sprintf("dupfind_backup_%s.db", time.Now().Format("20060102_150405"))
}

// withMigrator opens the database named by --db for the duration of one command
func withMigrator(f func(context.Context, *database.Migrator, *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		path := c.String("db")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("database file does not exist: %s", path)
		}

		db, err := sqlx.Connect("sqlite3", path)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		// Migrations run on a single connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		defer cancel()

		return f(ctx, database.NewMigrator(db), c)
	}
}
