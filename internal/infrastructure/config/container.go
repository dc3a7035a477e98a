package config

import (
	"context"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/repositories"
	"go-local-duplicates/internal/domain/services"
	"go-local-duplicates/internal/infrastructure/database"
	"go-local-duplicates/internal/infrastructure/repositories/sqlite"
	infraServices "go-local-duplicates/internal/infrastructure/services"
	"go-local-duplicates/internal/interfaces/controllers"
	"go-local-duplicates/internal/usecases"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Container holds all dependencies for the application
type Container struct {
	// Configuration
	Config *Config

	// Database
	DB       *sqlx.DB
	Migrator *database.Migrator

	// Repositories
	ProgressRepo         repositories.ProgressRepository
	MatchGroupRepo       repositories.MatchGroupRepository
	OperationErrorRepo   repositories.OperationErrorRepository
	ComparisonResultRepo repositories.ComparisonRepository

	// Services
	Scanner         services.Scanner
	Sorter          services.SizeSorter
	Comparator      services.ContentComparator
	Grouper         services.DuplicateGrouper
	Deleter         *infraServices.FileDeleter
	FolderCleaner   services.FolderCleaner
	ProgressService services.ProgressService

	// Use Cases
	DeletionPlanner         *usecases.DeletionPlanner
	FileScanningUseCase     *usecases.FileScanningUseCase
	DuplicateFindingUseCase *usecases.DuplicateFindingUseCase
	FolderComparisonUseCase *usecases.FolderComparisonUseCase
	FileCleanupUseCase      *usecases.FileCleanupUseCase

	// Controllers
	FileController       *controllers.FileController
	DuplicateController  *controllers.DuplicateController
	ComparisonController *controllers.ComparisonController
	CleanupController    *controllers.CleanupController
}

// NewContainer creates and initializes a new dependency injection container
func NewContainer(config *Config) (*Container, error) {
	container := &Container{
		Config: config,
	}

	if err := container.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := container.initializeRepositories(); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	container.initializeServices()

	if err := container.initializeUseCases(); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize use cases: %w", err)
	}

	container.initializeControllers()
	container.recoverProgress(context.Background())

	return container, nil
}

func (c *Container) initializeDatabase() error {
	path := c.Config.Database.Path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	var err error
	c.DB, err = sqlx.Connect("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	c.DB.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	c.DB.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	c.DB.SetConnMaxLifetime(c.Config.Database.GetMaxLifetime())
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database
		c.DB.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",  // 64MB cache
		"PRAGMA busy_timeout = 30000", // 30 second timeout
	}

	for _, pragma := range pragmas {
		if _, err := c.DB.Exec(pragma); err != nil {
			log.Printf("⚠️ pragma 설정 실패 %s: %v", pragma, err)
		}
	}

	return nil
}

func (c *Container) initializeRepositories() error {
	c.ProgressRepo = sqlite.NewProgressRepository(c.DB)
	c.MatchGroupRepo = sqlite.NewMatchGroupRepository(c.DB)
	c.OperationErrorRepo = sqlite.NewOperationErrorRepository(c.DB)
	c.ComparisonResultRepo = sqlite.NewComparisonResultRepository(c.DB)

	c.Migrator = database.NewMigrator(c.DB)
	if err := c.Migrator.Run(context.Background()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

func (c *Container) initializeServices() {
	verbose := strings.EqualFold(c.Config.Logging.Level, "debug")

	c.Scanner = infraServices.NewLocalScanner(verbose)
	c.Sorter = infraServices.NewSizeSorter()
	c.Comparator = infraServices.NewChunkComparator()
	c.Grouper = infraServices.NewBucketGrouper(c.Comparator)

	c.Deleter = infraServices.NewFileDeleter()
	c.FolderCleaner = infraServices.NewEmptyFolderCleaner()

	c.ProgressService = NewProgressService(c.ProgressRepo)
}

func (c *Container) initializeUseCases() error {
	settings, err := c.Config.MatchSettings("")
	if err != nil {
		return err
	}

	c.DeletionPlanner = usecases.NewDeletionPlanner(c.Deleter, c.Deleter)

	c.FileScanningUseCase = usecases.NewFileScanningUseCase(c.Scanner, c.ProgressService)
	c.FileScanningUseCase.SetConfiguration(settings, 10, c.Config.Processing.MaxStoredErrors)

	c.DuplicateFindingUseCase = usecases.NewDuplicateFindingUseCase(
		c.MatchGroupRepo,
		c.OperationErrorRepo,
		c.ProgressService,
		c.Scanner,
		c.Sorter,
		c.Grouper,
		c.DeletionPlanner,
	)
	c.DuplicateFindingUseCase.SetConfiguration(settings, c.Config.Processing.GetSaveInterval(), c.Config.Processing.MaxStoredErrors)

	c.FolderComparisonUseCase = usecases.NewFolderComparisonUseCase(
		c.ComparisonResultRepo,
		c.ProgressService,
		c.Scanner,
		c.Comparator,
	)
	c.FolderComparisonUseCase.SetConfiguration(settings.ChunkSize, settings.Recursive, settings.MinSize)

	c.FileCleanupUseCase = usecases.NewFileCleanupUseCase(c.MatchGroupRepo, c.ProgressService, c.DeletionPlanner, c.FolderCleaner)
	c.FileCleanupUseCase.SetConfiguration(settings.Ordering, c.Config.Deletion.MoveToTrash)

	return nil
}

func (c *Container) initializeControllers() {
	c.FileController = controllers.NewFileController(c.FileScanningUseCase)
	c.DuplicateController = controllers.NewDuplicateController(c.DuplicateFindingUseCase)
	c.ComparisonController = controllers.NewComparisonController(c.FolderComparisonUseCase)
	c.CleanupController = controllers.NewCleanupController(c.FileCleanupUseCase)
}

// recoverProgress prunes old records and fails the ones a previous process left running
func (c *Container) recoverProgress(ctx context.Context) {
	if days := c.Config.Processing.ProgressRetentionDays; days > 0 {
		deleted, err := c.ProgressRepo.DeleteOlderThan(ctx, days)
		if err != nil {
			log.Printf("⚠️ 오래된 진행 기록 정리 실패: %v", err)
		} else if deleted > 0 {
			log.Printf("🧹 오래된 진행 기록 %d개 삭제", deleted)
		}
	}

	for _, status := range []string{entities.StatusRunning, entities.StatusPending} {
		stale, err := c.ProgressRepo.GetByStatus(ctx, status)
		if err != nil {
			log.Printf("⚠️ 중단된 작업 조회 실패: %v", err)
			continue
		}
		for _, p := range stale {
			if err := c.ProgressService.FailOperation(ctx, p.ID, "서버 재시작으로 중단됨"); err != nil {
				log.Printf("⚠️ 중단된 작업 정리 실패 - ID: %d, Error: %v", p.ID, err)
			}
		}
	}
}

// Close properly shuts down all resources
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// CheckDatabaseHealth pings the database and reports its schema version
func (c *Container) CheckDatabaseHealth(ctx context.Context) (int, error) {
	if err := c.DB.PingContext(ctx); err != nil {
		return 0, err
	}
	return c.Migrator.CurrentVersion(ctx)
}

// NewProgressService creates a progress service backed by the progress repository
func NewProgressService(progressRepo repositories.ProgressRepository) services.ProgressService {
	return &progressService{
		progressRepo: progressRepo,
	}
}

// progressService implements services.ProgressService
type progressService struct {
	progressRepo repositories.ProgressRepository
}

func (ps *progressService) StartOperation(ctx context.Context, operationType, operationID string) (*entities.Progress, error) {
	progress := entities.NewProgress(operationType)
	progress.OperationID = operationID
	if err := ps.progressRepo.Save(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

func (ps *progressService) UpdateOperation(ctx context.Context, progress *entities.Progress) error {
	progress.LastUpdated = time.Now()
	return ps.progressRepo.Update(ctx, progress)
}

// finishWith loads a record, applies fn and stores it again
func (ps *progressService) finishWith(ctx context.Context, progressID int, name string, fn func(*entities.Progress)) error {
	progress, err := ps.GetProgress(ctx, progressID)
	if err != nil {
		log.Printf("❌ %s: 진행 상태 조회 실패 - ID: %d, Error: %v", name, progressID, err)
		return err
	}

	fn(progress)

	if err := ps.progressRepo.Update(ctx, progress); err != nil {
		log.Printf("❌ %s: 진행 상태 업데이트 실패 - ID: %d, Error: %v", name, progressID, err)
		return err
	}

	log.Printf("✅ %s 완료 - Progress ID: %d, Status: %s", name, progressID, progress.Status)
	return nil
}

func (ps *progressService) CompleteOperation(ctx context.Context, progressID int) error {
	return ps.finishWith(ctx, progressID, "CompleteOperation", func(p *entities.Progress) {
		p.UpdateStep("completed", "완료")
		p.Finish()
	})
}

func (ps *progressService) CancelOperation(ctx context.Context, progressID int) error {
	return ps.finishWith(ctx, progressID, "CancelOperation", func(p *entities.Progress) {
		p.Cancel()
	})
}

func (ps *progressService) FailOperation(ctx context.Context, progressID int, errorMessage string) error {
	return ps.finishWith(ctx, progressID, "FailOperation", func(p *entities.Progress) {
		p.Fail(errorMessage)
	})
}

func (ps *progressService) GetProgress(ctx context.Context, progressID int) (*entities.Progress, error) {
	progress, err := ps.progressRepo.GetByID(ctx, progressID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, fmt.Errorf("progress %d: %w", progressID, usecases.ErrNotFound)
	}
	return progress, nil
}

func (ps *progressService) GetByOperationID(ctx context.Context, operationID string) (*entities.Progress, error) {
	progress, err := ps.progressRepo.GetByOperationID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, fmt.Errorf("operation %q: %w", operationID, usecases.ErrNotFound)
	}
	return progress, nil
}

func (ps *progressService) GetRecentOperations(ctx context.Context, limit int) ([]*entities.Progress, error) {
	return ps.progressRepo.GetRecentOperations(ctx, limit)
}
