package config

import (
	"context"
	"fmt"
	"go-local-duplicates/internal/interfaces/middleware"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Application represents the main application
type Application struct {
	container *Container
	server    *http.Server
	config    *Config
}

// route is one API endpoint
type route struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
	handler     http.HandlerFunc
}

// NewApplication creates a new application instance
func NewApplication(configPath string) (*Application, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	container, err := NewContainer(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	return newApplication(config, container), nil
}

func newApplication(config *Config, container *Container) *Application {
	app := &Application{
		container: container,
		config:    config,
		server: &http.Server{
			Addr:         config.GetAddress(),
			ReadTimeout:  config.Server.GetReadTimeout(),
			WriteTimeout: config.Server.GetWriteTimeout(),
			IdleTimeout:  config.Server.GetIdleTimeout(),
		},
	}
	app.server.Handler = app.routes()
	return app
}

func (app *Application) apiRoutes() []route {
	c := app.container
	return []route{
		{http.MethodPost, "/api/scan", "Scan a directory and return statistics", c.FileController.ScanFiles},

		{http.MethodPost, "/api/duplicates/find", "Start a background duplicate search", c.DuplicateController.FindDuplicates},
		{http.MethodGet, "/api/duplicates/progress", "Persisted progress by id or operationId", c.DuplicateController.GetDuplicateProgress},
		{http.MethodGet, "/api/duplicates/live", "Live counters of a running search", c.DuplicateController.GetLiveSnapshot},
		{http.MethodPost, "/api/duplicates/cancel", "Cancel a running search", c.DuplicateController.CancelOperation},
		{http.MethodGet, "/api/duplicates/groups", "Paginated groups of an operation", c.DuplicateController.GetMatchGroups},
		{http.MethodGet, "/api/duplicates/group", "One group by id", c.DuplicateController.GetMatchGroup},
		{http.MethodDelete, "/api/duplicates/group/delete", "Forget a group, files stay on disk", c.DuplicateController.DeleteMatchGroup},
		{http.MethodGet, "/api/duplicates/errors", "Recorded non-fatal errors of an operation", c.DuplicateController.GetOperationErrors},
		{http.MethodGet, "/api/operations/recent", "Recent progress records", c.DuplicateController.GetRecentOperations},

		{http.MethodPost, "/api/cleanup/preview", "Deletion plan for groups", c.CleanupController.PreviewDeletion},
		{http.MethodPost, "/api/cleanup/duplicates", "Delete all but one member of each group", c.CleanupController.DeleteDuplicates},
		{http.MethodPost, "/api/cleanup/folders", "Remove empty folders below a root", c.CleanupController.CleanupEmptyFolders},
		{http.MethodGet, "/api/cleanup/progress", "Cleanup progress", c.CleanupController.GetCleanupProgress},

		{http.MethodPost, "/api/compare/folders", "Compare a target directory against a source", c.ComparisonController.CompareFolders},
		{http.MethodGet, "/api/compare/progress", "Comparison progress", c.ComparisonController.GetComparisonProgress},
		{http.MethodGet, "/api/compare/results", "Recent comparisons", c.ComparisonController.GetRecentComparisons},
		{http.MethodGet, "/api/compare/result/load", "Stored comparison for two roots", c.ComparisonController.LoadSavedComparison},
		{http.MethodPost, "/api/compare/result/delete", "Delete a stored comparison", c.ComparisonController.DeleteComparisonResult},
	}
}

// routes configures all HTTP routes and middleware
func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", app.handleHealth)
	mux.HandleFunc("/health/db", app.handleDBHealth)

	for _, rt := range app.apiRoutes() {
		mux.HandleFunc(rt.Path, rt.handler)
	}

	mux.HandleFunc("/", app.handleIndex)

	return app.applyMiddleware(mux.ServeHTTP)
}

// applyMiddleware wraps the mux, outermost first
func (app *Application) applyMiddleware(handler http.HandlerFunc) http.Handler {
	chain := []middleware.Middleware{
		middleware.ErrorHandlerMiddleware,
		middleware.SecurityHeadersMiddleware,
	}

	if app.config.Security.EnableCORS {
		chain = append(chain, middleware.CORSMiddleware(app.config.Security.AllowedOrigins))
	}
	if app.config.Security.EnableRateLimit {
		chain = append(chain, middleware.RateLimitMiddleware(app.config.Security.RateLimit))
	}

	chain = append(chain, middleware.RequestIDMiddleware)

	switch {
	case app.config.Logging.Format == "json":
		chain = append(chain, middleware.APILoggingMiddleware)
	case app.config.IsDevelopment():
		chain = append(chain, middleware.DetailedLoggingMiddleware)
	default:
		chain = append(chain, middleware.LoggingMiddleware)
	}

	chain = append(chain, middleware.ValidationMiddleware)

	return middleware.Chain(handler, chain...)
}

// Run starts the application and blocks until SIGINT or SIGTERM
func (app *Application) Run() error {
	log.Printf("🚀 서버 시작: %s", app.server.Addr)
	log.Printf("📊 환경: %s", app.config.environment())
	log.Printf("🗄️  데이터베이스: %s", app.config.Database.Path)
	log.Printf("🔧 청크 크기: %s, 워커: %d", app.config.Matching.ChunkSize, app.config.Matching.Workers)
	if app.config.IsProduction() && app.config.Security.EnableCORS {
		for _, origin := range app.config.Security.AllowedOrigins {
			if origin == "*" {
				log.Printf("⚠️ 운영 환경에서 모든 Origin을 허용하고 있습니다")
			}
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		var err error
		if app.config.Server.EnableTLS {
			log.Printf("🔒 HTTPS 서버 시작")
			err = app.server.ListenAndServeTLS(app.config.Server.CertFile, app.config.Server.KeyFile)
		} else {
			log.Printf("🌐 HTTP 서버 시작")
			err = app.server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
		log.Printf("📴 서버 종료 중...")
	case err := <-errCh:
		log.Printf("❌ 서버 오류: %v", err)
		app.container.Close()
		return err
	}

	return app.Shutdown()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		log.Printf("❌ 서버 종료 실패: %v", err)
	}

	if err := app.container.Close(); err != nil {
		log.Printf("❌ 리소스 정리 실패: %v", err)
		return err
	}

	log.Printf("✅ 서버가 정상적으로 종료되었습니다")
	return nil
}

// Health check handlers

func (app *Application) handleHealth(w http.ResponseWriter, r *http.Request) {
	middleware.SendJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (app *Application) handleDBHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	version, err := app.container.CheckDatabaseHealth(ctx)
	if err != nil {
		middleware.SendJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	middleware.SendJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "healthy",
		"service":       "database",
		"schemaVersion": version,
	})
}

// handleIndex lists the API
func (app *Application) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		middleware.SendJSONError(w, middleware.ErrNotFound, http.StatusNotFound)
		return
	}

	middleware.SendJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "dupfind",
		"environment": app.config.environment(),
		"routes":      app.apiRoutes(),
	})
}
