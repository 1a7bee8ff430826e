// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/climap/internal/api"
	"github.com/starford/climap/internal/index"
	"github.com/starford/climap/internal/mcpserver"
	"github.com/starford/climap/internal/sse"
	"github.com/starford/climap/internal/validate"
	"github.com/starford/climap/internal/watcher"
)

var errConfigRequired = errors.New("config is required")

// Run starts the HTTP server together with the database validator and the
// crossref importer, and blocks until ctx is cancelled or a signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stdout, cfg.App.LogLevel)
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Data.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	comps, err := Open(cfg, logger, true)
	if err != nil {
		return err
	}
	defer comps.Close()

	databasePath, err := comps.Store.Abs(cfg.Data.Database)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	crossrefPath, err := comps.Store.Abs(cfg.Data.CrossrefOutput)
	if err != nil {
		return fmt.Errorf("resolve crossref path: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(comps.Catalog, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := comps.Catalog.Document(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Revalidate the package database on every change.
	g.Go(func() error {
		v := comps.Catalog.Validator(false)
		err := validate.Watch(gCtx, databasePath, v, logger, func(path string, rep *validate.Report) {
			logger.Info("database validated",
				slog.String("status", rep.Status()),
				slog.Int("errors", rep.Count(validate.SeverityError)),
				slog.Int("warnings", rep.Count(validate.SeverityWarning)))
			broker.PublishValidation(validationSummary(cfg.Data.Database, rep))
		})
		if err != nil {
			logger.Warn("database watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Import every crossref output written into the data directory.
	g.Go(func() error {
		err := watcher.Watch(gCtx, crossrefPath, logger, watcher.Options{Initial: true}, func() {
			runID, added, err := index.Import(comps.DB, comps.Store, cfg.Data.CrossrefOutput, logger)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				logger.Debug("no crossref output yet", slog.String("path", cfg.Data.CrossrefOutput))
			case err != nil:
				logger.Warn("crossref import failed", slog.String("error", err.Error()))
			case added:
				broker.PublishRun(runID)
			}
		})
		if err != nil {
			logger.Warn("crossref watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Stop the watchers.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stderr, app.config.App.LogLevel)
	}
	slog.SetDefault(logger)

	comps, err := Open(app.config, logger, true)
	if err != nil {
		return err
	}
	defer comps.Close()

	logger.Info("MCP server starting", slog.String("data_dir", app.config.Data.Dir))
	return mcpserver.New(comps.Catalog, app.version).ServeStdio()
}

func validationSummary(path string, rep *validate.Report) sse.ValidationSummary {
	return sse.ValidationSummary{
		Path:     path,
		Status:   rep.Status(),
		Packages: rep.Stats.Total,
		Errors:   rep.Count(validate.SeverityError),
		Warnings: rep.Count(validate.SeverityWarning),
		Infos:    rep.Count(validate.SeverityInfo),
	}
}
