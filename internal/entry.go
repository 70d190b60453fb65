// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/orgtasks/internal/api"
	"github.com/starford/orgtasks/internal/cache"
	"github.com/starford/orgtasks/internal/document"
	"github.com/starford/orgtasks/internal/index"
	"github.com/starford/orgtasks/internal/mcpserver"
	"github.com/starford/orgtasks/internal/sse"
	"github.com/starford/orgtasks/internal/storage"
	"github.com/starford/orgtasks/internal/taskservice"
)

// Engine is the opened task document with its index and caches.
type Engine struct {
	Service *taskservice.Service

	cfg       *Config
	logger    *slog.Logger
	doc       *document.Document
	db        *index.DB
	broker    *sse.Broker
	snapshots *cache.Snapshots
	sessions  *cache.Sessions
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Open prepares the document, the index and the service without starting
// any background work. Callers must Close the engine.
func Open(opts ...Option) (*Engine, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	return open(app.config, app.newLogger())
}

func open(cfg *Config, logger *slog.Logger) (*Engine, error) {
	logger.Info("Configuration loaded",
		slog.String("document_path", cfg.Document.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("file_lock", cfg.Document.Lock),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Document.Dir())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	doc := document.New(store, cfg.Document.Name(),
		document.WithFileLock(cfg.Document.Lock),
		document.WithLogger(logger))
	if err := doc.Ensure(); err != nil {
		return nil, fmt.Errorf("init document: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if _, err := index.Sync(db, doc, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		doc:       doc,
		db:        db,
		broker:    sse.NewBroker(2 * time.Second),
		snapshots: cache.NewSnapshots(cfg.Cache.TTL, time.Now),
		sessions:  cache.NewSessions(cfg.Cache.TTL, time.Now),
	}
	e.Service = taskservice.NewService(doc, e.snapshots, e.sessions,
		taskservice.WithIndex(db),
		taskservice.WithEvents(e.broker),
		taskservice.WithSettings(cfg.Tasks.Settings()),
		taskservice.WithLogger(logger),
	)
	return e, nil
}

// Close stops the broker and closes the index.
func (e *Engine) Close() error {
	e.broker.Close()
	return e.db.Close()
}

// background runs cache eviction and the document watcher until ctx ends.
func (e *Engine) background(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		cache.Run(ctx, e.cfg.Cache.SweepInterval, e.snapshots, e.sessions)
		return nil
	})

	docPath, err := filepath.Abs(e.cfg.Document.Path)
	if err != nil {
		docPath = e.cfg.Document.Path
	}
	g.Go(func() error {
		err := index.Watch(ctx, e.db, e.doc, docPath, e.logger, func(kind, path string) {
			e.logger.Debug("document event", slog.String("kind", kind), slog.String("path", path))
			e.broker.PublishDocumentChanged()
		})
		if err != nil {
			e.logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger()

	e, err := open(cfg, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	apiRouter := api.NewRouter(e.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, e.broker)

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
		if _, err := e.doc.Read(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"document unreadable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)
	e.background(gCtx, g)

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
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher and sweeper exit with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdio. Logs go to the configured output,
// which must not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger()

	e, err := open(app.config, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)
	e.background(gCtx, g)

	logger.Info("Starting MCP server on stdio")
	srv := mcpserver.New(e.Service, app.version)
	err = srv.ServeStdio()
	cancel()
	_ = g.Wait()
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
