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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/rtfm/internal/api"
	"github.com/starford/rtfm/internal/contentsync"
	"github.com/starford/rtfm/internal/docservice"
	"github.com/starford/rtfm/internal/journal"
	"github.com/starford/rtfm/internal/logger"
	"github.com/starford/rtfm/internal/mcpserver"
	"github.com/starford/rtfm/internal/render"
	"github.com/starford/rtfm/internal/sse"
	"github.com/starford/rtfm/internal/storage"
	"github.com/starford/rtfm/internal/vcs"
	"github.com/starford/rtfm/internal/watcher"
	"github.com/starford/rtfm/internal/web"
)

const navThrottle = 2 * time.Second

// content bundles the collaborators every command needs.
type content struct {
	cfg    *Config
	logger *slog.Logger
	store  storage.Provider
	git    *vcs.Git
	docs   *docservice.Service
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

// setup builds the logger, the content directory and the document service.
func (app *application) setup() (*content, error) {
	cfg := app.config

	log := logger.New(app.logOutput, cfg.App.LogFormat, cfg.App.LogLevel)
	slog.SetDefault(log)

	if err := os.MkdirAll(cfg.Content.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	git := vcs.NewGit(vcs.GitConfig{
		Dir:     store.Root(),
		Repo:    cfg.Content.Repo,
		Branch:  cfg.Content.Branch,
		Token:   cfg.Content.Token,
		Timeout: cfg.Content.GitTimeout,
	})

	return &content{
		cfg:    cfg,
		logger: log,
		store:  store,
		git:    git,
		docs:   docservice.NewService(store, git, render.NewGoldmark(), log),
	}, nil
}

// openJournal opens the sync journal, or returns nil when it is disabled.
func (c *content) openJournal() (*journal.DB, error) {
	if c.cfg.Journal.Path == "" {
		return nil, nil
	}
	db, err := journal.Open(c.cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	return db, nil
}

func (c *content) syncer(db *journal.DB) *contentsync.Syncer {
	var rec contentsync.Recorder
	if db != nil {
		rec = db
	}
	return contentsync.New(c.store, c.git, rec, c.logger)
}

// Run starts the documentation server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.setup()
	if err != nil {
		return err
	}
	cfg, logger := c.cfg, c.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", c.store.Root()),
		slog.String("repo", c.git.Remote()),
		slog.String("branch", cfg.Content.Branch),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := c.openJournal()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	broker := sse.NewBroker(navThrottle)
	defer broker.Close()

	syncer := c.syncer(db)
	syncer.OnSynced(broker.PublishSync)
	if err := syncer.Init(ctx); err != nil {
		return fmt.Errorf("init content: %w", err)
	}

	apiOpts := api.Options{
		Docs:          c.docs,
		Site:          cfg.SiteConfig(),
		WebhookSecret: cfg.Webhook.Secret,
		Events:        broker,
	}
	if c.git.Configured() {
		apiOpts.Syncer = syncer
	}
	if db != nil {
		apiOpts.Runs = db
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	r.Mount("/api", api.NewRouter(apiOpts))
	r.Handle("/*", web.Handler())

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Live updates for connected browsers.
	g.Go(func() error {
		if err := watcher.Watch(gCtx, c.store.Root(), logger, broker.PublishDocChange); err != nil {
			logger.Warn("file watcher disabled", slog.String("error", err.Error()))
		}
		return nil
	})

	// Periodic pull, when configured.
	g.Go(func() error {
		syncer.Run(gCtx, cfg.Content.PullInterval)
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
		cancel()
		// Open event streams never go idle; end them first.
		broker.Close()

		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunSync clones or pulls the content repository once and exits.
func RunSync(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.setup()
	if err != nil {
		return err
	}
	db, err := c.openJournal()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	if err := c.syncer(db).Pull(ctx, contentsync.TriggerManual); err != nil {
		return fmt.Errorf("sync: %s", vcs.Redact(err.Error()))
	}
	return nil
}

// RunMCP serves the content directory to MCP clients over stdio. Logs go
// to stderr unless redirected, since stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	c, err := app.setup()
	if err != nil {
		return err
	}
	c.logger.Info("MCP server starting", slog.String("content_path", c.store.Root()))
	return mcpserver.New(c.cfg.Site.Title, app.version, c.docs).ServeStdio()
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
