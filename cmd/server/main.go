package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gotrabandhus/internal/config"
	"gotrabandhus/internal/domain"
	"gotrabandhus/internal/handler"
	"gotrabandhus/internal/hub"
	"gotrabandhus/internal/logging"
	"gotrabandhus/internal/repository"
	"gotrabandhus/internal/repository/memory"
	"gotrabandhus/internal/repository/sqlite"
	"gotrabandhus/internal/service"
	"gotrabandhus/internal/watcher"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path, or \"memory\" (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	cfg, foundPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, *addr, *dbPath, *logLevel)

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err), zap.String("config", foundPath))
	}
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func applyFlags(cfg *config.Config, addr, dbPath, logLevel string) {
	if addr != "" {
		cfg.Server.Addr = addr
	}
	switch dbPath {
	case "":
	case "memory":
		cfg.Database.Driver = "memory"
		cfg.Database.Path = ""
	default:
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
}

func openRepository(cfg config.DatabaseConfig) (repository.Repository, error) {
	if cfg.Driver == "memory" {
		return memory.New(), nil
	}
	return sqlite.New(cfg.Path)
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting GotraBandhus server", zap.String("settings", cfg.Summary()))

	repo, err := openRepository(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event bus feeds the SSE hub
	eventBus := service.NewEventBus()
	sseHub := hub.New(logger)
	go sseHub.Run(ctx)

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case event := <-eventChan:
				sseHub.Broadcast(event.TreeID, event)
			case <-ctx.Done():
				return
			}
		}
	}()

	treeSvc := service.NewTreeService(repo, domain.UUIDGenerator{}, eventBus, logger.Named("service"), service.Options{
		ProtectRoot:  cfg.Tree.ProtectRoot,
		StrictImport: cfg.Tree.StrictImport,
	})

	if cfg.Seed.Path != "" {
		seeder := watcher.NewSeeder(treeSvc, cfg.Seed.Path, cfg.Seed.TreeID, cfg.Seed.Format, logger)
		if _, err := seeder.Load(ctx); err != nil {
			return err
		}
		if cfg.Seed.Watch {
			go func() {
				if err := seeder.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("seed watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	router := handler.NewRouter(handler.NewTreeHandler(treeSvc, logger.Named("http")), logger.Named("http"), handler.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Events:         sseHub,
		Metrics:        !cfg.Server.DisableMetrics,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("shutting down server")

	// Stop the hub first so open event streams end
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}
