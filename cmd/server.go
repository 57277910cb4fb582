package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/sander-remitly/knapsnack/internal/api"
	"github.com/sander-remitly/knapsnack/internal/cache"
	"github.com/sander-remitly/knapsnack/internal/logger"
	"github.com/sander-remitly/knapsnack/internal/models"
	"github.com/sander-remitly/knapsnack/internal/repo"
	"go.uber.org/zap"
)

// openRepository opens the inventory database and seeds it with the default
// bottles on first use.
func openRepository(path string) (*repo.Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repository, err := repo.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	empty, err := repository.IsEmpty()
	if err != nil {
		repository.Close()
		return nil, fmt.Errorf("failed to read bottles: %w", err)
	}
	if empty {
		logger.Log.Info("Initializing default bottle inventory...")
		if err := repository.SetBottles(models.GetDefaultBottles()); err != nil {
			repository.Close()
			return nil, fmt.Errorf("failed to set default bottles: %w", err)
		}
	}

	return repository, nil
}

// runServer starts the HTTP server and blocks until SIGINT or SIGTERM, then
// shuts down gracefully. mount may add extra routes to the API router.
func runServer(name string, mount func(*chi.Mux) error) error {
	defer logger.Sync()

	repository, err := openRepository(cfg.DBPath)
	if err != nil {
		return err
	}
	defer repository.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheInstance := cache.NewCache(ctx, cfg.Redis)
	defer cacheInstance.Close()

	handler := api.NewHandler(repository, cacheInstance, cfg)
	router := handler.SetupRouter()
	if mount != nil {
		if err := mount(router); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info(name+" starting",
			zap.String("url", fmt.Sprintf("http://localhost%s", addr)),
			zap.String("api", fmt.Sprintf("http://localhost%s/api", addr)),
			zap.String("health", fmt.Sprintf("http://localhost%s/api/health", addr)),
			zap.Bool("cache", cacheInstance.IsEnabled()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info("Server stopped")
	return nil
}
