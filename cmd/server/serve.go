package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/storefront/internal/config"
	"github.com/storefront/internal/db"
	"github.com/storefront/internal/logging"
	"github.com/storefront/internal/prismic"
	"github.com/storefront/internal/router"
	"github.com/storefront/internal/service"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.UsesDevSecret() {
		logger.Warn("SESSION_SECRET is not set, preview sessions are signed with the built-in secret")
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	source, err := buildSource(cfg)
	if err != nil {
		return err
	}
	content, err := service.NewContentFactory(source, cfg.PageSize)
	if err != nil {
		return err
	}

	r, err := router.SetupRouter(cfg, content, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("content_source", cfg.ContentSource),
			zap.Strings("locales", cfg.ContentLocales),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildSource picks the content backend named by CONTENT_SOURCE.
func buildSource(cfg config.AppConfig) (prismic.Source, error) {
	switch cfg.ContentSource {
	case config.SourceLocal:
		if err := db.Init(cfg.DatabasePath); err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		return db.NewStore(db.DB), nil
	default:
		api, err := prismic.NewAPI(cfg.PrismicEndpoint, cfg.PrismicAccessToken, cfg.PrismicTimeout)
		if err != nil {
			return nil, err
		}
		return api, nil
	}
}
