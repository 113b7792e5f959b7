// Command folio-devapi serves the in-memory portfolio API for local
// frontend development.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devfolio/portfolio-sync/internal/config"
	"github.com/devfolio/portfolio-sync/internal/fakeapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	slog.Info("starting folio-devapi",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	server := fakeapi.NewServer(fakeapi.Options{
		JWTSecret:      cfg.Server.JWTSecret,
		TokenTTL:       cfg.Server.TokenTTL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	if cfg.Server.SeedDir != "" {
		if _, err := server.LoadSeedDir(cfg.Server.SeedDir); err != nil {
			slog.Warn("failed to load seed accounts", "dir", cfg.Server.SeedDir, "error", err)
		}
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("folio-devapi stopped")
}
