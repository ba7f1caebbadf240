package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/companionos/companiond/internal/auth"
	"github.com/companionos/companiond/internal/chat"
	"github.com/companionos/companiond/internal/config"
	"github.com/companionos/companiond/internal/gateway"
	"github.com/companionos/companiond/internal/provider"
	"github.com/companionos/companiond/internal/server"
	"github.com/companionos/companiond/internal/settings"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting companiond",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
	)

	// Open the settings store
	store, err := settings.OpenSQLite(cfg.SettingsPath)
	if err != nil {
		return fmt.Errorf("failed to open settings store: %w", err)
	}
	defer store.Close()
	slog.Info("opened settings store", "path", cfg.SettingsPath)

	settingsSvc, err := settings.NewService(store)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Build the provider adapter set
	registry := provider.NewRegistry(provider.Config{
		PollInterval: cfg.HordePollInterval,
		PollDeadline: cfg.HordePollDeadline,
	})
	probe := provider.NewStatusProbe(nil)

	gw := gateway.New(settingsSvc, registry, probe, slog.Default())
	chatSvc := chat.NewService(chat.DefaultLog(), gw, settingsSvc, 25)

	jwtManager := auth.NewJWTManager(&auth.JWTConfig{
		Secret: cfg.APISecret,
		Expiry: cfg.TokenTTL,
		Issuer: "companiond",
	})

	httpServer, err := server.NewHTTPServer(server.HTTPServerConfig{
		Host:           cfg.BindHost,
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: []string{cfg.AllowedOrigin},
		APISecret:      cfg.APISecret,
		JWT:            jwtManager,
		Gateway:        gw,
		Chat:           chatSvc,
		Settings:       settingsSvc,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	// Start server
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	gw.Cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// Ensure interfaces are satisfied at compile time
var (
	_ settings.Store   = (*settings.SQLiteStore)(nil)
	_ provider.Adapter = (*provider.Kobold)(nil)
	_ provider.Adapter = (*provider.Horde)(nil)
	_ provider.Adapter = (*provider.PaLM)(nil)
)
