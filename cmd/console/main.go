package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/pollmaster/console/internal/api"
	"github.com/pollmaster/console/internal/config"
	"github.com/pollmaster/console/internal/domain"
	"github.com/pollmaster/console/internal/live"
	"github.com/pollmaster/console/internal/logging"
	"github.com/pollmaster/console/internal/session"
	"github.com/pollmaster/console/internal/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	build := version.Get()
	slog.Info("Console starting", "version", build.Version, "commit", build.Commit, "env", cfg.AppEnv, "api", cfg.APIBaseURL)

	store := session.NewFileStore(cfg.SessionFile)
	sessions := session.NewManager(store)

	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, sessions)
	sessions.SetExchanger(client)

	// Assign through the interface only when configured, so an unconfigured
	// subscriber stays a nil interface rather than a typed nil.
	var subscriber domain.LiveSubscriber
	if cfg.LiveURL != "" {
		subscriber = live.NewSubscriber(cfg.LiveURL, clock)
	}

	shell := NewShell(cfg, sessions, client, subscriber, clock, os.Stdin, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if err := shell.Run(ctx); err != nil {
		slog.Error("Shell error", "error", err)
		os.Exit(1)
	}
}
