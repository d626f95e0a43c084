package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	configloader "github.com/foxseedlab/debaide/external/config"
	"github.com/foxseedlab/debaide/external/discord"
	"github.com/foxseedlab/debaide/external/httpapi"
	judgeimpl "github.com/foxseedlab/debaide/external/judge"
	"github.com/foxseedlab/debaide/external/lock"
	repositoryimpl "github.com/foxseedlab/debaide/external/repository"
	storageimpl "github.com/foxseedlab/debaide/external/storage"
	transcriberimpl "github.com/foxseedlab/debaide/external/transcriber"
	webhookimpl "github.com/foxseedlab/debaide/external/webhook"
	"github.com/foxseedlab/debaide/internal/announce"
	"github.com/foxseedlab/debaide/internal/battle"
	"github.com/foxseedlab/debaide/internal/config"
	"github.com/foxseedlab/debaide/internal/practice"
	"github.com/foxseedlab/debaide/internal/topic"
	"github.com/foxseedlab/debaide/internal/user"
	"github.com/samber/do/v2"
)

const (
	seedTimeout     = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	seedTopics(injector)

	slog.Info("startup: starting http server")
	runServer(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	judgeimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	storageimpl.RegisterDI(injector)
	lock.RegisterDI(injector)
	discord.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	announce.RegisterDI(injector)
	user.RegisterDI(injector)
	topic.RegisterDI(injector)
	practice.RegisterDI(injector)
	battle.RegisterDI(injector)
	httpapi.RegisterDI(injector)

	return injector
}

func seedTopics(injector do.Injector) {
	topics, err := do.Invoke[*topic.Service](injector)
	if err != nil {
		slog.Error("failed to resolve topic service", "error", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()
	n, err := topics.SeedIfEmpty(ctx)
	if err != nil {
		slog.Error("failed to seed topics", "error", err)
		os.Exit(1)
	}
	if n > 0 {
		slog.Info("startup: seeded topic catalog", "count", n)
	}
}

func runServer(injector do.Injector) {
	srv, err := do.Invoke[*httpapi.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		if err := srv.Listen(); err != nil {
			slog.Error("http server stopped", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	slog.Info("dependencies shut down", "report", injector.Shutdown())
}
