// Package main is the interactive directory client.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/userdir/userdir/internal/client"
	"github.com/userdir/userdir/internal/config"
	"github.com/userdir/userdir/internal/console"
	"github.com/userdir/userdir/internal/directory"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// stdout belongs to the console.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.DirectoryURL, client.WithTimeout(cfg.RequestTimeout))
	dir := directory.New(api,
		directory.WithStaleTime(cfg.CacheStaleTime),
		directory.WithLogger(logger),
	)

	logger.Info("directory client started", "url", api.BaseURL())

	if err := console.New(dir, os.Stdout).Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		logger.Error("console error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
