// Package main is the entrypoint for the user directory service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/userdir/userdir/internal/cache"
	"github.com/userdir/userdir/internal/config"
	"github.com/userdir/userdir/internal/handler"
	"github.com/userdir/userdir/internal/metrics"
	"github.com/userdir/userdir/internal/repository"
	"github.com/userdir/userdir/internal/server"
	"github.com/userdir/userdir/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.LogLevel, cfg.LogFormat)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("backend", cfg.StoreBackend),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("store ready", "backend", cfg.StoreBackend)

	var (
		recorder       metrics.Recorder = metrics.NewNoop()
		metricsHandler *handler.MetricsHandler
	)
	if cfg.MetricsEnabled {
		inMemory := metrics.NewInMemory()
		recorder = inMemory
		metricsHandler = handler.NewMetricsHandler(inMemory)
	}

	userService := service.NewUserService(store, cfg.StrictValidation(), recorder)

	r := server.NewRouter(server.RouterConfig{
		Users:              handler.NewUserHandler(userService, logger),
		Health:             handler.NewHealthHandler(store, cfg.StoreBackend),
		Metrics:            metricsHandler,
		Logger:             logger,
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		IsDevelopment:      cfg.IsDevelopment(),
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.OnShutdown("store", closeStore)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreBackend,
		"validation", cfg.ValidationMode,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore builds the directory store selected by cfg.StoreBackend.
// The returned func releases its connections.
func openStore(ctx context.Context, cfg *config.Config) (service.Store, server.ShutdownFunc, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pg, err := repository.NewPostgres(ctx, cfg.DatabaseURL, cfg.UsersTable)
		if err != nil {
			return nil, nil, err
		}
		return pg, func(context.Context) error {
			pg.Close()
			return nil
		}, nil

	case config.StoreRedis:
		rdb, err := cache.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		list, err := cache.NewUserList(ctx, rdb, cfg.RedisListKey)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return list, func(context.Context) error { return list.Close() }, nil

	case config.StoreMemory:
		return repository.NewMemory(), func(context.Context) error { return nil }, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// initLogger initializes the slog logger and installs it as the default.
func initLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError strips connection-string secrets from err's message.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
