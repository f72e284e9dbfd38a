package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/userdir/userdir/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	secret := "postgres://app:hunter2@db:5432/users"
	err := errors.New("dial " + secret + ": password=hunter2 rejected")

	msg := sanitizeError(err, secret, "")

	if strings.Contains(msg, "hunter2") {
		t.Errorf("sanitized message still contains password: %s", msg)
	}
	if !strings.Contains(msg, "postgres://app@db:5432/users") {
		t.Errorf("sanitized message lost the redacted URL: %s", msg)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"redis://:secret@localhost:6379/0", "redis://redacted@localhost:6379/0"},
		{"redis://localhost:6379", "redis://localhost:6379"},
	}

	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenStore_Memory(t *testing.T) {
	store, closeFn, err := openStore(context.Background(), &config.Config{StoreBackend: config.StoreMemory})
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer closeFn(context.Background())

	users, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 5 {
		t.Errorf("len = %d, want 5", len(users))
	}
}

func TestOpenStore_Unknown(t *testing.T) {
	if _, _, err := openStore(context.Background(), &config.Config{StoreBackend: "etcd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
