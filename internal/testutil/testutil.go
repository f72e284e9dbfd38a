// Package testutil holds helpers shared by unit and integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/userdir/userdir/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// DropUsersTable removes a users table so the next store starts from seed.
func DropUsersTable(ctx context.Context, pool *pgxpool.Pool, table string) error {
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(table)); err != nil {
		return fmt.Errorf("drop users table: %w", err)
	}
	return nil
}

// DeleteRedisKeys removes the given keys. Test data lives under unique keys,
// so the shared database is never flushed.
func DeleteRedisKeys(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

var idCounter atomic.Int64

// UniqueID returns an ID that does not collide with the seed users or with
// other IDs handed out in the same test binary.
func UniqueID() int64 {
	return 1000 + idCounter.Add(1)
}

// NewTestUser creates a user with a unique ID.
func NewTestUser(t testing.TB, name string) model.User {
	t.Helper()
	return model.User{ID: UniqueID(), Name: name}
}

// UniqueName generates a unique table or key name for tests.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}
