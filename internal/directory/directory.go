// Package directory is the client-side view of the user directory: reads go
// through a query cache under the "users" key and a successful append
// invalidates that key so the next read refetches from the service.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/userdir/userdir/internal/model"
	"github.com/userdir/userdir/internal/querycache"
)

// UsersKey is the cache key for the directory listing.
const UsersKey = "users"

// Source is the remote directory. *client.Client satisfies it.
type Source interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	AppendUser(ctx context.Context, user model.User) (model.User, error)
}

// Result is what a view renders: loading, an error, or the user list.
type Result struct {
	Status querycache.Status
	Users  []model.User
	Err    error
}

// Directory is safe for concurrent use.
type Directory struct {
	src    Source
	cache  *querycache.Cache[[]model.User]
	logger *slog.Logger
}

// Option configures a Directory.
type Option func(*options)

type options struct {
	staleTime time.Duration
	logger    *slog.Logger
}

// WithStaleTime makes cached listings stale after d. Zero keeps them until
// the next append.
func WithStaleTime(d time.Duration) Option {
	return func(o *options) {
		o.staleTime = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Directory reading from src.
func New(src Source, opts ...Option) *Directory {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Directory{
		src: src,
		cache: querycache.New[[]model.User](
			querycache.WithStaleTime[[]model.User](o.staleTime),
			querycache.WithClone[[]model.User](model.CloneUsers),
		),
		logger: o.logger,
	}
}

// FetchDirectory returns the listing, from cache when fresh. Concurrent calls
// share one request. A failed fetch is reported as StatusError with no
// substitute data.
func (d *Directory) FetchDirectory(ctx context.Context) Result {
	users, err := d.cache.Fetch(ctx, UsersKey, d.load)
	if err != nil {
		status := querycache.StatusError
		if ctx.Err() != nil {
			status = d.cache.Entry(UsersKey).Status
		}
		return Result{Status: status, Err: err}
	}
	return Result{Status: querycache.StatusSuccess, Users: users}
}

// AppendAndSync posts user and, on success, invalidates the cached listing.
// The cached snapshot is never patched locally; the next read refetches.
func (d *Directory) AppendAndSync(ctx context.Context, user model.User) (model.User, error) {
	created, err := d.src.AppendUser(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("append user %d: %w", user.ID, err)
	}

	d.cache.Invalidate(UsersKey)
	d.logger.Debug("directory_invalidated", "key", UsersKey, "user_id", created.ID)
	return created, nil
}

// PeekCached returns the last cached listing without contacting the service.
// The listing may be stale. ok is false if nothing was fetched yet.
func (d *Directory) PeekCached() (users []model.User, ok bool) {
	return d.cache.Peek(UsersKey)
}

// Status returns the lifecycle state of the cached listing.
func (d *Directory) Status() querycache.Entry[[]model.User] {
	return d.cache.Entry(UsersKey)
}

// Invalidate drops freshness of the cached listing without appending.
func (d *Directory) Invalidate() {
	d.cache.Invalidate(UsersKey)
}

// Stats returns cache counters for the listing.
func (d *Directory) Stats() querycache.Stats {
	return d.cache.Stats()
}

func (d *Directory) load(ctx context.Context) ([]model.User, error) {
	start := time.Now()
	users, err := d.src.ListUsers(ctx)
	if err != nil {
		d.logger.Warn("directory_fetch_failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("list users: %w", err)
	}
	d.logger.Debug("directory_fetched", "count", len(users), "duration", time.Since(start))
	return users, nil
}
