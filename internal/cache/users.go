package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/userdir/userdir/internal/model"
)

// seededKeySuffix marks a list as initialized so an emptied list is not reseeded.
const seededKeySuffix = ":seeded"

// seedScript pushes the seed records once per list key.
// It's atomic, so concurrent replicas starting together seed exactly once.
var seedScript = redis.NewScript(`
	local list = KEYS[1]
	local marker = KEYS[2]

	if redis.call('SETNX', marker, '1') == 0 then
		return 0
	end

	if redis.call('LLEN', list) == 0 then
		for i = 1, #ARGV do
			redis.call('RPUSH', list, ARGV[i])
		end
	end

	return 1
`)

// UserList keeps the directory in a Redis list of JSON records.
// RPUSH makes each append atomic; LRANGE returns insertion order.
// Closing the UserList closes its client.
type UserList struct {
	rdb *redis.Client
	key string
}

// NewUserList returns a UserList stored under key, seeding it on first use.
func NewUserList(ctx context.Context, rdb *redis.Client, key string) (*UserList, error) {
	l := &UserList{rdb: rdb, key: key}

	seed := model.SeedUsers()
	args := make([]any, len(seed))
	for i, u := range seed {
		data, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("failed to encode seed user: %w", err)
		}
		args[i] = string(data)
	}

	keys := []string{key, key + seededKeySuffix}
	if err := seedScript.Run(ctx, rdb, keys, args...).Err(); err != nil {
		return nil, fmt.Errorf("failed to seed user list: %w", err)
	}

	return l, nil
}

// Ping checks Redis connectivity.
func (l *UserList) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close releases the Redis client.
func (l *UserList) Close() error {
	return l.rdb.Close()
}

// Len returns the number of stored users without decoding them.
func (l *UserList) Len(ctx context.Context) (int64, error) {
	n, err := l.rdb.LLen(ctx, l.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis llen failed: %w", err)
	}
	return n, nil
}

// List returns every user in insertion order.
func (l *UserList) List(ctx context.Context) ([]model.User, error) {
	raw, err := l.rdb.LRange(ctx, l.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}

	users := make([]model.User, 0, len(raw))
	for _, item := range raw {
		var u model.User
		if err := json.Unmarshal([]byte(item), &u); err != nil {
			return nil, fmt.Errorf("failed to decode cached user: %w", err)
		}
		users = append(users, u)
	}

	return users, nil
}

// Append pushes user onto the tail of the list.
func (l *UserList) Append(ctx context.Context, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	if err := l.rdb.RPush(ctx, l.key, data).Err(); err != nil {
		return fmt.Errorf("redis rpush failed: %w", err)
	}
	return nil
}
