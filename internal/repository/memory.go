// Package repository provides the directory stores.
package repository

import (
	"context"
	"sync"

	"github.com/userdir/userdir/internal/model"
)

// MemoryStore keeps the directory in process memory.
// All state is lost when the process exits.
type MemoryStore struct {
	mu    sync.RWMutex
	users []model.User
}

// NewMemory creates a MemoryStore holding the seed users.
func NewMemory() *MemoryStore {
	return NewMemoryWith(model.SeedUsers())
}

// NewMemoryWith creates a MemoryStore holding a copy of users.
func NewMemoryWith(users []model.User) *MemoryStore {
	return &MemoryStore{users: model.CloneUsers(users)}
}

// List returns a snapshot of the directory in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneUsers(s.users), nil
}

// Append adds user to the end of the directory.
func (s *MemoryStore) Append(ctx context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, user)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored users.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
