// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/userdir/userdir/internal/metrics"
	"github.com/userdir/userdir/internal/model"
)

// Service errors.
var (
	ErrInvalidUser  = errors.New("invalid user")
	ErrDuplicateID  = errors.New("user id already exists")
	ErrNameTooLong  = fmt.Errorf("%w: name too long", ErrInvalidUser)
	ErrNameRequired = fmt.Errorf("%w: name is required", ErrInvalidUser)
	ErrIDRequired   = fmt.Errorf("%w: id must be positive", ErrInvalidUser)
)

const maxNameLength = 256

// Store holds the directory.
type Store interface {
	List(ctx context.Context) ([]model.User, error)
	Append(ctx context.Context, user model.User) error
	Ping(ctx context.Context) error
}

// UserService handles directory business logic.
type UserService struct {
	store   Store
	strict  bool
	metrics metrics.Recorder

	// appendMu makes the duplicate check and the append one step in strict mode.
	appendMu sync.Mutex
}

// NewUserService creates a new UserService.
// With strict unset every appended record is accepted as-is.
func NewUserService(store Store, strict bool, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		strict:  strict,
		metrics: recorder,
	}
}

// Strict reports whether appended users are validated.
func (s *UserService) Strict() bool {
	return s.strict
}

// List returns the directory in insertion order.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	start := time.Now()
	users, err := s.store.List(ctx)
	s.metrics.ObserveStoreDuration(metrics.OpList, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	s.metrics.IncUsersListed()
	return users, nil
}

// Append adds user to the end of the directory and returns it unchanged.
func (s *UserService) Append(ctx context.Context, user model.User) (model.User, error) {
	if s.strict {
		if err := ValidateUser(user); err != nil {
			s.metrics.IncUserRejected(metrics.ReasonInvalid)
			return model.User{}, err
		}

		s.appendMu.Lock()
		defer s.appendMu.Unlock()

		existing, err := s.store.List(ctx)
		if err != nil {
			return model.User{}, fmt.Errorf("failed to check duplicate id: %w", err)
		}
		for _, u := range existing {
			if u.ID == user.ID {
				s.metrics.IncUserRejected(metrics.ReasonDuplicate)
				return model.User{}, ErrDuplicateID
			}
		}
	}

	start := time.Now()
	err := s.store.Append(ctx, user)
	s.metrics.ObserveStoreDuration(metrics.OpAppend, time.Since(start))
	if err != nil {
		return model.User{}, fmt.Errorf("failed to append user: %w", err)
	}

	s.metrics.IncUserAppended()
	return user, nil
}

// Ping checks the underlying store.
func (s *UserService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ValidateUser checks the shape of a user record.
func ValidateUser(user model.User) error {
	if user.ID <= 0 {
		return ErrIDRequired
	}

	name := strings.TrimSpace(user.Name)
	if name == "" {
		return ErrNameRequired
	}
	if len(user.Name) > maxNameLength {
		return ErrNameTooLong
	}

	return nil
}
