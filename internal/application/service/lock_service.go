package service

import (
	"context"
	"errors"
	"time"

	"github.com/Hell1213/Oss-Dev/internal/domain/lock"
)

// LockService guards units of work so only one agent loop drives a
// given unit at a time. Multiple independent units may run
// concurrently; each holds its own lock.
type LockService interface {
	AcquireRunLock(ctx context.Context, id lock.LockID, ttl time.Duration) (*lock.RunLock, error)
	ReleaseRunLock(ctx context.Context, id lock.LockID) error
}

// LockServiceImpl implements LockService over a lock repository
type LockServiceImpl struct {
	repo lock.Repository
}

// NewLockService creates a lock service
func NewLockService(repo lock.Repository) *LockServiceImpl {
	return &LockServiceImpl{repo: repo}
}

// AcquireRunLock takes the lock for a unit. Returns lock.ErrLockHeld
// when a live lock from another process exists; expired locks are
// replaced.
func (s *LockServiceImpl) AcquireRunLock(ctx context.Context, id lock.LockID, ttl time.Duration) (*lock.RunLock, error) {
	l, err := lock.NewRunLock(id, ttl)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Acquire(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// ReleaseRunLock releases the lock for a unit, tolerating a lock that
// already disappeared.
func (s *LockServiceImpl) ReleaseRunLock(ctx context.Context, id lock.LockID) error {
	err := s.repo.Release(ctx, id)
	if errors.Is(err, lock.ErrLockNotFound) {
		return nil
	}
	return err
}
