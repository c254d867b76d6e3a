package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrLockHeld is returned when another process holds a live lock
	ErrLockHeld = errors.New("run lock held by another process")

	// ErrLockNotFound is returned when releasing a lock that does not exist
	ErrLockNotFound = errors.New("run lock not found")
)

// LockID identifies the unit of work being locked
type LockID struct {
	value string
}

// NewLockID creates a lock ID from a unit reference
func NewLockID(value string) (LockID, error) {
	if value == "" {
		return LockID{}, fmt.Errorf("lock ID cannot be empty")
	}
	return LockID{value: value}, nil
}

// String returns the string representation of the lock ID
func (id LockID) String() string { return id.value }

// RunLock guards one unit of work so that two agent loops never drive
// the same unit concurrently. Locks expire after their TTL so a killed
// process does not wedge the unit forever.
type RunLock struct {
	LockIDValue string    `json:"lock_id"`
	PID         int       `json:"pid"`
	Hostname    string    `json:"hostname"`
	AcquiredAt  time.Time `json:"acquired_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewRunLock creates a run lock for the current process
func NewRunLock(id LockID, ttl time.Duration) (*RunLock, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("get hostname: %w", err)
	}
	now := time.Now().UTC()
	return &RunLock{
		LockIDValue: id.String(),
		PID:         os.Getpid(),
		Hostname:    hostname,
		AcquiredAt:  now,
		ExpiresAt:   now.Add(ttl),
	}, nil
}

// IsExpired checks if the lock has passed its TTL
func (l *RunLock) IsExpired() bool {
	return time.Now().UTC().After(l.ExpiresAt)
}

// Remaining returns the time until expiry
func (l *RunLock) Remaining() time.Duration {
	return time.Until(l.ExpiresAt)
}

// Repository persists run locks. Acquire must be atomic with respect
// to concurrent acquirers of the same lock ID.
type Repository interface {
	Acquire(ctx context.Context, l *RunLock) error
	Release(ctx context.Context, id LockID) error
	Find(ctx context.Context, id LockID) (*RunLock, error)
}
