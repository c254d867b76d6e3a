package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hell1213/Oss-Dev/internal/domain/lock"
)

type lockRepoStub struct {
	locks map[string]*lock.RunLock
}

func newLockRepoStub() *lockRepoStub {
	return &lockRepoStub{locks: make(map[string]*lock.RunLock)}
}

func (r *lockRepoStub) Acquire(_ context.Context, l *lock.RunLock) error {
	if held, ok := r.locks[l.LockIDValue]; ok && !held.IsExpired() {
		return lock.ErrLockHeld
	}
	r.locks[l.LockIDValue] = l
	return nil
}

func (r *lockRepoStub) Release(_ context.Context, id lock.LockID) error {
	if _, ok := r.locks[id.String()]; !ok {
		return lock.ErrLockNotFound
	}
	delete(r.locks, id.String())
	return nil
}

func (r *lockRepoStub) Find(_ context.Context, id lock.LockID) (*lock.RunLock, error) {
	l, ok := r.locks[id.String()]
	if !ok {
		return nil, lock.ErrLockNotFound
	}
	return l, nil
}

func TestLockService_AcquireAndRelease(t *testing.T) {
	svc := NewLockService(newLockRepoStub())
	ctx := context.Background()

	id, err := lock.NewLockID("owner/repo#1")
	require.NoError(t, err)

	held, err := svc.AcquireRunLock(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "owner/repo#1", held.LockIDValue)
	assert.False(t, held.IsExpired())

	_, err = svc.AcquireRunLock(ctx, id, time.Minute)
	assert.ErrorIs(t, err, lock.ErrLockHeld)

	require.NoError(t, svc.ReleaseRunLock(ctx, id))

	_, err = svc.AcquireRunLock(ctx, id, time.Minute)
	assert.NoError(t, err)
}

func TestLockService_ReleaseMissingLockIsNotAnError(t *testing.T) {
	svc := NewLockService(newLockRepoStub())

	id, err := lock.NewLockID("owner/repo#9")
	require.NoError(t, err)

	assert.NoError(t, svc.ReleaseRunLock(context.Background(), id))
}
