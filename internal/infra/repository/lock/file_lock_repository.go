package lock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/Hell1213/Oss-Dev/internal/domain/lock"
	"github.com/Hell1213/Oss-Dev/internal/infra/persistence/file"
	"github.com/Hell1213/Oss-Dev/internal/pkg/slug"
)

// FileLockRepository stores one JSON lock file per unit under the lock
// directory. An existing unexpired lock blocks acquisition; expired
// lock files are treated as stale and replaced.
type FileLockRepository struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// NewFileLockRepository creates a lock repository rooted at dir
func NewFileLockRepository(fs afero.Fs, dir string) *FileLockRepository {
	return &FileLockRepository{fs: fs, dir: dir}
}

// Acquire writes the lock file for the unit. Returns lock.ErrLockHeld
// when a live lock exists.
func (r *FileLockRepository) Acquire(ctx context.Context, l *lock.RunLock) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.pathFor(l.LockIDValue)
	existing, err := r.readLock(path)
	if err == nil && !existing.IsExpired() {
		return fmt.Errorf("%w: %s (pid %d on %s, expires %s)",
			lock.ErrLockHeld, l.LockIDValue, existing.PID, existing.Hostname, existing.ExpiresAt.Format("15:04:05"))
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode lock %s: %w", l.LockIDValue, err)
	}
	if err := file.WriteFileAtomic(r.fs, path, data); err != nil {
		return fmt.Errorf("write lock %s: %w", l.LockIDValue, err)
	}
	return nil
}

// Release removes the lock file for a unit
func (r *FileLockRepository) Release(ctx context.Context, id lock.LockID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.fs.Remove(r.pathFor(id.String())); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", lock.ErrLockNotFound, id)
		}
		return fmt.Errorf("release lock %s: %w", id, err)
	}
	return nil
}

// Find returns the persisted lock for a unit, expired or not
func (r *FileLockRepository) Find(ctx context.Context, id lock.LockID) (*lock.RunLock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.readLock(r.pathFor(id.String()))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", lock.ErrLockNotFound, id)
		}
		return nil, err
	}
	return l, nil
}

func (r *FileLockRepository) readLock(path string) (*lock.RunLock, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, err
	}
	var l lock.RunLock
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode lock file %s: %w", path, err)
	}
	return &l, nil
}

func (r *FileLockRepository) pathFor(lockID string) string {
	return filepath.Join(r.dir, slug.Make(lockID)+".lock")
}
