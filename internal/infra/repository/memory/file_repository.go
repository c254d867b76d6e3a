package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/Hell1213/Oss-Dev/internal/domain/memory"
	"github.com/Hell1213/Oss-Dev/internal/infra/persistence/file"
	"github.com/Hell1213/Oss-Dev/internal/pkg/slug"
)

const snapshotPrefix = "branch-"

// FileRepository stores one snapshot JSON file per unit of work under
// <dir>/branch-<slug>.json. Writes go through temp-file-plus-rename so
// a crash mid-save never corrupts the previous snapshot. Writes to the
// same unit are serialized; different units proceed concurrently.
type FileRepository struct {
	fs  afero.Fs
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileRepository creates a file-backed snapshot repository rooted at dir
func NewFileRepository(fs afero.Fs, dir string) *FileRepository {
	return &FileRepository{
		fs:    fs,
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
}

// Save persists the snapshot, replacing any previous one for the unit
func (r *FileRepository) Save(ctx context.Context, snap *memory.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unitID := snap.UnitID()
	if unitID == "" {
		return fmt.Errorf("%w: snapshot has no unit ID", memory.ErrSnapshotMalformed)
	}

	keyLock := r.lockFor(unitID)
	keyLock.Lock()
	defer keyLock.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot for %s: %w", unitID, err)
	}
	path := r.pathFor(unitID)
	if err := file.WriteFileAtomic(r.fs, path, data); err != nil {
		return fmt.Errorf("write snapshot for %s: %w", unitID, err)
	}
	return nil
}

// Load reads the latest snapshot for the unit. Returns
// memory.ErrSnapshotNotFound when no file exists and
// memory.ErrSnapshotMalformed when the file cannot be decoded.
func (r *FileRepository) Load(ctx context.Context, unitID string) (*memory.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keyLock := r.lockFor(unitID)
	keyLock.Lock()
	defer keyLock.Unlock()

	data, err := afero.ReadFile(r.fs, r.pathFor(unitID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", memory.ErrSnapshotNotFound, unitID)
		}
		return nil, fmt.Errorf("read snapshot for %s: %w", unitID, err)
	}

	var snap memory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", memory.ErrSnapshotMalformed, unitID, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", unitID, err)
	}
	return &snap, nil
}

// List returns every decodable snapshot in the store, sorted by unit
// ID. Malformed files are skipped; List is used for status listings,
// not for resume.
func (r *FileRepository) List(ctx context.Context) ([]*memory.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list snapshot dir %s: %w", r.dir, err)
	}

	var out []*memory.Snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := afero.ReadFile(r.fs, filepath.Join(r.dir, name))
		if err != nil {
			continue
		}
		var snap memory.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil || snap.Validate() != nil {
			continue
		}
		out = append(out, &snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID() < out[j].UnitID() })
	return out, nil
}

// Delete removes the snapshot for a unit. Missing files are reported
// as memory.ErrSnapshotNotFound.
func (r *FileRepository) Delete(ctx context.Context, unitID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	keyLock := r.lockFor(unitID)
	keyLock.Lock()
	defer keyLock.Unlock()

	if err := r.fs.Remove(r.pathFor(unitID)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", memory.ErrSnapshotNotFound, unitID)
		}
		return fmt.Errorf("delete snapshot for %s: %w", unitID, err)
	}
	return nil
}

func (r *FileRepository) pathFor(unitID string) string {
	return filepath.Join(r.dir, snapshotPrefix+slug.Make(unitID)+".json")
}

func (r *FileRepository) lockFor(unitID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := slug.Make(unitID)
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	return l
}
