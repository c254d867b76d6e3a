package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"

	"github.com/Hell1213/Oss-Dev/internal/infra/persistence/file"
	"github.com/Hell1213/Oss-Dev/internal/pkg/slug"
)

// NotesStore keeps free-form key/value notes per unit of work (issue
// intent, plan, known limitations). Notes live next to the snapshot
// files as notes-<slug>.json and survive across runs of the same unit.
type NotesStore struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// NewNotesStore creates a notes store rooted at dir
func NewNotesStore(fs afero.Fs, dir string) *NotesStore {
	return &NotesStore{fs: fs, dir: dir}
}

// Set stores a note under key for the unit
func (s *NotesStore) Set(ctx context.Context, unitID, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("note key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.readLocked(unitID)
	if err != nil {
		return err
	}
	notes[key] = value

	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode notes for %s: %w", unitID, err)
	}
	if err := file.WriteFileAtomic(s.fs, s.pathFor(unitID), data); err != nil {
		return fmt.Errorf("write notes for %s: %w", unitID, err)
	}
	return nil
}

// Get returns the note under key, with ok reporting presence
func (s *NotesStore) Get(ctx context.Context, unitID, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.readLocked(unitID)
	if err != nil {
		return "", false, err
	}
	v, ok := notes[key]
	return v, ok, nil
}

// All returns every note for the unit, keys sorted
func (s *NotesStore) All(ctx context.Context, unitID string) (map[string]string, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.readLocked(unitID)
	if err != nil {
		return nil, nil, err
	}
	keys := make([]string, 0, len(notes))
	for k := range notes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return notes, keys, nil
}

func (s *NotesStore) readLocked(unitID string) (map[string]string, error) {
	data, err := afero.ReadFile(s.fs, s.pathFor(unitID))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read notes for %s: %w", unitID, err)
	}
	notes := map[string]string{}
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("decode notes for %s: %w", unitID, err)
	}
	return notes, nil
}

func (s *NotesStore) pathFor(unitID string) string {
	return filepath.Join(s.dir, "notes-"+slug.Make(unitID)+".json")
}
