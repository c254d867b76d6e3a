package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
)

// FileJournal appends one JSON line per agent-loop turn to an
// append-only NDJSON file. Each append is flushed before returning so
// a crash loses at most the entry being written.
type FileJournal struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewFileJournal creates a journal writer targeting path
func NewFileJournal(fs afero.Fs, path string) *FileJournal {
	return &FileJournal{fs: fs, path: path}
}

// Append writes the entry as a single NDJSON line
func (j *FileJournal) Append(ctx context.Context, entry *output.JournalEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.fs.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}
	f, err := j.fs.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", j.path, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}
	return nil
}

// ReadAll returns every decodable entry in file order. Corrupt lines
// are skipped so a torn tail write does not poison the whole journal.
func (j *FileJournal) ReadAll(ctx context.Context) ([]*output.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := afero.ReadFile(j.fs, j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal %s: %w", j.path, err)
	}

	var entries []*output.JournalEntry
	start := 0
	for i := 0; i <= len(data); i++ {
		if i != len(data) && data[i] != '\n' {
			continue
		}
		line := data[start:i]
		start = i + 1
		if len(line) == 0 {
			continue
		}
		var e output.JournalEntry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, &e)
	}
	return entries, nil
}
