package journal

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
)

func TestFileJournal_AppendAndReadAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	j := NewFileJournal(fs, ".ossdev/journal.ndjson")

	e1 := &output.JournalEntry{TS: "2025-06-01T10:00:00Z", UnitID: "u1", Turn: 1, Phase: "planning", ToolCalls: []string{"git_status"}}
	e2 := &output.JournalEntry{TS: "2025-06-01T10:00:05Z", UnitID: "u1", Turn: 2, Phase: "planning", StopReason: "stalled"}
	require.NoError(t, j.Append(context.Background(), e1))
	require.NoError(t, j.Append(context.Background(), e2))

	entries, err := j.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Turn)
	assert.Equal(t, []string{"git_status"}, entries[0].ToolCalls)
	assert.Equal(t, "stalled", entries[1].StopReason)

	// One line per entry on disk
	data, err := afero.ReadFile(fs, ".ossdev/journal.ndjson")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestFileJournal_ReadAllSkipsCorruptLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "journal.ndjson"
	content := `{"unit_id":"u1","turn":1}
not json at all
{"unit_id":"u1","turn":2}
{"unit_id":"u1","turn":3` // torn tail write
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))

	j := NewFileJournal(fs, path)
	entries, err := j.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Turn)
	assert.Equal(t, 2, entries[1].Turn)
}

func TestFileJournal_ReadAllMissingFile(t *testing.T) {
	j := NewFileJournal(afero.NewMemMapFs(), "nope.ndjson")
	entries, err := j.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
