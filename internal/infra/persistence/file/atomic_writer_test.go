package file_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hell1213/Oss-Dev/internal/infra/persistence/file"
)

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()

	err := file.WriteFileAtomic(fs, "state/dir/file.json", []byte(`{"ok":true}`))
	require.NoError(t, err)

	content, err := afero.ReadFile(fs, "state/dir/file.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(content))

	assertNoTempFiles(t, fs, "state/dir")
}

func TestWriteFileAtomic_OverwritesExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "file.json", []byte("old"), 0o644))

	require.NoError(t, file.WriteFileAtomic(fs, "file.json", []byte("new")))

	content, err := afero.ReadFile(fs, "file.json")
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

type renameFailFs struct {
	afero.Fs
}

func (f *renameFailFs) Rename(oldname, newname string) error {
	return errors.New("rename failed")
}

func TestWriteFileAtomic_CleansUpOnRenameFailure(t *testing.T) {
	fs := &renameFailFs{Fs: afero.NewMemMapFs()}

	err := file.WriteFileAtomic(fs, "file.json", []byte("content"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rename")

	assertNoTempFiles(t, fs, ".")
}

func assertNoTempFiles(t *testing.T, fs afero.Fs, dir string) {
	t.Helper()
	infos, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	for _, info := range infos {
		assert.False(t, strings.HasPrefix(info.Name(), ".tmp-"),
			"temp file left behind: %s", info.Name())
	}
}
