package memory

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotesStore_SetGetAll(t *testing.T) {
	store := NewNotesStore(afero.NewMemMapFs(), "branches")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "owner/repo#42", "issue_intent", "fix nil deref in auth"))
	require.NoError(t, store.Set(ctx, "owner/repo#42", "plan", "patch session refresh"))

	v, ok, err := store.Get(ctx, "owner/repo#42", "issue_intent")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fix nil deref in auth", v)

	_, ok, err = store.Get(ctx, "owner/repo#42", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	notes, keys, err := store.All(ctx, "owner/repo#42")
	require.NoError(t, err)
	assert.Equal(t, []string{"issue_intent", "plan"}, keys)
	assert.Len(t, notes, 2)
}

func TestNotesStore_OverwriteAndIsolation(t *testing.T) {
	store := NewNotesStore(afero.NewMemMapFs(), "branches")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "u1", "k", "v1"))
	require.NoError(t, store.Set(ctx, "u1", "k", "v2"))
	require.NoError(t, store.Set(ctx, "u2", "k", "other"))

	v, _, err := store.Get(ctx, "u1", "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	v, _, err = store.Get(ctx, "u2", "k")
	require.NoError(t, err)
	assert.Equal(t, "other", v)
}

func TestNotesStore_EmptyKeyRejected(t *testing.T) {
	store := NewNotesStore(afero.NewMemMapFs(), "branches")
	assert.Error(t, store.Set(context.Background(), "u1", "", "v"))
}

func TestNotesStore_AllEmpty(t *testing.T) {
	store := NewNotesStore(afero.NewMemMapFs(), "branches")
	notes, keys, err := store.All(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Empty(t, keys)
}
