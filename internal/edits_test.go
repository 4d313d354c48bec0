package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditBufferKeepsLength(t *testing.T) {
	buf := NewEditBuffer("abc", []string{"a", "b", "c"})
	assert.False(t, buf.Dirty())

	require.NoError(t, buf.Edit(1, "B"))
	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, []string{"a", "B", "c"}, buf.Texts())
	assert.True(t, buf.Dirty())

	for _, index := range []int{-1, 3, 100} {
		err := buf.Edit(index, "x")
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", index)
		assert.Equal(t, 3, buf.Len())
	}

	assert.Equal(t, "", buf.Text(7))
}

func TestEditBufferSeedIsCopied(t *testing.T) {
	seed := []string{"a", "b"}
	buf := NewEditBuffer("abc", seed)
	require.NoError(t, buf.Edit(0, "z"))
	assert.Equal(t, "a", seed[0])

	texts := buf.Texts()
	texts[1] = "mutated"
	assert.Equal(t, "b", buf.Text(1))
}

func TestEditBufferSaveLoadRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	seed := []string{"hello their", "general kenobi"}

	buf, err := LoadEditBuffer(store, "abc", seed)
	require.NoError(t, err)
	assert.Equal(t, seed, buf.Texts(), "nothing saved uses the seed")

	require.NoError(t, buf.Edit(0, "hello there"))
	require.NoError(t, buf.Save(store))
	assert.False(t, buf.Dirty())

	raw, ok, err := store.Get("edit_abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["hello there", "general kenobi"]`, raw)

	loaded, err := LoadEditBuffer(store, "abc", seed)
	require.NoError(t, err)
	assert.Equal(t, buf.Texts(), loaded.Texts())
	assert.False(t, loaded.Dirty())
	assert.Equal(t, "abc", loaded.ContentID())
}

func TestEditBufferSaveOverwrites(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(EditKey("abc"), `["old", "old"]`))

	buf := NewEditBuffer("abc", []string{"new", "new"})
	require.NoError(t, buf.Save(store))

	raw, _, err := store.Get(EditKey("abc"))
	require.NoError(t, err)
	assert.JSONEq(t, `["new", "new"]`, raw)
}

func TestLoadEditBufferLengthMismatch(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(EditKey("abc"), `["only one"]`))

	buf, err := LoadEditBuffer(store, "abc", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, buf.Texts())
	assert.ErrorIs(t, buf.Stale(), ErrEditsMismatch)

	raw, _, err := store.Get(EditKey("abc"))
	require.NoError(t, err)
	assert.JSONEq(t, `["only one"]`, raw, "loading leaves the saved buffer alone")
}

func TestLoadEditBufferCorruptFallsBackToSeed(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(EditKey("abc"), `{not json`))

	buf, err := LoadEditBuffer(store, "abc", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, buf.Texts())
	assert.ErrorContains(t, buf.Stale(), "parsing saved edits")
	assert.NotErrorIs(t, buf.Stale(), ErrEditsMismatch)

	require.NoError(t, buf.Save(store))
	assert.NoError(t, buf.Stale())
	loaded, err := LoadEditBuffer(store, "abc", []string{"a"})
	require.NoError(t, err)
	assert.NoError(t, loaded.Stale())
}
