package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferencesDefaults(t *testing.T) {
	prefs, err := LoadPreferences(NewMemoryStore())
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), prefs)
	assert.Equal(t, 1, prefs.ParagraphSpacing())
}

func TestSetPreference(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, SetPreference(store, "view_mode", "grid"))
	require.NoError(t, SetPreference(store, "density", "compact"))
	require.NoError(t, SetPreference(store, "page_size", "50"))
	require.NoError(t, SetPreference(store, "language", "de"))

	prefs, err := LoadPreferences(store)
	require.NoError(t, err)
	assert.Equal(t, "grid", prefs.ViewMode)
	assert.Equal(t, 50, prefs.PageSize)
	assert.Equal(t, "de", prefs.Language)
	assert.Equal(t, 0, prefs.ParagraphSpacing())

	value, err := prefs.Get("page_size")
	require.NoError(t, err)
	assert.Equal(t, "50", value)

	require.NoError(t, ResetPreference(store, "view_mode"))
	prefs, err = LoadPreferences(store)
	require.NoError(t, err)
	assert.Equal(t, "list", prefs.ViewMode)
}

func TestSetPreferenceRejectsBadValues(t *testing.T) {
	store := NewMemoryStore()

	tests := []struct {
		name, value string
	}{
		{"view_mode", "table"},
		{"theme", "neon"},
		{"page_size", "0"},
		{"page_size", "many"},
		{"language", ""},
		{"font", "mono"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			assert.Error(t, SetPreference(store, tt.name, tt.value))
			_, ok, _ := store.Get(prefKey(tt.name))
			assert.False(t, ok, "rejected values are not stored")
		})
	}

	assert.Error(t, ResetPreference(store, "font"))
	_, err := DefaultPreferences().Get("font")
	assert.Error(t, err)
}

func TestLoadPreferencesIgnoresCorruptValues(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(prefKey("page_size"), "-3"))
	require.NoError(t, store.Set(prefKey("theme"), "dark"))

	prefs, err := LoadPreferences(store)
	require.NoError(t, err)
	assert.Equal(t, 20, prefs.PageSize)
	assert.Equal(t, "dark", prefs.Theme)
}
