package internal

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Preferences are the user's persisted display settings
type Preferences struct {
	ViewMode string `json:"view_mode" yaml:"view_mode"` // list or grid
	Density  string `json:"density" yaml:"density"`     // comfortable or compact
	PageSize int    `json:"page_size" yaml:"page_size"`
	Theme    string `json:"theme" yaml:"theme"` // auto, dark, light or notty
	Language string `json:"language" yaml:"language"`
}

// PreferenceKeys lists the preference names in display order
var PreferenceKeys = []string{"view_mode", "density", "page_size", "theme", "language"}

var preferenceChoices = map[string][]string{
	"view_mode": {"list", "grid"},
	"density":   {"comfortable", "compact"},
	"theme":     {"auto", "dark", "light", "notty"},
}

// DefaultPreferences are used for anything never set
func DefaultPreferences() Preferences {
	return Preferences{
		ViewMode: "list",
		Density:  "comfortable",
		PageSize: 20,
		Theme:    "auto",
		Language: "en",
	}
}

func prefKey(name string) string {
	return "pref_" + name
}

// Get returns a preference value as a string
func (p Preferences) Get(name string) (string, error) {
	switch name {
	case "view_mode":
		return p.ViewMode, nil
	case "density":
		return p.Density, nil
	case "page_size":
		return strconv.Itoa(p.PageSize), nil
	case "theme":
		return p.Theme, nil
	case "language":
		return p.Language, nil
	default:
		return "", fmt.Errorf("unknown preference %q (known: %s)", name, strings.Join(PreferenceKeys, ", "))
	}
}

// set validates and applies one preference
func (p *Preferences) set(name, value string) error {
	if choices, ok := preferenceChoices[name]; ok && !slices.Contains(choices, value) {
		return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(choices, ", "), value)
	}

	switch name {
	case "view_mode":
		p.ViewMode = value
	case "density":
		p.Density = value
	case "page_size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 200 {
			return fmt.Errorf("page_size must be a number between 1 and 200, got %q", value)
		}
		p.PageSize = n
	case "theme":
		p.Theme = value
	case "language":
		if value == "" {
			return fmt.Errorf("language cannot be empty")
		}
		p.Language = value
	default:
		return fmt.Errorf("unknown preference %q (known: %s)", name, strings.Join(PreferenceKeys, ", "))
	}
	return nil
}

// ParagraphSpacing is the number of blank lines between paragraphs for the density
func (p Preferences) ParagraphSpacing() int {
	if p.Density == "compact" {
		return 0
	}
	return 1
}

// LoadPreferences reads every pref_* key, keeping defaults for missing or
// invalid stored values.
func LoadPreferences(store Store) (Preferences, error) {
	prefs := DefaultPreferences()
	for _, name := range PreferenceKeys {
		value, ok, err := store.Get(prefKey(name))
		if err != nil {
			return prefs, fmt.Errorf("loading preference %s: %w", name, err)
		}
		if !ok {
			continue
		}
		// a bad stored value keeps the default
		_ = prefs.set(name, value)
	}
	return prefs, nil
}

// SetPreference validates value and persists it
func SetPreference(store Store, name, value string) error {
	prefs := DefaultPreferences()
	if err := prefs.set(name, value); err != nil {
		return err
	}
	if err := store.Set(prefKey(name), value); err != nil {
		return fmt.Errorf("saving preference %s: %w", name, err)
	}
	return nil
}

// ResetPreference removes a stored preference so the default applies again
func ResetPreference(store Store, name string) error {
	if !slices.Contains(PreferenceKeys, name) {
		return fmt.Errorf("unknown preference %q (known: %s)", name, strings.Join(PreferenceKeys, ", "))
	}
	return store.Delete(prefKey(name))
}
