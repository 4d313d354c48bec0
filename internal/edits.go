package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// SaveNoticeDuration is how long the "saved" confirmation stays visible
const SaveNoticeDuration = 2 * time.Second

// ErrIndexOutOfRange is returned when an edit targets a segment that does not exist
var ErrIndexOutOfRange = errors.New("segment index out of range")

// ErrEditsMismatch means saved corrections were made against a benchmark
// track with a different number of segments
var ErrEditsMismatch = errors.New("saved corrections do not line up with the benchmark track")

// EditKey returns the storage key for a content id's corrections
func EditKey(contentID string) string {
	return "edit_" + contentID
}

// EditBuffer is the user's corrected text, index-aligned to the benchmark track.
// Its length is fixed at creation; edits replace text only.
type EditBuffer struct {
	mu        sync.Mutex
	contentID string
	texts     []string
	dirty     bool
	stale     error
}

// NewEditBuffer creates a clean buffer seeded with the given texts
func NewEditBuffer(contentID string, seed []string) *EditBuffer {
	return &EditBuffer{
		contentID: contentID,
		texts:     slices.Clone(seed),
	}
}

// ContentID returns the id the buffer belongs to
func (b *EditBuffer) ContentID() string {
	return b.contentID
}

// Len returns the number of segments
func (b *EditBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.texts)
}

// Text returns the text at index, or "" when out of range
func (b *EditBuffer) Text(index int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.texts) {
		return ""
	}
	return b.texts[index]
}

// Texts returns a copy of the buffer
func (b *EditBuffer) Texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.texts)
}

// Dirty reports unsaved edits
func (b *EditBuffer) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// Edit replaces the text at index and marks the buffer dirty
func (b *EditBuffer) Edit(index int, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.texts) {
		return fmt.Errorf("editing segment %d of %d: %w", index, len(b.texts), ErrIndexOutOfRange)
	}
	b.texts[index] = text
	b.dirty = true
	return nil
}

// Stale is non-nil when a stored buffer existed but could not be used and the
// seed was loaded in its place. Saving replaces the stored buffer.
func (b *EditBuffer) Stale() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stale
}

// Save writes the buffer verbatim under its edit key and clears the dirty flag.
// Whatever was stored before is overwritten.
func (b *EditBuffer) Save(store Store) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := json.Marshal(b.texts)
	if err != nil {
		return fmt.Errorf("marshaling edits: %w", err)
	}
	if err := store.Set(EditKey(b.contentID), string(data)); err != nil {
		return fmt.Errorf("saving edits for %s: %w", b.contentID, err)
	}
	b.dirty = false
	b.stale = nil
	return nil
}

// LoadEditBuffer restores saved edits for contentID. With nothing saved the seed
// is used. A saved buffer that is corrupt or no longer lines up with the seed is
// left in the store and the seed is returned, marked Stale.
func LoadEditBuffer(store Store, contentID string, seed []string) (*EditBuffer, error) {
	raw, ok, err := store.Get(EditKey(contentID))
	if err != nil {
		return nil, fmt.Errorf("loading edits for %s: %w", contentID, err)
	}
	if !ok {
		return NewEditBuffer(contentID, seed), nil
	}

	var saved []string
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		buf := NewEditBuffer(contentID, seed)
		buf.stale = fmt.Errorf("parsing saved edits for %s: %w", contentID, err)
		return buf, nil
	}
	if len(saved) != len(seed) {
		buf := NewEditBuffer(contentID, seed)
		buf.stale = fmt.Errorf("%w: %s has %d saved, benchmark has %d", ErrEditsMismatch, contentID, len(saved), len(seed))
		return buf, nil
	}
	return NewEditBuffer(contentID, saved), nil
}
