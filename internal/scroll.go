package internal

import (
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	// DriftThreshold is how far (px or lines) the active row may sit from center before re-centering
	DriftThreshold = 10.0
	// ProgrammaticScrollWindow covers the nominal duration of a smooth scroll animation
	ProgrammaticScrollWindow = 500 * time.Millisecond
)

// FollowState is the auto-scroll mode of a Synchronizer
type FollowState int

const (
	Following FollowState = iota
	Paused
)

// String returns the state name
func (s FollowState) String() string {
	switch s {
	case Following:
		return "following"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// MarshalText lets the state appear by name in JSON and YAML
func (s FollowState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText
func (s *FollowState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "following":
		*s = Following
	case "paused":
		*s = Paused
	default:
		return fmt.Errorf("unknown follow state %q", text)
	}
	return nil
}

// Viewport is the scrollable container that lists benchmark rows
type Viewport interface {
	ScrollTop() float64
	Height() float64
	ContentHeight() float64
	RowOffset(i int) float64
	RowHeight(i int) float64
	ScrollTo(top float64, smooth bool)
}

// Synchronizer keeps the active row centered while playback advances, and backs
// off as soon as the user scrolls on their own.
type Synchronizer struct {
	mu         sync.Mutex
	viewport   Viewport
	state      FollowState
	lastActive int
	guardUntil time.Time
	guard      time.Duration
	now        func() time.Time
}

// SyncOption customizes a Synchronizer
type SyncOption func(*Synchronizer)

// WithSyncTimeSource replaces time.Now for the programmatic-scroll guard
func WithSyncTimeSource(now func() time.Time) SyncOption {
	return func(s *Synchronizer) {
		s.now = now
	}
}

// WithGuardWindow sets how long our own scrolls are ignored by OnScroll.
// Viewports that scroll instantly and never echo scroll events can use 0.
func WithGuardWindow(d time.Duration) SyncOption {
	return func(s *Synchronizer) {
		s.guard = d
	}
}

// NewSynchronizer starts in the Following state
func NewSynchronizer(vp Viewport, options ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		viewport:   vp,
		state:      Following,
		lastActive: NoSegment,
		guard:      ProgrammaticScrollWindow,
		now:        time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// State returns the current follow state
func (s *Synchronizer) State() FollowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ShowResume reports whether the resume control should be visible
func (s *Synchronizer) ShowResume() bool {
	return s.State() == Paused
}

// OnScroll handles a scroll event on the container. Events inside the guard
// window are our own; anything else means the user took over.
func (s *Synchronizer) OnScroll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.now().Before(s.guardUntil) {
		return
	}
	if s.state == Following {
		s.state = Paused
	}
}

// Tick follows the active row. It returns true when it scrolled.
func (s *Synchronizer) Tick(active int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := active != s.lastActive
	s.lastActive = active

	if s.state != Following || active == NoSegment {
		return false
	}

	target := s.centerTop(active)
	if !changed && math.Abs(s.viewport.ScrollTop()-target) <= DriftThreshold {
		return false
	}
	s.scrollTo(target, true)
	return true
}

// Resume returns to Following and jumps straight to the active row,
// ignoring the drift threshold.
func (s *Synchronizer) Resume(active int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Following
	s.lastActive = active
	if active == NoSegment {
		return
	}
	s.scrollTo(s.centerTop(active), false)
}

// centerTop is the scroll offset that vertically centers row i, clamped to the content
func (s *Synchronizer) centerTop(i int) float64 {
	vp := s.viewport
	top := vp.RowOffset(i) + vp.RowHeight(i)/2 - vp.Height()/2
	maxTop := math.Max(0, vp.ContentHeight()-vp.Height())
	return math.Min(math.Max(top, 0), maxTop)
}

// scrollTo raises the guard before moving so the echoed scroll event is ignored
func (s *Synchronizer) scrollTo(top float64, smooth bool) {
	s.guardUntil = s.now().Add(s.guard)
	s.viewport.ScrollTo(top, smooth)
}

// LineViewport is a viewport measured in text lines, one or more per row.
// The terminal viewer and the HTTP viewer session both use it.
type LineViewport struct {
	mu      sync.Mutex
	heights []float64
	offsets []float64
	total   float64
	height  float64
	top     float64
	smooth  bool
	pending bool
}

// NewLineViewport creates a viewport of the given visible height over rows with the given heights
func NewLineViewport(rowHeights []float64, height float64) *LineViewport {
	vp := &LineViewport{height: height}
	vp.SetRows(rowHeights)
	return vp
}

// SetRows replaces the row heights, e.g. after a terminal resize rewraps text
func (vp *LineViewport) SetRows(rowHeights []float64) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	vp.heights = rowHeights
	vp.offsets = make([]float64, len(rowHeights))
	vp.total = 0
	for i, h := range rowHeights {
		vp.offsets[i] = vp.total
		vp.total += h
	}
	vp.top = vp.clamp(vp.top)
}

// SetHeight changes the visible height
func (vp *LineViewport) SetHeight(height float64) {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	vp.height = height
	vp.top = vp.clamp(vp.top)
}

func (vp *LineViewport) clamp(top float64) float64 {
	maxTop := math.Max(0, vp.total-vp.height)
	return math.Min(math.Max(top, 0), maxTop)
}

// ScrollTop returns the current offset
func (vp *LineViewport) ScrollTop() float64 {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	return vp.top
}

// Height returns the visible height
func (vp *LineViewport) Height() float64 {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	return vp.height
}

// ContentHeight returns the height of all rows
func (vp *LineViewport) ContentHeight() float64 {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	return vp.total
}

// RowOffset returns the top of row i
func (vp *LineViewport) RowOffset(i int) float64 {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	if i < 0 || i >= len(vp.offsets) {
		return 0
	}
	return vp.offsets[i]
}

// RowHeight returns the height of row i
func (vp *LineViewport) RowHeight(i int) float64 {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	if i < 0 || i >= len(vp.heights) {
		return 0
	}
	return vp.heights[i]
}

// ScrollTo moves the viewport and records the move for a remote page to replay
func (vp *LineViewport) ScrollTo(top float64, smooth bool) {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	vp.top = vp.clamp(top)
	vp.smooth = smooth
	vp.pending = true
}

// ScrollBy moves by delta lines on the user's behalf. It returns false if the
// offset did not change (already at an edge).
func (vp *LineViewport) ScrollBy(delta float64) bool {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	top := vp.clamp(vp.top + delta)
	if top == vp.top {
		return false
	}
	vp.top = top
	return true
}

// SetScrollTop records a scroll position reported by the user's page
func (vp *LineViewport) SetScrollTop(top float64) {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	vp.top = vp.clamp(top)
}

// TakeScroll returns and clears the last programmatic scroll
func (vp *LineViewport) TakeScroll() (top float64, smooth bool, ok bool) {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	if !vp.pending {
		return 0, false, false
	}
	vp.pending = false
	return vp.top, vp.smooth, true
}

// Visible returns the index range [first, last] of rows at least partly on screen
func (vp *LineViewport) Visible() (first, last int) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	first, last = -1, -1
	bottom := vp.top + vp.height
	for i, off := range vp.offsets {
		if off+vp.heights[i] <= vp.top {
			continue
		}
		if off >= bottom {
			break
		}
		if first == -1 {
			first = i
		}
		last = i
	}
	return first, last
}
