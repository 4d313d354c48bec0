package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Viewer is one synchronized multi-track transcript view: a playback clock,
// the aligned tracks, the scroll synchronizer and (for comparisons) the edit buffer.
type Viewer struct {
	ContentID string
	Title     string
	Tracks    TrackSet
	Selection Selection
	Clock     *Clock
	Sync      *Synchronizer
	Edits     *EditBuffer

	bench *Track
}

// NewViewer wires a viewer over tracks. edits may be nil for read-only views.
func NewViewer(contentID, title string, tracks TrackSet, clock *Clock, vp Viewport, edits *EditBuffer, options ...SyncOption) *Viewer {
	sel := SelectTracks(tracks.Names())
	return &Viewer{
		ContentID: contentID,
		Title:     title,
		Tracks:    tracks,
		Selection: sel,
		Clock:     clock,
		Sync:      NewSynchronizer(vp, options...),
		Edits:     edits,
		bench:     tracks.Get(sel.Benchmark),
	}
}

// Benchmark returns the track that drives the active index
func (v *Viewer) Benchmark() *Track {
	return v.bench
}

// Tick aligns the tracks at the clock's current time and lets the synchronizer follow
func (v *Viewer) Tick() Frame {
	frame := Align(v.Tracks, v.Selection, v.Clock.CurrentTime())
	v.Sync.Tick(frame.Active)
	return frame
}

// Seek moves playback; the follow state is left alone
func (v *Viewer) Seek(t float64) {
	v.Clock.SeekTo(t)
}

// SeekToRow moves playback to the start of benchmark row i
func (v *Viewer) SeekToRow(i int) {
	if i < 0 || i >= v.bench.Len() {
		return
	}
	v.Seek(v.bench.Segments[i].Start)
}

// Resume re-enables auto-scroll and jumps to the row active right now
func (v *Viewer) Resume() {
	v.Sync.Resume(ActiveIndex(v.bench, v.Clock.CurrentTime()))
}

// Export renders the edit buffer as SRT
func (v *Viewer) Export() ([]byte, error) {
	if v.Edits == nil {
		return nil, fmt.Errorf("viewer for %s has no edits to export", v.ContentID)
	}
	return ExportSRT(v.bench, v.Edits)
}

// Close stops the clock
func (v *Viewer) Close() {
	v.Clock.Stop()
}

// ErrSessionNotFound is returned for unknown or closed session ids
var ErrSessionNotFound = errors.New("viewer session not found")

// ErrManagerStopped is returned when a session is requested after Stop
var ErrManagerStopped = errors.New("viewer service is shutting down")

const (
	// DefaultSessionIdleTimeout closes sessions no page has touched for this long
	DefaultSessionIdleTimeout = 2 * time.Minute
	defaultSweepInterval      = 30 * time.Second
)

// CompareLoader fetches the tracks for a content id
type CompareLoader func(ctx context.Context, contentID string) (*CompareResult, error)

// Session is a viewer driven by a page through the viewer service
type Session struct {
	ID       string
	Viewer   *Viewer
	Viewport *LineViewport
	Remote   *RemotePlayer // set in remote-video mode
	Local    *LocalPlayer  // set in local-audio mode

	lastSeen time.Time // guarded by the manager's lock
}

// Geometry describes the page's transcript container, in pixels
type Geometry struct {
	RowHeight      float64 `json:"row_height"`
	ViewportHeight float64 `json:"viewport_height"`
}

// SessionManager owns the viewer sessions of the local viewer service and the
// edit buffers they share per content id. Sessions idle for longer than the
// idle timeout are closed by the eviction worker.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	edits    map[string]*EditBuffer
	loader   CompareLoader
	store    Store
	interval time.Duration
	logger   Logger
	stopped  bool

	idleTimeout time.Duration
	sweep       time.Duration
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SessionOption configures a SessionManager
type SessionOption func(*SessionManager)

// WithIdleTimeout sets how long a session may go untouched before it is closed
func WithIdleTimeout(idle time.Duration) SessionOption {
	return func(sm *SessionManager) {
		sm.idleTimeout = idle
	}
}

// WithSweepInterval sets how often the eviction worker looks for idle sessions
func WithSweepInterval(every time.Duration) SessionOption {
	return func(sm *SessionManager) {
		sm.sweep = every
	}
}

// WithSessionTimeSource replaces time.Now for idle tracking
func WithSessionTimeSource(now func() time.Time) SessionOption {
	return func(sm *SessionManager) {
		sm.now = now
	}
}

// NewSessionManager creates an empty manager
func NewSessionManager(loader CompareLoader, store Store, clockInterval time.Duration, logger Logger, options ...SessionOption) *SessionManager {
	ctx, cancel := context.WithCancel(context.Background())
	sm := &SessionManager{
		sessions:    make(map[string]*Session),
		edits:       make(map[string]*EditBuffer),
		loader:      loader,
		store:       store,
		interval:    clockInterval,
		logger:      logger,
		idleTimeout: DefaultSessionIdleTimeout,
		sweep:       defaultSweepInterval,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, option := range options {
		option(sm)
	}
	return sm
}

// Start runs the eviction worker until Stop
func (sm *SessionManager) Start() {
	sm.logger.Debugf("closing viewer sessions idle for %s", sm.idleTimeout)
	sm.wg.Add(1)
	go sm.evictionWorker()
}

func (sm *SessionManager) evictionWorker() {
	defer sm.wg.Done()
	ticker := time.NewTicker(sm.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-sm.ctx.Done():
			return
		case <-ticker.C:
			sm.evictIdle()
		}
	}
}

// evictIdle closes sessions not touched within the idle timeout
func (sm *SessionManager) evictIdle() int {
	cutoff := sm.now().Add(-sm.idleTimeout)

	sm.mu.Lock()
	var idle []*Session
	for id, sess := range sm.sessions {
		if sess.lastSeen.Before(cutoff) {
			idle = append(idle, sess)
			delete(sm.sessions, id)
		}
	}
	remaining := len(sm.sessions)
	sm.mu.Unlock()

	for _, sess := range idle {
		sess.Viewer.Close()
	}
	if len(idle) > 0 {
		sm.logger.Infof("closed %d idle viewer sessions, %d open", len(idle), remaining)
	}
	return len(idle)
}

// LoadComparison fetches tracks and the (saved or seeded) edit buffer for contentID
func (sm *SessionManager) LoadComparison(ctx context.Context, contentID string) (*CompareResult, Selection, *EditBuffer, error) {
	cmp, err := sm.loader(ctx, contentID)
	if err != nil {
		return nil, Selection{}, nil, err
	}
	sel := SelectTracks(cmp.Tracks.Names())

	sm.mu.Lock()
	defer sm.mu.Unlock()

	buf, ok := sm.edits[contentID]
	if !ok || buf.Len() != cmp.Tracks.Get(sel.Benchmark).Len() {
		buf, err = LoadEditBuffer(sm.store, contentID, SeedBuffer(cmp.Tracks, sel))
		if err != nil {
			return nil, Selection{}, nil, err
		}
		if stale := buf.Stale(); stale != nil {
			sm.logger.Warnf("using seeded corrections: %v", stale)
		}
		sm.edits[contentID] = buf
	}
	return cmp, sel, buf, nil
}

// Create opens a session for contentID driven by a player of the given mode
func (sm *SessionManager) Create(ctx context.Context, contentID string, mode SourceMode, geo Geometry) (*Session, error) {
	cmp, sel, buf, err := sm.LoadComparison(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if geo.RowHeight <= 0 {
		geo.RowHeight = 48
	}
	if geo.ViewportHeight <= 0 {
		geo.ViewportHeight = 600
	}

	heights := make([]float64, cmp.Tracks.Get(sel.Benchmark).Len())
	for i := range heights {
		heights[i] = geo.RowHeight
	}
	vp := NewLineViewport(heights, geo.ViewportHeight)

	clock := NewClock(sm.interval, sm.logger)
	sess := &Session{
		ID:       uuid.NewString(),
		Viewport: vp,
		Viewer:   NewViewer(contentID, cmp.Title, cmp.Tracks, clock, vp, buf),
		lastSeen: sm.now(),
	}

	switch mode {
	case SourceLocalAudio:
		sess.Local = NewLocalPlayer()
		sess.Local.Load(0)
		clock.Switch(mode, sess.Local)
	default:
		mode = SourceRemoteVideo
		sess.Remote = NewRemotePlayer()
		clock.Switch(mode, sess.Remote)
	}

	sm.mu.Lock()
	if sm.stopped {
		sm.mu.Unlock()
		clock.Stop()
		return nil, ErrManagerStopped
	}
	sm.sessions[sess.ID] = sess
	sm.mu.Unlock()

	sm.logger.Infof("opened viewer session %s for %s (%s)", sess.ID, contentID, mode)
	return sess, nil
}

// Get returns a live session and marks it as in use
func (sm *SessionManager) Get(id string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sess, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = sm.now()
	return sess, nil
}

// Edits returns the shared edit buffer of a content id loaded earlier
func (sm *SessionManager) Edits(contentID string) (*EditBuffer, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	buf, ok := sm.edits[contentID]
	return buf, ok
}

// Close stops a session's clock and forgets it
func (sm *SessionManager) Close(id string) error {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.Viewer.Close()
	sm.logger.Infof("closed viewer session %s", id)
	return nil
}

// Stop ends the eviction worker and closes every session. Later Create calls fail.
func (sm *SessionManager) Stop() {
	sm.cancel()
	sm.wg.Wait()

	sm.mu.Lock()
	sm.stopped = true
	sessions := sm.sessions
	sm.sessions = make(map[string]*Session)
	sm.mu.Unlock()

	for _, sess := range sessions {
		sess.Viewer.Close()
	}
	sm.logger.Infof("closed %d viewer sessions", len(sessions))
}
