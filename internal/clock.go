package internal

import (
	"context"
	"sync"
	"time"
)

// DefaultClockInterval is how often the playback clock samples its player
const DefaultClockInterval = 200 * time.Millisecond

// Player is the capability set every media player variant exposes to the clock.
// Calls on a player that is not ready are ignored.
type Player interface {
	CurrentTime() float64
	SeekTo(t float64)
	Ready() bool
}

// RemotePlayer adapts an embedded video player that pushes its position to us
// (the page forwards postMessage time updates) and drains seek commands we queue.
type RemotePlayer struct {
	mu      sync.Mutex
	ready   bool
	last    float64
	pending *float64
}

// NewRemotePlayer returns a player that becomes ready on its first pushed sample
func NewRemotePlayer() *RemotePlayer {
	return &RemotePlayer{}
}

// Push records a time sample reported by the embedded player
func (p *RemotePlayer) Push(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = true
	if t >= 0 {
		p.last = t
	}
}

// MarkReady flags the player ready before any sample arrived
func (p *RemotePlayer) MarkReady() {
	p.mu.Lock()
	p.ready = true
	p.mu.Unlock()
}

// Ready reports whether the embedded player has announced itself
func (p *RemotePlayer) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// CurrentTime returns the last pushed position
func (p *RemotePlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// SeekTo queues a seek for the page to apply. Nothing waits for it; the next
// pushed sample shows the new position.
func (p *RemotePlayer) SeekTo(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return
	}
	if t < 0 {
		t = 0
	}
	p.pending = &t
}

// TakeSeek returns and clears the queued seek, if any
func (p *RemotePlayer) TakeSeek() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return 0, false
	}
	t := *p.pending
	p.pending = nil
	return t, true
}

// LocalPlayer is a wall-clock transport standing in for a native audio element:
// position = base + time elapsed since play.
type LocalPlayer struct {
	mu        sync.Mutex
	now       func() time.Time
	ready     bool
	playing   bool
	base      float64
	startedAt time.Time
	duration  float64 // 0 when unknown
}

// LocalPlayerOption customizes a LocalPlayer
type LocalPlayerOption func(*LocalPlayer)

// WithPlayerTimeSource replaces time.Now, mostly for tests
func WithPlayerTimeSource(now func() time.Time) LocalPlayerOption {
	return func(p *LocalPlayer) {
		p.now = now
	}
}

// NewLocalPlayer creates an unloaded local player
func NewLocalPlayer(options ...LocalPlayerOption) *LocalPlayer {
	p := &LocalPlayer{now: time.Now}
	for _, option := range options {
		option(p)
	}
	return p
}

// Load marks the media loaded. duration may be 0 when unknown.
func (p *LocalPlayer) Load(duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = true
	p.duration = duration
}

// Ready reports whether media has been loaded
func (p *LocalPlayer) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// Playing reports whether the transport is running
func (p *LocalPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// position computes the current position; callers hold p.mu
func (p *LocalPlayer) position() float64 {
	pos := p.base
	if p.playing {
		pos += p.now().Sub(p.startedAt).Seconds()
	}
	if p.duration > 0 && pos >= p.duration {
		pos = p.duration
	}
	return pos
}

// CurrentTime returns the transport position
func (p *LocalPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return 0
	}
	pos := p.position()
	if p.playing && p.duration > 0 && pos >= p.duration {
		// reached the end: freeze there
		p.playing = false
		p.base = p.duration
	}
	return pos
}

// Play starts or resumes the transport
func (p *LocalPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready || p.playing {
		return
	}
	p.startedAt = p.now()
	p.playing = true
}

// Pause freezes the transport at its current position
func (p *LocalPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready || !p.playing {
		return
	}
	p.base = p.position()
	p.playing = false
}

// SeekTo moves to t and resumes playing
func (p *LocalPlayer) SeekTo(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return
	}
	if t < 0 {
		t = 0
	}
	if p.duration > 0 && t > p.duration {
		t = p.duration
	}
	p.base = t
	p.startedAt = p.now()
	p.playing = true
}

// Clock normalizes a player into one polled time signal and one seek command.
// Exactly one polling loop runs at a time.
type Clock struct {
	switchMu sync.Mutex // serializes Switch and Stop

	mu       sync.Mutex
	interval time.Duration
	player   Player
	state    PlaybackState
	subs     []chan PlaybackState
	cancel   context.CancelFunc
	done     chan struct{}
	logger   Logger
}

// NewClock creates a stopped clock. interval <= 0 uses DefaultClockInterval.
func NewClock(interval time.Duration, logger Logger) *Clock {
	if interval <= 0 {
		interval = DefaultClockInterval
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Clock{interval: interval, logger: logger}
}

// Switch tears down the current polling loop and starts polling p under mode
func (c *Clock) Switch(mode SourceMode, p Player) {
	c.switchMu.Lock()
	defer c.switchMu.Unlock()

	c.stopLoop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.player = p
	c.state.SourceMode = mode
	c.state.IsPlayerReady = false
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.logger.Debugf("clock switched to %s source", mode)
	go c.loop(ctx, done)
}

// Stop ends polling and closes every subscription
func (c *Clock) Stop() {
	c.switchMu.Lock()
	defer c.switchMu.Unlock()

	c.stopLoop()

	c.mu.Lock()
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	c.player = nil
	c.state.IsPlayerReady = false
	c.mu.Unlock()
}

// stopLoop cancels the running loop and waits for it; callers hold switchMu
func (c *Clock) stopLoop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Clock) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sample()
		}
	}
}

// Sample reads the player once and publishes the result. An unready player
// leaves the cached time untouched.
func (c *Clock) Sample() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player != nil && c.player.Ready() {
		c.state.CurrentTime = c.player.CurrentTime()
		c.state.IsPlayerReady = true
	} else {
		c.state.IsPlayerReady = false
	}

	for _, ch := range c.subs {
		publish(ch, c.state)
	}
	return c.state
}

// publish delivers s without blocking, replacing a sample the reader has not taken yet
func publish(ch chan PlaybackState, s PlaybackState) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

// Subscribe returns a channel of samples. Slow readers see only the latest sample.
// The channel is closed by Stop.
func (c *Clock) Subscribe() <-chan PlaybackState {
	ch := make(chan PlaybackState, 1)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

// CurrentTime returns the last known position, 0 before any ready sample
func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CurrentTime
}

// State returns a copy of the playback state
func (c *Clock) State() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SeekTo asks the player to move to t and keep playing. It is a silent no-op
// while the player is not ready.
func (c *Clock) SeekTo(t float64) {
	c.mu.Lock()
	p := c.player
	c.mu.Unlock()

	if p == nil || !p.Ready() {
		return
	}
	p.SeekTo(t)
}
