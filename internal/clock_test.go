package internal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlayer is a Player whose readiness and position are set by the test
type fakePlayer struct {
	mu    sync.Mutex
	ready bool
	now   float64
	seeks []float64
}

func (p *fakePlayer) set(ready bool, now float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready, p.now = ready, now
}

func (p *fakePlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

func (p *fakePlayer) SeekTo(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, t)
}

func (p *fakePlayer) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

func (p *fakePlayer) seekCalls() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.seeks...)
}

// idleInterval keeps the polling loop to its initial sample
const idleInterval = time.Hour

func TestClockColdStart(t *testing.T) {
	clock := NewClock(idleInterval, nil)
	defer clock.Stop()

	state := clock.Sample()
	assert.Equal(t, 0.0, state.CurrentTime)
	assert.False(t, state.IsPlayerReady)
	assert.Equal(t, 0.0, clock.CurrentTime())

	// seeking with no player is silently ignored
	clock.SeekTo(12)
}

func TestClockUnreadyKeepsCachedTime(t *testing.T) {
	player := &fakePlayer{}
	player.set(true, 12.5)

	clock := NewClock(idleInterval, nil)
	defer clock.Stop()
	clock.Switch(SourceRemoteVideo, player)

	state := clock.Sample()
	assert.Equal(t, 12.5, state.CurrentTime)
	assert.True(t, state.IsPlayerReady)
	assert.Equal(t, SourceRemoteVideo, state.SourceMode)

	player.set(false, 99)
	state = clock.Sample()
	assert.Equal(t, 12.5, state.CurrentTime, "unready player leaves the last value")
	assert.False(t, state.IsPlayerReady)

	clock.SeekTo(40)
	assert.Empty(t, player.seekCalls(), "seek while unready is a no-op")

	player.set(true, 20)
	assert.Equal(t, 20.0, clock.Sample().CurrentTime, "next sample reflects the live value")

	clock.SeekTo(40)
	assert.Equal(t, []float64{40}, player.seekCalls())
}

func TestClockPollsPlayer(t *testing.T) {
	player := &fakePlayer{}
	player.set(true, 3)

	clock := NewClock(time.Millisecond, nil)
	defer clock.Stop()
	clock.Switch(SourceLocalAudio, player)

	player.set(true, 8)
	assert.Eventually(t, func() bool {
		return clock.CurrentTime() == 8
	}, time.Second, time.Millisecond)
}

func TestClockSwitchReplacesSource(t *testing.T) {
	remote := &fakePlayer{}
	remote.set(true, 5)
	local := &fakePlayer{}
	local.set(true, 50)

	clock := NewClock(idleInterval, nil)
	defer clock.Stop()

	clock.Switch(SourceRemoteVideo, remote)
	assert.Equal(t, 5.0, clock.Sample().CurrentTime)

	clock.Switch(SourceLocalAudio, local)
	state := clock.Sample()
	assert.Equal(t, SourceLocalAudio, state.SourceMode)
	assert.Equal(t, 50.0, state.CurrentTime)

	clock.SeekTo(1)
	assert.Empty(t, remote.seekCalls())
	assert.Equal(t, []float64{1}, local.seekCalls())
}

func TestClockSubscribeCoalesces(t *testing.T) {
	player := &fakePlayer{}
	player.set(true, 1)

	clock := NewClock(idleInterval, nil)
	samples := clock.Subscribe()
	clock.Switch(SourceRemoteVideo, player)

	clock.Sample()
	player.set(true, 2)
	clock.Sample()

	select {
	case s := <-samples:
		assert.Equal(t, 2.0, s.CurrentTime, "a slow reader only sees the latest sample")
	case <-time.After(time.Second):
		t.Fatal("no sample delivered")
	}

	clock.Stop()
	closed := make(chan struct{})
	go func() {
		for range samples {
		}
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Stop did not close the subscription")
	}
}

func TestRemotePlayer(t *testing.T) {
	p := NewRemotePlayer()

	p.SeekTo(10)
	_, ok := p.TakeSeek()
	assert.False(t, ok, "seek before the player announced itself is dropped")
	assert.False(t, p.Ready())

	p.Push(4)
	assert.True(t, p.Ready())
	assert.Equal(t, 4.0, p.CurrentTime())

	p.Push(-1)
	assert.Equal(t, 4.0, p.CurrentTime(), "negative samples are ignored")

	p.SeekTo(-3)
	seek, ok := p.TakeSeek()
	require.True(t, ok)
	assert.Equal(t, 0.0, seek)

	_, ok = p.TakeSeek()
	assert.False(t, ok)
}

func TestLocalPlayer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := NewLocalPlayer(WithPlayerTimeSource(func() time.Time { return now }))

	p.Play()
	assert.False(t, p.Playing(), "cannot play before load")
	assert.Equal(t, 0.0, p.CurrentTime())

	p.Load(20)
	p.Play()
	now = now.Add(3 * time.Second)
	assert.InDelta(t, 3.0, p.CurrentTime(), 1e-9)

	p.Pause()
	now = now.Add(2 * time.Second)
	assert.InDelta(t, 3.0, p.CurrentTime(), 1e-9)

	p.SeekTo(10)
	assert.True(t, p.Playing(), "seek resumes playback")
	now = now.Add(500 * time.Millisecond)
	assert.InDelta(t, 10.5, p.CurrentTime(), 1e-9)

	now = now.Add(time.Minute)
	assert.Equal(t, 20.0, p.CurrentTime(), "position stops at the end")
	assert.False(t, p.Playing())

	p.SeekTo(-5)
	assert.Equal(t, 0.0, p.CurrentTime())
}
