package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type viewerFixture struct {
	server   *httptest.Server
	sessions *SessionManager
	store    *MemoryStore
}

func newViewerFixture(t *testing.T) *viewerFixture {
	t.Helper()

	loader := func(ctx context.Context, id string) (*CompareResult, error) {
		switch id {
		case "abc":
			return &CompareResult{Title: "Kenobi", Tracks: comparisonFixture()}, nil
		case "private":
			return nil, fmt.Errorf("fetching comparison %s: %w", id, &APIError{StatusCode: http.StatusForbidden})
		case "gone":
			return nil, fmt.Errorf("fetching comparison %s: %w", id, &APIError{StatusCode: http.StatusNotFound})
		default:
			return nil, fmt.Errorf("fetching comparison %s: connection refused", id)
		}
	}

	store := NewMemoryStore()
	sessions := NewSessionManager(loader, store, idleInterval, NopLogger())
	server := httptest.NewServer(NewViewerServer(sessions, store, NopLogger()))
	t.Cleanup(func() {
		server.Close()
		sessions.Stop()
	})
	return &viewerFixture{server: server, sessions: sessions, store: store}
}

func (f *viewerFixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeResponse[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (f *viewerFixture) createSession(t *testing.T, mode string) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/sessions", map[string]any{
		"content_id":      "abc",
		"mode":            mode,
		"row_height":      48,
		"viewport_height": 96,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeResponse[createSessionResponse](t, resp)
	require.NotEmpty(t, created.SessionID)
	return created.SessionID
}

func TestViewerServerCompare(t *testing.T) {
	f := newViewerFixture(t)

	resp := f.do(t, http.MethodGet, "/api/compare/abc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeResponse[compareResponse](t, resp)
	assert.Equal(t, "Kenobi", body.Title)
	assert.Equal(t, "reference", body.Selection.Benchmark)
	assert.True(t, body.Selection.Anchored)
	assert.Len(t, body.Rows, 3)
	assert.Equal(t, []string{"hello their", "general kenobi", "you are a bolt one"}, body.Edits)
	assert.False(t, body.Dirty)
}

func TestViewerServerErrorStatus(t *testing.T) {
	f := newViewerFixture(t)

	tests := []struct {
		id     string
		status int
	}{
		{"private", http.StatusForbidden},
		{"gone", http.StatusNotFound},
		{"offline", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			resp := f.do(t, http.MethodGet, "/api/compare/"+tt.id, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeResponse[errorResponse](t, resp)
			assert.NotEmpty(t, body.Error)
		})
	}

	resp := f.do(t, http.MethodGet, "/api/sessions/nope/state", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestViewerServerRemoteSession(t *testing.T) {
	f := newViewerFixture(t)
	sid := f.createSession(t, "remote-video")
	base := "/api/sessions/" + sid

	resp := f.do(t, http.MethodGet, base+"/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeResponse[stateResponse](t, resp)
	assert.False(t, state.Playback.IsPlayerReady)
	assert.Equal(t, 0, state.Frame.Active)

	resp = f.do(t, http.MethodPost, base+"/clock", timeRequest{Time: 30})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, base+"/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state = decodeResponse[stateResponse](t, resp)
	assert.True(t, state.Playback.IsPlayerReady)
	assert.Equal(t, SourceRemoteVideo, state.Playback.SourceMode)
	assert.Equal(t, 2, state.Frame.Active)
	require.NotNil(t, state.Frame.Row)
	assert.Equal(t, "you are a bold one", state.Frame.Row.Text)
	assert.Equal(t, Following, state.Follow)
	require.NotNil(t, state.Scroll, "following scrolls to the new row")
	assert.Equal(t, 48.0, state.Scroll.Top)
	assert.True(t, state.Scroll.Smooth)
	assert.Nil(t, state.Seek)

	resp = f.do(t, http.MethodPost, base+"/seek", timeRequest{Time: 2})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = f.do(t, http.MethodGet, base+"/state", nil)
	state = decodeResponse[stateResponse](t, resp)
	require.NotNil(t, state.Seek, "the page is told where to seek")
	assert.Equal(t, 2.0, *state.Seek)
	assert.Nil(t, state.Scroll)

	resp = f.do(t, http.MethodPost, base+"/play", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, base+"/state", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestViewerServerScrollAndResume(t *testing.T) {
	f := newViewerFixture(t)
	sid := f.createSession(t, "local-audio")
	base := "/api/sessions/" + sid

	resp := f.do(t, http.MethodPost, base+"/clock", timeRequest{Time: 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "local sessions have no remote clock")

	resp = f.do(t, http.MethodPost, base+"/scroll", scrollRequest{Top: 40})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	follow := decodeResponse[map[string]string](t, resp)
	assert.Equal(t, "paused", follow["follow"])

	resp = f.do(t, http.MethodGet, base+"/state", nil)
	state := decodeResponse[stateResponse](t, resp)
	assert.Equal(t, Paused, state.Follow)
	assert.True(t, state.ShowResume)
	assert.Nil(t, state.Scroll, "paused sessions never scroll")

	resp = f.do(t, http.MethodPost, base+"/resume", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	follow = decodeResponse[map[string]string](t, resp)
	assert.Equal(t, "following", follow["follow"])

	resp = f.do(t, http.MethodGet, base+"/state", nil)
	state = decodeResponse[stateResponse](t, resp)
	assert.False(t, state.ShowResume)
	require.NotNil(t, state.Scroll, "resume re-centers at once")
	assert.Equal(t, 0.0, state.Scroll.Top)
	assert.False(t, state.Scroll.Smooth)
}

func TestViewerServerEditSaveExport(t *testing.T) {
	f := newViewerFixture(t)
	f.createSession(t, "remote-video")

	resp := f.do(t, http.MethodPut, "/api/edits/abc/0", editRequest{Text: "hello there"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/edits/abc/3", editRequest{Text: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/edits/abc/first", editRequest{Text: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/compare/abc", nil)
	cmp := decodeResponse[compareResponse](t, resp)
	assert.True(t, cmp.Dirty, "sessions and edits share the buffer")
	assert.Equal(t, "hello there", cmp.Edits[0])

	resp = f.do(t, http.MethodPost, "/api/edits/abc/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decodeResponse[saveResponse](t, resp)
	assert.True(t, saved.Saved)
	assert.Equal(t, 2, saved.NoticeSeconds)

	raw, ok, err := f.store.Get(EditKey("abc"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["hello there", "general kenobi", "you are a bolt one"]`, raw)

	resp = f.do(t, http.MethodGet, "/api/edits/abc/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, SubtitleMIME, resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="corrected_abc.srt"`, resp.Header.Get("Content-Disposition"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t,
		"1\n00:00:00,000 --> 00:00:02,000\nhello there\n\n"+
			"2\n00:00:02,000 --> 00:00:04,000\ngeneral kenobi\n\n"+
			"3\n00:00:04,000 --> 00:00:07,000\nyou are a bolt one\n",
		string(data))
}

func TestViewerServerCorruptEditsFallBackToSeed(t *testing.T) {
	f := newViewerFixture(t)
	require.NoError(t, f.store.Set(EditKey("abc"), "{not json"))

	resp := f.do(t, http.MethodGet, "/api/compare/abc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cmp := decodeResponse[compareResponse](t, resp)
	assert.Equal(t, []string{"hello their", "general kenobi", "you are a bolt one"}, cmp.Edits)
	assert.Contains(t, cmp.EditsWarning, "parsing saved edits")

	f.createSession(t, "local-audio")

	resp = f.do(t, http.MethodPost, "/api/edits/abc/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _, err := f.store.Get(EditKey("abc"))
	require.NoError(t, err)
	assert.JSONEq(t, `["hello their", "general kenobi", "you are a bolt one"]`, raw)
}

func TestViewerServerRefusesToOverwriteMismatchedEdits(t *testing.T) {
	f := newViewerFixture(t)
	require.NoError(t, f.store.Set(EditKey("abc"), `["one", "two"]`))

	resp := f.do(t, http.MethodGet, "/api/compare/abc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cmp := decodeResponse[compareResponse](t, resp)
	assert.Len(t, cmp.Edits, 3)
	assert.NotEmpty(t, cmp.EditsWarning)

	resp = f.do(t, http.MethodPost, "/api/edits/abc/save", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	raw, _, err := f.store.Get(EditKey("abc"))
	require.NoError(t, err)
	assert.JSONEq(t, `["one", "two"]`, raw)
}

func TestSessionManagerEvictsIdleSessions(t *testing.T) {
	loader := func(ctx context.Context, id string) (*CompareResult, error) {
		return &CompareResult{Title: "Kenobi", Tracks: comparisonFixture()}, nil
	}
	clock := &fakeTime{now: time.Unix(0, 0)}
	sm := NewSessionManager(loader, NewMemoryStore(), idleInterval, NopLogger(),
		WithIdleTimeout(time.Minute), WithSessionTimeSource(clock.Now))
	t.Cleanup(sm.Stop)

	ctx := context.Background()
	stale, err := sm.Create(ctx, "abc", SourceRemoteVideo, Geometry{})
	require.NoError(t, err)
	samples := stale.Viewer.Clock.Subscribe()

	clock.Advance(40 * time.Second)
	active, err := sm.Create(ctx, "abc", SourceLocalAudio, Geometry{})
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	_, err = sm.Get(active.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sm.evictIdle())

	_, err = sm.Get(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	select {
	case <-drain(samples):
	case <-time.After(time.Second):
		t.Fatal("idle session clock still running")
	}

	clock.Advance(59 * time.Second)
	assert.Equal(t, 0, sm.evictIdle(), "polling keeps a session open")
	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, sm.evictIdle())
}

func TestSessionManagerEvictionWorker(t *testing.T) {
	loader := func(ctx context.Context, id string) (*CompareResult, error) {
		return &CompareResult{Title: "Kenobi", Tracks: comparisonFixture()}, nil
	}
	sm := NewSessionManager(loader, NewMemoryStore(), idleInterval, NopLogger(),
		WithIdleTimeout(time.Millisecond), WithSweepInterval(5*time.Millisecond))
	sm.Start()
	t.Cleanup(sm.Stop)

	sess, err := sm.Create(context.Background(), "abc", SourceRemoteVideo, Geometry{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		sm.mu.RLock()
		defer sm.mu.RUnlock()
		_, open := sm.sessions[sess.ID]
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionManagerRejectsSessionsAfterStop(t *testing.T) {
	f := newViewerFixture(t)
	f.sessions.Stop()

	_, err := f.sessions.Create(context.Background(), "abc", SourceRemoteVideo, Geometry{})
	assert.ErrorIs(t, err, ErrManagerStopped)

	f.sessions.mu.RLock()
	defer f.sessions.mu.RUnlock()
	assert.Empty(t, f.sessions.sessions)
}

func TestSessionManagerStop(t *testing.T) {
	f := newViewerFixture(t)
	sid := f.createSession(t, "remote-video")

	sess, err := f.sessions.Get(sid)
	require.NoError(t, err)
	samples := sess.Viewer.Clock.Subscribe()

	f.sessions.Stop()

	_, err = f.sessions.Get(sid)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.sessions.Close(sid), ErrSessionNotFound)

	select {
	case <-drain(samples):
	case <-time.After(time.Second):
		t.Fatal("session clock still running")
	}
}

// drain closes the returned channel once samples is closed
func drain(samples <-chan PlaybackState) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for range samples {
		}
		close(done)
	}()
	return done
}
