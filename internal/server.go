package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ViewerServer exposes viewer sessions and the edit/export layer over HTTP for
// a browser page that embeds the player.
type ViewerServer struct {
	sessions *SessionManager
	store    Store
	logger   Logger
}

// NewViewerServer builds the router
func NewViewerServer(sessions *SessionManager, store Store, logger Logger) http.Handler {
	s := &ViewerServer{
		sessions: sessions,
		store:    store,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/compare/{id}", s.handleCompare)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{sid}", func(r chi.Router) {
				r.Get("/state", s.handleState)
				r.Post("/clock", s.handleClock)
				r.Post("/seek", s.handleSeek)
				r.Post("/play", s.handlePlay)
				r.Post("/pause", s.handlePause)
				r.Post("/scroll", s.handleScroll)
				r.Post("/resume", s.handleResume)
				r.Delete("/", s.handleCloseSession)
			})
		})

		r.Route("/edits/{id}", func(r chi.Router) {
			r.Put("/{index}", s.handleEdit)
			r.Post("/save", s.handleSave)
			r.Get("/export", s.handleExport)
		})
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps failures to a status: auth problems stay distinct from
// generic backend trouble
func (s *ViewerServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrIndexOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, ErrEditsMismatch):
		status = http.StatusConflict
	case errors.Is(err, ErrManagerStopped):
		status = http.StatusServiceUnavailable
	}
	s.logger.Warnf("%s %s: %v", r.Method, r.URL.Path, err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

type compareResponse struct {
	ContentID string    `json:"content_id"`
	Title     string    `json:"title"`
	YouTubeID string    `json:"youtube_id,omitempty"`
	MediaPath string    `json:"media_path,omitempty"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Selection Selection `json:"selection"`
	Rows      []Row     `json:"rows"`
	Edits     []string  `json:"edits"`
	Dirty     bool      `json:"dirty"`
	// set when saved corrections could not be used and the seed is shown
	EditsWarning string `json:"edits_warning,omitempty"`
}

func (s *ViewerServer) handleCompare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cmp, sel, buf, err := s.sessions.LoadComparison(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var warning string
	if stale := buf.Stale(); stale != nil {
		warning = stale.Error()
	}
	writeJSON(w, http.StatusOK, compareResponse{
		ContentID: id,
		Title:     cmp.Title,
		YouTubeID: cmp.YouTubeID,
		MediaPath: cmp.MediaPath,
		Thumbnail: cmp.Thumbnail,
		Selection: sel,
		Rows:      Rows(cmp.Tracks, sel),
		Edits:     buf.Texts(),
		Dirty:     buf.Dirty(),

		EditsWarning: warning,
	})
}

type createSessionRequest struct {
	ContentID string `json:"content_id"`
	Mode      string `json:"mode"`
	Geometry
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *ViewerServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.ContentID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "content_id is required"})
		return
	}
	mode := SourceRemoteVideo
	if req.Mode != "" {
		parsed, err := ParseSourceMode(req.Mode)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		mode = parsed
	}

	// the session outlives this request
	sess, err := s.sessions.Create(context.WithoutCancel(r.Context()), req.ContentID, mode, req.Geometry)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: sess.ID})
}

func (s *ViewerServer) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sid"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

type scrollCommand struct {
	Top    float64 `json:"top"`
	Smooth bool    `json:"smooth"`
}

type stateResponse struct {
	Playback   PlaybackState  `json:"playback"`
	Frame      Frame          `json:"frame"`
	Follow     FollowState    `json:"follow"`
	ShowResume bool           `json:"show_resume"`
	Seek       *float64       `json:"seek,omitempty"`
	Scroll     *scrollCommand `json:"scroll,omitempty"`
	Dirty      bool           `json:"dirty"`
}

// handleState is polled by the page. It advances the viewer one tick and hands
// back any seek or scroll the page has to apply.
func (s *ViewerServer) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	// each poll is also a clock sample
	sess.Viewer.Clock.Sample()
	frame := sess.Viewer.Tick()
	resp := stateResponse{
		Playback:   sess.Viewer.Clock.State(),
		Frame:      frame,
		Follow:     sess.Viewer.Sync.State(),
		ShowResume: sess.Viewer.Sync.ShowResume(),
		Dirty:      sess.Viewer.Edits.Dirty(),
	}
	if sess.Remote != nil {
		if t, ok := sess.Remote.TakeSeek(); ok {
			resp.Seek = &t
		}
	}
	if top, smooth, ok := sess.Viewport.TakeScroll(); ok {
		resp.Scroll = &scrollCommand{Top: top, Smooth: smooth}
	}
	writeJSON(w, http.StatusOK, resp)
}

type timeRequest struct {
	Time float64 `json:"time"`
}

func (s *ViewerServer) handleClock(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if sess.Remote == nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "session is not in remote-video mode"})
		return
	}
	var req timeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	sess.Remote.Push(req.Time)
	w.WriteHeader(http.StatusNoContent)
}

func (s *ViewerServer) handleSeek(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req timeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	sess.Viewer.Seek(req.Time)
	w.WriteHeader(http.StatusAccepted)
}

func (s *ViewerServer) handlePlay(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if sess.Local == nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "session is not in local-audio mode"})
		return
	}
	sess.Local.Play()
	w.WriteHeader(http.StatusNoContent)
}

func (s *ViewerServer) handlePause(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if sess.Local == nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "session is not in local-audio mode"})
		return
	}
	sess.Local.Pause()
	w.WriteHeader(http.StatusNoContent)
}

type scrollRequest struct {
	Top float64 `json:"top"`
}

// handleScroll receives the page's scroll events
func (s *ViewerServer) handleScroll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req scrollRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	sess.Viewport.SetScrollTop(req.Top)
	sess.Viewer.Sync.OnScroll()
	writeJSON(w, http.StatusOK, map[string]FollowState{"follow": sess.Viewer.Sync.State()})
}

func (s *ViewerServer) handleResume(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Viewer.Resume()
	writeJSON(w, http.StatusOK, map[string]FollowState{"follow": sess.Viewer.Sync.State()})
}

func (s *ViewerServer) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "sid")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// editBuffer returns the content's buffer, loading it if no session did yet
func (s *ViewerServer) editBuffer(r *http.Request) (*EditBuffer, *Track, error) {
	id := chi.URLParam(r, "id")
	cmp, sel, buf, err := s.sessions.LoadComparison(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	return buf, cmp.Tracks.Get(sel.Benchmark), nil
}

type editRequest struct {
	Text string `json:"text"`
}

func (s *ViewerServer) handleEdit(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "index must be an integer"})
		return
	}
	var req editRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	buf, ok := s.sessions.Edits(chi.URLParam(r, "id"))
	if !ok {
		buf, _, err = s.editBuffer(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if err := buf.Edit(index, req.Text); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type saveResponse struct {
	Saved         bool   `json:"saved"`
	NoticeSeconds int    `json:"notice_seconds"`
	Message       string `json:"message"`
}

func (s *ViewerServer) handleSave(w http.ResponseWriter, r *http.Request) {
	buf, ok := s.sessions.Edits(chi.URLParam(r, "id"))
	if !ok {
		var err error
		buf, _, err = s.editBuffer(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if stale := buf.Stale(); errors.Is(stale, ErrEditsMismatch) {
		s.writeError(w, r, stale)
		return
	}
	if err := buf.Save(s.store); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{
		Saved:         true,
		NoticeSeconds: int(SaveNoticeDuration / time.Second),
		Message:       "Saved",
	})
}

func (s *ViewerServer) handleExport(w http.ResponseWriter, r *http.Request) {
	buf, bench, err := s.editBuffer(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := ExportSRT(bench, buf)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", SubtitleMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename(buf.ContentID())))
	w.Write(data)
}
