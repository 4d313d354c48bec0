package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNotAuthorized is returned for 401/403 responses, e.g. a wrong admin key
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNotFound is returned for 404 responses
	ErrNotFound = errors.New("not found")
	// ErrTaskFailed is returned when the backend reports a failed task
	ErrTaskFailed = errors.New("task failed")
)

// TaskStatus is the processing state reported by /result/{id}
type TaskStatus string

const (
	StatusQueued     TaskStatus = "queued"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether polling should stop
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Processing modes accepted by /process and /upload
var ValidModes = []string{"transcribe", "summarize"}

// APIError is a non-2xx backend response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps status codes onto the sentinel errors
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrNotAuthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// ProcessRequest is the body of POST /process
type ProcessRequest struct {
	URL      string `json:"url"`
	Mode     string `json:"mode"`
	UserID   string `json:"user_id,omitempty"`
	IsPublic *bool  `json:"is_public,omitempty"`
}

// UploadOptions are the form fields sent with POST /upload
type UploadOptions struct {
	Mode     string
	UserID   string
	IsPublic *bool
}

type taskResponse struct {
	TaskID string `json:"task_id"`
}

// Result is the response of GET /result/{id}
type Result struct {
	Status     TaskStatus  `json:"status"`
	Progress   *float64    `json:"progress,omitempty"`
	ETA        *float64    `json:"eta,omitempty"`
	Title      string      `json:"title"`
	YouTubeID  string      `json:"youtube_id,omitempty"`
	MediaPath  string      `json:"media_path,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs,omitempty"`
	Subtitles  []Segment   `json:"subtitles,omitempty"`
	Summary    string      `json:"summary,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// SubtitleTrack returns the result's subtitles as a single track
func (r *Result) SubtitleTrack() *Track {
	return NewTrack("subtitles", r.Subtitles)
}

// CompareResult is the response of GET /dev/compare/{id}
type CompareResult struct {
	Title     string   `json:"title"`
	YouTubeID string   `json:"youtube_id,omitempty"`
	MediaPath string   `json:"media_path,omitempty"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Tracks    TrackSet `json:"-"`
}

// Item is an entry of the history, bookshelf or admin task lists
type Item struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	YouTubeID string     `json:"youtube_id,omitempty"`
	Status    TaskStatus `json:"status,omitempty"`
	Mode      string     `json:"mode,omitempty"`
	Thumbnail string     `json:"thumbnail,omitempty"`
	IsPublic  bool       `json:"is_public,omitempty"`
	CreatedAt string     `json:"created_at,omitempty"`
}

// Client talks to the transcription backend over HTTP/JSON
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	adminKey   string
	language   string
	logger     Logger
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sends the session token as a bearer token
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithAdminKey sends key on /admin requests
func WithAdminKey(key string) ClientOption {
	return func(c *Client) {
		c.adminKey = key
	}
}

// WithLanguage sets Accept-Language for localized backend messages
func WithLanguage(lang string) ClientOption {
	return func(c *Client) {
		c.language = lang
	}
}

// WithLogger sets the client logger
func WithLogger(logger Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a backend client for baseURL
func NewClient(baseURL string, timeout time.Duration, options ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend URL must be http or https: %s", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		logger:     NopLogger(),
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

// endpoint joins path segments onto the base URL, escaping each one
func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL.JoinPath(escaped...).String()
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}
	return req, nil
}

// do sends req and decodes a JSON response into out (when non-nil)
func (c *Client) do(req *http.Request, out any) error {
	c.logger.Debugf("%s %s", req.Method, req.URL.Redacted())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}

// apiError builds an APIError, preferring the backend's "detail"/"error" message
func (c *Client) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		for _, msg := range []string{payload.Detail, payload.Error, payload.Message} {
			if msg != "" {
				apiErr.Message = msg
				break
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// Process submits a URL for processing and returns the task id
func (c *Client) Process(ctx context.Context, pr ProcessRequest) (string, error) {
	body, err := json.Marshal(pr)
	if err != nil {
		return "", fmt.Errorf("marshaling process request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("process"), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var tr taskResponse
	if err := c.do(req, &tr); err != nil {
		return "", fmt.Errorf("submitting %s: %w", pr.URL, err)
	}
	if tr.TaskID == "" {
		return "", fmt.Errorf("submitting %s: backend returned no task id", pr.URL)
	}
	return tr.TaskID, nil
}

// Upload streams a media file to the backend and returns the task id
func (c *Client) Upload(ctx context.Context, path string, opts UploadOptions) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	// the body is produced while the request is being sent
	go func() {
		pw.CloseWithError(writeUploadForm(form, file, filepath.Base(path), opts))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("upload"), pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var tr taskResponse
	if err := c.do(req, &tr); err != nil {
		pr.CloseWithError(err)
		return "", fmt.Errorf("uploading %s: %w", path, err)
	}
	if tr.TaskID == "" {
		return "", fmt.Errorf("uploading %s: backend returned no task id", path)
	}
	return tr.TaskID, nil
}

func writeUploadForm(form *multipart.Writer, file io.Reader, filename string, opts UploadOptions) error {
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}

	fields := map[string]string{"mode": opts.Mode}
	if opts.UserID != "" {
		fields["user_id"] = opts.UserID
	}
	if opts.IsPublic != nil {
		fields["is_public"] = fmt.Sprintf("%t", *opts.IsPublic)
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return err
		}
	}
	return form.Close()
}

// Result fetches the status and, once completed, the content of a task
func (c *Client) Result(ctx context.Context, id string) (*Result, error) {
	var res Result
	if err := c.getJSON(ctx, c.endpoint("result", id), &res); err != nil {
		return nil, fmt.Errorf("fetching result %s: %w", id, err)
	}
	return &res, nil
}

// Compare fetches every model's track for a content id
func (c *Client) Compare(ctx context.Context, id string) (*CompareResult, error) {
	var raw struct {
		CompareResult
		Models json.RawMessage `json:"models"`
	}
	if err := c.getJSON(ctx, c.endpoint("dev", "compare", id), &raw); err != nil {
		return nil, fmt.Errorf("fetching comparison %s: %w", id, err)
	}

	tracks, err := ParseTrackSet(raw.Models)
	if err != nil {
		return nil, fmt.Errorf("parsing comparison %s: %w", id, err)
	}
	res := raw.CompareResult
	res.Tracks = tracks
	return &res, nil
}

func (c *Client) listItems(ctx context.Context, path, userID string) ([]Item, error) {
	target := c.endpoint(path)
	if userID != "" {
		target += "?" + url.Values{"user_id": {userID}}.Encode()
	}

	var items []Item
	if err := c.getJSON(ctx, target, &items); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	return items, nil
}

// History lists the user's submitted tasks
func (c *Client) History(ctx context.Context, userID string) ([]Item, error) {
	return c.listItems(ctx, "history", userID)
}

// Bookshelf lists the user's completed transcripts
func (c *Client) Bookshelf(ctx context.Context, userID string) ([]Item, error) {
	return c.listItems(ctx, "bookshelf", userID)
}

func (c *Client) adminGet(ctx context.Context, path string, out any) error {
	if c.adminKey == "" {
		return fmt.Errorf("admin key is not set: %w", ErrNotAuthorized)
	}
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("admin", path), nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Admin-Key", c.adminKey)
	if err := c.do(req, out); err != nil {
		return fmt.Errorf("fetching admin %s: %w", path, err)
	}
	return nil
}

// AdminStats returns the backend's usage counters
func (c *Client) AdminStats(ctx context.Context) (map[string]any, error) {
	stats := map[string]any{}
	if err := c.adminGet(ctx, "stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// AdminTasks lists every user's tasks
func (c *Client) AdminTasks(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := c.adminGet(ctx, "tasks", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// WaitForResult polls /result/{id} every interval until the task completes or
// fails. A failed poll is logged and retried on the next tick.
func (c *Client) WaitForResult(ctx context.Context, id string, interval time.Duration, onUpdate func(*Result)) (*Result, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := c.Result(ctx, id)
		switch {
		case err == nil:
			if onUpdate != nil {
				onUpdate(res)
			}
			if res.Status == StatusCompleted {
				return res, nil
			}
			if res.Status == StatusFailed {
				if res.Error != "" {
					return res, fmt.Errorf("%w: %s", ErrTaskFailed, res.Error)
				}
				return res, ErrTaskFailed
			}
		case errors.Is(err, ErrNotAuthorized), errors.Is(err, ErrNotFound):
			return nil, err
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			c.logger.Warnf("polling %s: %v", id, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
