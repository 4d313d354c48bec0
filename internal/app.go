package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// App holds the application state and dependencies
type App struct {
	client        *Client
	store         Store
	media         *Media
	ai            *AI
	promptManager *PromptManager
	config        *Config
	prefs         Preferences
	ui            UIManager
	logger        Logger
}

// AppOption customizes App creation
type AppOption func(*App)

// WithStore replaces the file-backed store
func WithStore(store Store) AppOption {
	return func(a *App) {
		a.store = store
	}
}

// WithClient sets a custom backend client
func WithClient(client *Client) AppOption {
	return func(a *App) {
		a.client = client
	}
}

// WithAI sets a custom AI processor
func WithAI(ai *AI) AppOption {
	return func(a *App) {
		a.ai = ai
	}
}

// WithUI sets a custom UI manager
func WithUI(ui UIManager) AppOption {
	return func(a *App) {
		a.ui = ui
	}
}

// WithAppLogger sets the logger
func WithAppLogger(logger Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithMedia sets a custom media prober
func WithMedia(media *Media) AppOption {
	return func(a *App) {
		a.media = media
	}
}

// NewApp initializes the application. The backend client picks up the stored
// session token, admin key and language preference.
func NewApp(config *Config, options ...AppOption) (*App, error) {
	app := &App{
		media:         NewMedia(&DefaultCommandRunner{}),
		ai:            NewAIWithKey(config.OpenAIAPIKey, config.SummaryModel, config.SummaryTimeout),
		promptManager: NewPromptManager(config.ConfigDir, config.Prompt),
		config:        config,
		ui:            NewUIManager(config.Verbose, config.Quiet),
		logger:        NewLogger(config.EffectiveLogLevel(), os.Stderr),
	}

	for _, option := range options {
		option(app)
	}

	if app.store == nil {
		store, err := NewFileStore(config.StoreDir)
		if err != nil {
			return nil, err
		}
		app.store = store
	}

	prefs, err := LoadPreferences(app.store)
	if err != nil {
		return nil, err
	}
	app.prefs = prefs

	if app.client == nil {
		client, err := app.newClient()
		if err != nil {
			return nil, err
		}
		app.client = client
	}

	return app, nil
}

func (app *App) newClient() (*Client, error) {
	token, _, err := app.store.Get(KeyAuthToken)
	if err != nil {
		return nil, err
	}
	adminKey, _, err := app.store.Get(KeyAdminKey)
	if err != nil {
		return nil, err
	}
	return NewClient(app.config.BackendURL, app.config.RequestTimeout,
		WithToken(token),
		WithAdminKey(adminKey),
		WithLanguage(app.prefs.Language),
		WithLogger(app.logger),
	)
}

// Client returns the backend client
func (app *App) Client() *Client {
	return app.client
}

// Store returns the persisted key-value store
func (app *App) Store() Store {
	return app.store
}

// Preferences returns the loaded preferences
func (app *App) Preferences() Preferences {
	return app.prefs
}

// Logger returns the app logger
func (app *App) Logger() Logger {
	return app.logger
}

// UI returns the UI manager
func (app *App) UI() UIManager {
	return app.ui
}

// SetPromptManager sets a new prompt manager
func (app *App) SetPromptManager(pm *PromptManager) {
	app.promptManager = pm
}

// SetSummaryModel overrides the configured re-summary model
func (app *App) SetSummaryModel(model string) {
	app.ai.SetModel(model)
}

func (app *App) isPublic(public *bool) *bool {
	if public != nil {
		return public
	}
	v := app.config.Public
	return &v
}

// Submit sends a YouTube video for processing and returns the task id
func (app *App) Submit(ctx context.Context, arg, mode string, public *bool) (string, error) {
	parsed := ParseInput(arg)
	if !parsed.IsValid() {
		return "", parsed.Error
	}
	if parsed.ContentType == ContentTypePlaylist {
		return "", fmt.Errorf("playlists are not supported, submit the videos one by one")
	}
	if mode == "" {
		mode = app.config.DefaultMode
	}

	app.ui.Verbose("Submitting %s (%s)\n", parsed.ID, mode)
	return app.client.Process(ctx, ProcessRequest{
		URL:      parsed.NormalizedURL,
		Mode:     mode,
		UserID:   app.config.UserID,
		IsPublic: app.isPublic(public),
	})
}

// Upload sends a local media file for processing and returns the task id
func (app *App) Upload(ctx context.Context, path, mode string, public *bool) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if !IsMediaFile(path) {
		return "", fmt.Errorf("%s is not a supported media file (%s)", filepath.Base(path), strings.Join(MediaExtensions, ", "))
	}
	if mode == "" {
		mode = app.config.DefaultMode
	}

	// duration is informational; ffprobe may be missing
	if duration, err := app.media.Duration(ctx, path); err == nil {
		app.ui.Verbose("Uploading %s (%s, %.1f MiB)\n", filepath.Base(path), FormatClock(duration), float64(info.Size())/(1<<20))
	} else {
		app.logger.Debugf("probing %s: %v", path, err)
	}

	spinner := app.ui.NewSpinner("Uploading " + filepath.Base(path))
	defer spinner.Finish()

	return app.client.Upload(ctx, path, UploadOptions{
		Mode:     mode,
		UserID:   app.config.UserID,
		IsPublic: app.isPublic(public),
	})
}

// Status fetches a task's current result
func (app *App) Status(ctx context.Context, id string) (*Result, error) {
	return app.client.Result(ctx, id)
}

// Wait polls a task until it finishes, showing backend progress
func (app *App) Wait(ctx context.Context, id string) (*Result, error) {
	bar := app.ui.NewProgressBar(100, "Queued")
	defer bar.Finish()

	return app.client.WaitForResult(ctx, id, app.config.PollInterval, func(res *Result) {
		bar.Describe(describeProgress(res))
		if res.Progress != nil {
			bar.Set(int(*res.Progress))
		}
	})
}

func describeProgress(res *Result) string {
	desc := "Waiting"
	if s := string(res.Status); s != "" {
		desc = strings.ToUpper(s[:1]) + s[1:]
	}
	if res.ETA != nil && *res.ETA > 0 {
		desc += fmt.Sprintf(" (ETA %s)", FormatClock(*res.ETA))
	}
	return desc
}

// LoadCompare fetches every track of a content id. When referencePath is set,
// that SRT file is added as the reference track, which then anchors the view.
func (app *App) LoadCompare(ctx context.Context, id, referencePath string) (*CompareResult, Selection, error) {
	cmp, err := app.client.Compare(ctx, id)
	if err != nil {
		return nil, Selection{}, err
	}

	if referencePath != "" {
		ref, err := readReference(referencePath)
		if err != nil {
			return nil, Selection{}, err
		}
		cmp.Tracks = cmp.Tracks.With(ref)
	}

	if cmp.Tracks.Len() == 0 {
		return nil, Selection{}, fmt.Errorf("no tracks to compare for %s", id)
	}
	return cmp, SelectTracks(cmp.Tracks.Names()), nil
}

func readReference(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reference subtitles: %w", err)
	}
	defer f.Close()

	track, err := ParseSRT(ReferenceTrack, f)
	if err != nil {
		return nil, fmt.Errorf("reading reference subtitles %s: %w", path, err)
	}
	return track, nil
}

// LoadEdits returns the comparison together with its saved or seeded edit buffer
func (app *App) LoadEdits(ctx context.Context, id, referencePath string) (*CompareResult, Selection, *EditBuffer, error) {
	cmp, sel, err := app.LoadCompare(ctx, id, referencePath)
	if err != nil {
		return nil, Selection{}, nil, err
	}
	buf, err := LoadEditBuffer(app.store, id, SeedBuffer(cmp.Tracks, sel))
	if err != nil {
		return nil, Selection{}, nil, err
	}
	if err := buf.Stale(); err != nil {
		app.logger.Warnf("using seeded corrections: %v", err)
	}
	return cmp, sel, buf, nil
}

// EditSegment replaces one segment's correction and saves the buffer.
// Corrections saved against a different benchmark are never overwritten.
func (app *App) EditSegment(ctx context.Context, id, referencePath string, index int, text string) error {
	_, _, buf, err := app.LoadEdits(ctx, id, referencePath)
	if err != nil {
		return err
	}
	if err := buf.Stale(); errors.Is(err, ErrEditsMismatch) {
		return fmt.Errorf("not saving segment %d: %w (use the same --reference as before, or --reset)", index+1, err)
	}
	if err := buf.Edit(index, text); err != nil {
		return err
	}
	return buf.Save(app.store)
}

// ResetEdits discards saved corrections so the seed applies again
func (app *App) ResetEdits(id string) error {
	return app.store.Delete(EditKey(id))
}

// Export renders the corrections of a content id as SRT
func (app *App) Export(ctx context.Context, id, referencePath string, w io.Writer) error {
	cmp, sel, buf, err := app.LoadEdits(ctx, id, referencePath)
	if err != nil {
		return err
	}
	return WriteSRT(w, cmp.Tracks.Get(sel.Benchmark), buf.Texts())
}

// TranscriptText returns a completed task's transcript as plain text,
// paragraph by paragraph when the backend grouped it.
func (app *App) TranscriptText(ctx context.Context, id string) (string, error) {
	res, err := app.client.Result(ctx, id)
	if err != nil {
		return "", err
	}
	if res.Status != StatusCompleted {
		return "", fmt.Errorf("%s is %s, not completed yet", id, res.Status)
	}
	text := app.Prose(res)
	if text == "" {
		return "", fmt.Errorf("%s has no transcript", id)
	}
	return text, nil
}

// Prose renders a result's paragraphs separated by the density preference
func (app *App) Prose(res *Result) string {
	paragraphs := res.Paragraphs
	if len(paragraphs) == 0 {
		paragraphs = GroupParagraphs(res.SubtitleTrack(), 2.0, 8)
	}

	sep := "\n" + strings.Repeat("\n", app.prefs.ParagraphSpacing())
	parts := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if text := p.Text(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, sep)
}

// RenderMarkdown renders with the theme preference
func (app *App) RenderMarkdown(content string) (string, error) {
	return RenderMarkdown(content, app.prefs.Theme)
}

// Resummarize summarizes the user's corrected transcript with OpenAI
func (app *App) Resummarize(ctx context.Context, id string) (string, error) {
	cmp, _, buf, err := app.LoadEdits(ctx, id, "")
	if err != nil {
		return "", err
	}

	transcript := strings.TrimSpace(strings.Join(buf.Texts(), "\n"))
	if transcript == "" {
		return "", fmt.Errorf("transcript is empty")
	}

	prompt, err := app.promptManager.CreatePrompt(cmp.Title, transcript)
	if err != nil {
		return "", fmt.Errorf("creating prompt: %w", err)
	}

	spinner := app.ui.NewSpinner("Summarizing corrected transcript...")
	summary, err := app.ai.Summary(ctx, prompt)
	spinner.Finish()
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}

	return app.RenderMarkdown(summary)
}

// History lists the user's submissions, limited to the page size preference
func (app *App) History(ctx context.Context) ([]Item, error) {
	items, err := app.client.History(ctx, app.config.UserID)
	if err != nil {
		return nil, err
	}
	return app.page(items), nil
}

// Bookshelf lists the user's finished transcripts, limited to the page size preference
func (app *App) Bookshelf(ctx context.Context) ([]Item, error) {
	items, err := app.client.Bookshelf(ctx, app.config.UserID)
	if err != nil {
		return nil, err
	}
	return app.page(items), nil
}

func (app *App) page(items []Item) []Item {
	if n := app.prefs.PageSize; n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// Login stores the session token issued by the auth provider
func (app *App) Login(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	return app.store.Set(KeyAuthToken, token)
}

// Logout forgets the session token
func (app *App) Logout() error {
	return app.store.Delete(KeyAuthToken)
}

// SetAdminKey stores the key sent on admin requests
func (app *App) SetAdminKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return app.store.Delete(KeyAdminKey)
	}
	return app.store.Set(KeyAdminKey, key)
}

// MediaDuration probes a local media file
func (app *App) MediaDuration(ctx context.Context, path string) (float64, error) {
	return app.media.Duration(ctx, path)
}

// NewSessionManager builds the viewer service's session manager over the backend
func (app *App) NewSessionManager() *SessionManager {
	var options []SessionOption
	if app.config.SessionIdleTimeout > 0 {
		options = append(options, WithIdleTimeout(app.config.SessionIdleTimeout))
	}
	return NewSessionManager(app.client.Compare, app.store, app.config.ClockInterval, app.logger, options...)
}
