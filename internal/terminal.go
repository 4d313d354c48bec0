package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// SeekStep is how far h/l move playback, in seconds
const SeekStep = 5.0

const (
	headerLines = 2
	footerLines = 1
)

// TerminalViewer is the interactive `play` view: the comparison rows scroll
// with a local transport while the user reads, scrolls and saves.
type TerminalViewer struct {
	viewer   *Viewer
	viewport *LineViewport
	player   *LocalPlayer
	rows     []Row
	store    Store
	exportTo string
	out      *termenv.Output
	now      func() time.Time

	width       int
	height      int
	notice      string
	noticeUntil time.Time
}

// NewTerminalViewer wires a viewer over cmp. duration is the media length in
// seconds, 0 when unknown.
func NewTerminalViewer(contentID string, cmp *CompareResult, edits *EditBuffer, store Store, clockInterval time.Duration, duration float64, out *termenv.Output, logger Logger) *TerminalViewer {
	tv := &TerminalViewer{
		player:   NewLocalPlayer(),
		store:    store,
		exportTo: ExportFilename(contentID),
		out:      out,
		now:      time.Now,
		width:    80,
		height:   24,
	}

	clock := NewClock(clockInterval, logger)
	tv.viewport = NewLineViewport(nil, float64(tv.height-headerLines-footerLines))
	// key presses are unambiguous, so our own scrolls need no guard window
	tv.viewer = NewViewer(contentID, cmp.Title, cmp.Tracks, clock, tv.viewport, edits, WithGuardWindow(0))
	tv.rows = Rows(cmp.Tracks, tv.viewer.Selection)
	tv.viewport.SetRows(tv.rowHeights())

	tv.player.Load(duration)
	clock.Switch(SourceLocalAudio, tv.player)
	return tv
}

// Viewer returns the underlying viewer
func (tv *TerminalViewer) Viewer() *Viewer {
	return tv.viewer
}

// rowHeights counts the lines each row renders to
func (tv *TerminalViewer) rowHeights() []float64 {
	heights := make([]float64, len(tv.rows))
	for i := range tv.rows {
		heights[i] = float64(len(tv.rowLines(i)))
	}
	return heights
}

// rowLines renders row i without styling
func (tv *TerminalViewer) rowLines(i int) []string {
	row := tv.rows[i]
	lines := []string{fmt.Sprintf("%7s  %s", FormatClock(row.Start), row.Text)}
	for _, cell := range row.Comparisons {
		lines = append(lines, fmt.Sprintf("%9s%s: %s", "", cell.Track, cell.Display()))
	}
	if edits := tv.viewer.Edits; edits != nil {
		if text := edits.Text(i); text != row.Text {
			lines = append(lines, fmt.Sprintf("%9sedit: %s", "", text))
		}
	}
	return lines
}

// Resize adapts the viewport to a new terminal size
func (tv *TerminalViewer) Resize(width, height int) {
	if width <= 0 || height <= headerLines+footerLines {
		return
	}
	tv.width, tv.height = width, height
	tv.viewport.SetHeight(float64(height - headerLines - footerLines))
}

// setNotice shows msg in the footer for SaveNoticeDuration
func (tv *TerminalViewer) setNotice(msg string) {
	tv.notice = msg
	tv.noticeUntil = tv.now().Add(SaveNoticeDuration)
}

// HandleKey applies one key press. It returns true when the viewer should quit.
func (tv *TerminalViewer) HandleKey(key byte) bool {
	follow := tv.viewer.Sync
	switch key {
	case 'q', 3: // q or ctrl-c
		return true
	case 'j':
		if tv.viewport.ScrollBy(1) {
			follow.OnScroll()
		}
	case 'k':
		if tv.viewport.ScrollBy(-1) {
			follow.OnScroll()
		}
	case 'r':
		tv.viewer.Resume()
	case 'h':
		tv.viewer.Seek(tv.player.CurrentTime() - SeekStep)
	case 'l':
		tv.viewer.Seek(tv.player.CurrentTime() + SeekStep)
	case ' ':
		if tv.player.Playing() {
			tv.player.Pause()
		} else {
			tv.player.Play()
		}
	case 's':
		if tv.viewer.Edits == nil {
			return false
		}
		if stale := tv.viewer.Edits.Stale(); errors.Is(stale, ErrEditsMismatch) {
			tv.setNotice("Not saved: corrections were saved against another benchmark")
			return false
		}
		if err := tv.viewer.Edits.Save(tv.store); err != nil {
			tv.setNotice("Save failed: " + err.Error())
		} else {
			tv.setNotice("Saved")
		}
	case 'x':
		data, err := tv.viewer.Export()
		if err == nil {
			err = os.WriteFile(tv.exportTo, data, 0644)
		}
		if err != nil {
			tv.setNotice("Export failed: " + err.Error())
		} else {
			tv.setNotice("Exported " + tv.exportTo)
		}
	}
	return false
}

// Render draws one frame
func (tv *TerminalViewer) Render(frame Frame) {
	var sb strings.Builder
	out := tv.out

	state := "playing"
	if !tv.player.Playing() {
		state = "paused"
	}
	header := fmt.Sprintf("%s  %s  [%s]", tv.viewer.Title, FormatClock(frame.Time), state)
	sb.WriteString(out.String(tv.fit(header)).Bold().String())
	sb.WriteString("\r\n")
	sb.WriteString(out.String(tv.fit(tv.legend())).Faint().String())
	sb.WriteString("\r\n")

	first, last := tv.viewport.Visible()
	skip := 0
	if first >= 0 {
		skip = int(tv.viewport.ScrollTop() - tv.viewport.RowOffset(first))
	}
	budget := tv.height - headerLines - footerLines
	written := 0
	for i := first; i >= 0 && i <= last && written < budget; i++ {
		for j, line := range tv.rowLines(i) {
			if i == first && j < skip {
				continue
			}
			if written == budget {
				break
			}
			styled := out.String(tv.fit(line))
			if i == frame.Active {
				styled = styled.Reverse()
			} else if j > 0 {
				styled = styled.Faint()
			}
			sb.WriteString(styled.String())
			sb.WriteString("\r\n")
			written++
		}
	}
	for ; written < budget; written++ {
		sb.WriteString("\r\n")
	}

	sb.WriteString(out.String(tv.fit(tv.footer())).Faint().String())

	out.MoveCursor(1, 1)
	out.ClearScreen()
	io.WriteString(out, sb.String())
}

func (tv *TerminalViewer) legend() string {
	sel := tv.viewer.Selection
	legend := "benchmark: " + sel.Benchmark
	if len(sel.Comparisons) > 0 {
		legend += "  vs " + strings.Join(sel.Comparisons, ", ")
	}
	return legend
}

func (tv *TerminalViewer) footer() string {
	if tv.notice != "" && tv.now().Before(tv.noticeUntil) {
		return tv.notice
	}
	keys := "j/k scroll  h/l seek  space play/pause  s save  x export  q quit"
	if tv.viewer.Sync.ShowResume() {
		keys = "r resume auto-scroll  " + keys
	}
	if tv.viewer.Edits != nil && tv.viewer.Edits.Dirty() {
		keys = "* unsaved  " + keys
	}
	return keys
}

func (tv *TerminalViewer) fit(s string) string {
	return runewidth.Truncate(s, tv.width, "…")
}

// Run puts the terminal in raw mode and runs the view until q, ctrl-c or ctx is done
func (tv *TerminalViewer) Run(ctx context.Context, in *os.File, from float64) error {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("play needs an interactive terminal")
	}
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		tv.Resize(w, h)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enabling raw mode: %w", err)
	}
	tv.out.AltScreen()
	tv.out.HideCursor()
	defer func() {
		tv.out.ShowCursor()
		tv.out.ExitAltScreen()
		term.Restore(fd, oldState)
	}()

	done := make(chan struct{})
	defer close(done)
	keys := make(chan byte)
	go readKeys(in, keys, done)

	samples := tv.viewer.Clock.Subscribe()
	defer tv.viewer.Close()

	if from > 0 {
		tv.viewer.Seek(from)
	} else {
		tv.player.Play()
	}
	tv.Render(tv.viewer.Tick())

	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok || tv.HandleKey(key) {
				return nil
			}
			tv.viewer.Clock.Sample()
			tv.Render(tv.viewer.Tick())
		case _, ok := <-samples:
			if !ok {
				return nil
			}
			if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && (w != tv.width || h != tv.height) {
				tv.Resize(w, h)
			}
			tv.Render(tv.viewer.Tick())
		}
	}
}

// readKeys forwards single bytes until the reader fails or done is closed
func readKeys(r io.Reader, keys chan<- byte, done <-chan struct{}) {
	defer close(keys)
	buf := make([]byte, 1)
	for {
		if _, err := r.Read(buf); err != nil {
			return
		}
		select {
		case keys <- buf[0]:
		case <-done:
			return
		}
	}
}
