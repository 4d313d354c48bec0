package internal

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// Segment is a single time-stamped piece of transcript text
type Segment struct {
	Start float64  `json:"start" yaml:"start"`
	End   *float64 `json:"end,omitempty" yaml:"end,omitempty"` // nil means "until the next segment starts"
	Text  string   `json:"text" yaml:"text"`
}

// Track is a named, start-ordered sequence of segments from one model or source
type Track struct {
	Name     string    `json:"name"`
	Segments []Segment `json:"segments"`
}

// NewTrack copies segs into a track ordered by start time
func NewTrack(name string, segs []Segment) *Track {
	sorted := slices.Clone(segs)
	slices.SortStableFunc(sorted, func(a, b Segment) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	return &Track{Name: name, Segments: sorted}
}

// Len returns the number of segments, treating a nil track as empty
func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Segments)
}

// EndOf resolves the effective end of segment i. An explicit end wins, otherwise
// the next segment's start; the last segment without an end is open-ended.
func (t *Track) EndOf(i int) float64 {
	seg := t.Segments[i]
	if seg.End != nil && *seg.End >= seg.Start {
		return *seg.End
	}
	if i+1 < len(t.Segments) {
		return t.Segments[i+1].Start
	}
	return math.Inf(1)
}

// Texts returns the text of every segment in order
func (t *Track) Texts() []string {
	texts := make([]string, t.Len())
	for i := range texts {
		texts[i] = t.Segments[i].Text
	}
	return texts
}

// PlainText joins the track into newline separated text
func (t *Track) PlainText() string {
	var sb strings.Builder
	for i := range t.Len() {
		text := strings.TrimSpace(t.Segments[i].Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// TrackSet holds tracks in the order the backend listed them
type TrackSet struct {
	tracks []*Track
}

// NewTrackSet builds a set from tracks, keeping their order
func NewTrackSet(tracks ...*Track) TrackSet {
	return TrackSet{tracks: tracks}
}

// Names returns track names in payload order
func (s TrackSet) Names() []string {
	names := make([]string, len(s.tracks))
	for i, t := range s.tracks {
		names[i] = t.Name
	}
	return names
}

// Get looks up a track by name; nil when absent
func (s TrackSet) Get(name string) *Track {
	for _, t := range s.tracks {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Tracks returns the tracks in payload order
func (s TrackSet) Tracks() []*Track {
	return s.tracks
}

// Len returns the number of tracks
func (s TrackSet) Len() int {
	return len(s.tracks)
}

// With returns a copy of the set with t placed first, replacing any track of the same name
func (s TrackSet) With(t *Track) TrackSet {
	tracks := []*Track{t}
	for _, existing := range s.tracks {
		if existing.Name != t.Name {
			tracks = append(tracks, existing)
		}
	}
	return TrackSet{tracks: tracks}
}

// ParseTrackSet decodes a JSON object of {trackName: [{start,end,text}, ...]}.
// Go maps lose key order, so the object is walked with gjson to keep the
// payload order that benchmark selection depends on.
func ParseTrackSet(raw []byte) (TrackSet, error) {
	if len(raw) == 0 {
		return TrackSet{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return TrackSet{}, fmt.Errorf("invalid tracks JSON")
	}

	root := gjson.ParseBytes(raw)
	if root.Type == gjson.Null {
		return TrackSet{}, nil
	}
	if !root.IsObject() {
		return TrackSet{}, fmt.Errorf("tracks must be a JSON object, got %s", root.Type)
	}

	var set TrackSet
	root.ForEach(func(key, value gjson.Result) bool {
		var segs []Segment
		value.ForEach(func(_, item gjson.Result) bool {
			seg := Segment{
				Start: item.Get("start").Float(),
				Text:  item.Get("text").String(),
			}
			if end := item.Get("end"); end.Type == gjson.Number {
				v := end.Float()
				seg.End = &v
			}
			segs = append(segs, seg)
			return true
		})
		set.tracks = append(set.tracks, NewTrack(key.String(), segs))
		return true
	})

	return set, nil
}

// Paragraph groups consecutive segments of one track for prose display
type Paragraph struct {
	Start    float64   `json:"start"`
	End      float64   `json:"end"`
	Segments []Segment `json:"segments"`
}

// Text joins the paragraph's segment texts with spaces
func (p Paragraph) Text() string {
	parts := make([]string, 0, len(p.Segments))
	for _, seg := range p.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// GroupParagraphs splits a track into paragraphs, breaking on silences longer than
// gap seconds or once a paragraph holds maxSegments segments.
func GroupParagraphs(t *Track, gap float64, maxSegments int) []Paragraph {
	var paragraphs []Paragraph
	var current *Paragraph

	for i := range t.Len() {
		seg := t.Segments[i]
		end := t.EndOf(i)
		if math.IsInf(end, 1) {
			end = seg.Start
		}

		startNew := current == nil ||
			seg.Start-current.End > gap ||
			(maxSegments > 0 && len(current.Segments) >= maxSegments)
		if startNew {
			paragraphs = append(paragraphs, Paragraph{Start: seg.Start})
			current = &paragraphs[len(paragraphs)-1]
		}

		current.Segments = append(current.Segments, seg)
		current.End = end
	}

	return paragraphs
}

// SourceMode tags which kind of player drives the playback clock
type SourceMode string

const (
	SourceRemoteVideo SourceMode = "remote-video"
	SourceLocalAudio  SourceMode = "local-audio"
)

// ParseSourceMode validates a mode string
func ParseSourceMode(s string) (SourceMode, error) {
	switch SourceMode(s) {
	case SourceRemoteVideo, SourceLocalAudio:
		return SourceMode(s), nil
	default:
		return "", fmt.Errorf("unknown source mode %q (want %s or %s)", s, SourceRemoteVideo, SourceLocalAudio)
	}
}

// PlaybackState is the single source of truth for "now" in a viewer
type PlaybackState struct {
	CurrentTime   float64    `json:"current_time"`
	IsPlayerReady bool       `json:"is_player_ready"`
	SourceMode    SourceMode `json:"source_mode"`
}
