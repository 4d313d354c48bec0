package internal

import (
	"math"
	"slices"
	"sort"
	"strings"
)

// NoSegment is returned by ActiveIndex when no segment is active
const NoSegment = -1

// ReferenceTrack is the name of the human reference subtitle track
const ReferenceTrack = "reference"

// EmptyPlaceholder is shown where a comparison track has no overlapping text
const EmptyPlaceholder = "(empty)"

// MaxComparisons is the number of comparison tracks shown next to the benchmark
const MaxComparisons = 2

// PreferredModels lists the high-quality ASR models in benchmark priority order
var PreferredModels = []string{"large-v3-turbo", "turbo", "medium"}

// ActiveIndex returns the index i with start[i] <= now < start[i+1], the last index
// when now is past every start, or NoSegment before the first start.
func ActiveIndex(t *Track, now float64) int {
	if t.Len() == 0 || math.IsNaN(now) {
		return NoSegment
	}
	// first segment starting strictly after now
	next := sort.Search(len(t.Segments), func(i int) bool {
		return t.Segments[i].Start > now
	})
	return next - 1
}

// OverlapText joins, in source order, the text of every segment in t that strictly
// overlaps [start, end). Touching intervals do not count.
func OverlapText(t *Track, start, end float64) string {
	if t.Len() == 0 {
		return ""
	}

	var parts []string
	for i, seg := range t.Segments {
		if seg.Start >= end {
			break
		}
		if math.Min(end, t.EndOf(i)) > math.Max(start, seg.Start) {
			if text := strings.TrimSpace(seg.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " ")
}

// Selection names the benchmark track and the comparison tracks shown beside it
type Selection struct {
	Benchmark   string   `json:"benchmark" yaml:"benchmark"`
	Comparisons []string `json:"comparisons" yaml:"comparisons"`
	// Anchored is set when the benchmark is the human reference track
	Anchored bool `json:"anchored" yaml:"anchored"`
}

// pickTrack applies the three-tier preference to names, skipping excluded ones:
// the reference track, then the first preferred model, then the first name left.
func pickTrack(names []string, exclude ...string) string {
	var remaining []string
	for _, name := range names {
		if !slices.Contains(exclude, name) {
			remaining = append(remaining, name)
		}
	}
	if len(remaining) == 0 {
		return ""
	}

	if slices.Contains(remaining, ReferenceTrack) {
		return ReferenceTrack
	}
	for _, model := range PreferredModels {
		if slices.Contains(remaining, model) {
			return model
		}
	}
	return remaining[0]
}

// SelectTracks picks the benchmark and up to MaxComparisons comparison tracks.
// It depends only on the names and their payload order.
func SelectTracks(names []string) Selection {
	sel := Selection{Benchmark: pickTrack(names)}
	if sel.Benchmark == "" {
		return sel
	}
	sel.Anchored = sel.Benchmark == ReferenceTrack

	chosen := []string{sel.Benchmark}
	for len(sel.Comparisons) < MaxComparisons {
		next := pickTrack(names, chosen...)
		if next == "" {
			break
		}
		sel.Comparisons = append(sel.Comparisons, next)
		chosen = append(chosen, next)
	}
	return sel
}

// SeedBuffer produces the initial correction text for every benchmark segment.
// With a reference benchmark the best ASR candidate's overlapping text is used, so
// corrections start from model output; otherwise the benchmark text itself.
func SeedBuffer(set TrackSet, sel Selection) []string {
	bench := set.Get(sel.Benchmark)
	seed := bench.Texts()
	if !sel.Anchored || len(sel.Comparisons) == 0 {
		return seed
	}

	candidate := set.Get(sel.Comparisons[0])
	for i := range seed {
		if text := OverlapText(candidate, bench.Segments[i].Start, bench.EndOf(i)); text != "" {
			seed[i] = text
		}
	}
	return seed
}

// Cell is one comparison track's text for a benchmark span
type Cell struct {
	Track string `json:"track" yaml:"track"`
	Text  string `json:"text" yaml:"text"`
}

// Display returns the text or the empty placeholder
func (c Cell) Display() string {
	if c.Text == "" {
		return EmptyPlaceholder
	}
	return c.Text
}

// Row is one benchmark segment with its aligned comparison texts
type Row struct {
	Index       int     `json:"index" yaml:"index"`
	Start       float64 `json:"start" yaml:"start"`
	End         float64 `json:"end" yaml:"end"`
	Text        string  `json:"text" yaml:"text"`
	Comparisons []Cell  `json:"comparisons" yaml:"comparisons"`
}

// Frame is the derived view for one clock tick
type Frame struct {
	Time   float64 `json:"time" yaml:"time"`
	Active int     `json:"active" yaml:"active"`
	// Row is nil when no benchmark segment is active
	Row *Row `json:"row,omitempty" yaml:"row,omitempty"`
}

// rowAt builds the row for benchmark segment i
func rowAt(set TrackSet, sel Selection, bench *Track, i int) Row {
	start, end := bench.Segments[i].Start, bench.EndOf(i)
	row := Row{
		Index: i,
		Start: start,
		End:   end,
		Text:  bench.Segments[i].Text,
	}
	if math.IsInf(end, 1) {
		// JSON cannot carry +Inf; an open-ended row reports its start
		row.End = start
	}
	for _, name := range sel.Comparisons {
		row.Comparisons = append(row.Comparisons, Cell{
			Track: name,
			Text:  OverlapText(set.Get(name), start, end),
		})
	}
	return row
}

// Rows aligns every benchmark segment against the comparison tracks
func Rows(set TrackSet, sel Selection) []Row {
	bench := set.Get(sel.Benchmark)
	rows := make([]Row, 0, bench.Len())
	for i := range bench.Len() {
		rows = append(rows, rowAt(set, sel, bench, i))
	}
	return rows
}

// Align computes the frame at time now. It is recomputed on every tick and never cached.
func Align(set TrackSet, sel Selection, now float64) Frame {
	bench := set.Get(sel.Benchmark)
	frame := Frame{Time: now, Active: ActiveIndex(bench, now)}
	if frame.Active != NoSegment {
		row := rowAt(set, sel, bench, frame.Active)
		frame.Row = &row
	}
	return frame
}
