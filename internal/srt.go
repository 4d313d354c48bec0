package internal

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DefaultTailDuration is the length given to an open-ended last cue
const DefaultTailDuration = 3.0

// SubtitleMIME is the content type of exported subtitle files
const SubtitleMIME = "text/plain; charset=utf-8"

// ExportFilename returns the download name for corrected subtitles
func ExportFilename(contentID string) string {
	return fmt.Sprintf("corrected_%s.srt", contentID)
}

// FormatTimecode renders seconds as HH:MM:SS,mmm
func FormatTimecode(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// ParseTimecode reads HH:MM:SS,mmm (a dot is accepted for the milliseconds too)
func ParseTimecode(tc string) (float64, error) {
	tc = strings.TrimSpace(strings.Replace(tc, ".", ",", 1))
	clock, millis, _ := strings.Cut(tc, ",")
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timecode %q", tc)
	}

	var total float64
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("invalid timecode %q: %w", tc, err)
		}
		total = total*60 + float64(n)
	}
	if millis != "" {
		n, err := strconv.Atoi(millis)
		if err != nil {
			return 0, fmt.Errorf("invalid timecode %q: %w", tc, err)
		}
		total += float64(n) / math.Pow(10, float64(len(millis)))
	}
	return total, nil
}

// WriteSRT writes one cue per benchmark segment, taking timing from the track and
// text from texts (index-aligned). A cue's end is the segment's effective end.
func WriteSRT(w io.Writer, bench *Track, texts []string) error {
	if bench.Len() != len(texts) {
		return fmt.Errorf("subtitle text count %d does not match %d segments", len(texts), bench.Len())
	}

	bw := bufio.NewWriter(w)
	for i, text := range texts {
		start := bench.Segments[i].Start
		end := bench.EndOf(i)
		if math.IsInf(end, 1) {
			end = start + DefaultTailDuration
		}
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n", i+1, FormatTimecode(start), FormatTimecode(end), strings.TrimSpace(text))
	}
	return bw.Flush()
}

// ExportSRT renders the corrections in buf against the benchmark track
func ExportSRT(bench *Track, buf *EditBuffer) ([]byte, error) {
	var out bytes.Buffer
	if err := WriteSRT(&out, bench, buf.Texts()); err != nil {
		return nil, fmt.Errorf("exporting %s: %w", ExportFilename(buf.ContentID()), err)
	}
	return out.Bytes(), nil
}

// ParseSRT reads SRT cues into a track. Multi-line cue text is joined with spaces.
func ParseSRT(name string, r io.Reader) (*Track, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading SRT: %w", err)
	}
	normalized := strings.ReplaceAll(string(content), "\r\n", "\n")
	normalized = strings.TrimPrefix(normalized, "\ufeff")

	var segs []Segment
	for block := range strings.SplitSeq(normalized, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		// find the timing line; the index line before it is optional
		timing := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timing = i
				break
			}
		}
		if timing == -1 {
			continue
		}

		from, to, _ := strings.Cut(lines[timing], "-->")
		start, err := ParseTimecode(from)
		if err != nil {
			return nil, fmt.Errorf("parsing cue %q: %w", lines[timing], err)
		}
		// drop position settings that may follow the end timecode
		toFields := strings.Fields(to)
		if len(toFields) == 0 {
			return nil, fmt.Errorf("parsing cue %q: missing end time", lines[timing])
		}
		end, err := ParseTimecode(toFields[0])
		if err != nil {
			return nil, fmt.Errorf("parsing cue %q: %w", lines[timing], err)
		}

		var text []string
		for _, line := range lines[timing+1:] {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				text = append(text, trimmed)
			}
		}
		segs = append(segs, Segment{Start: start, End: &end, Text: strings.Join(text, " ")})
	}

	return NewTrack(name, segs), nil
}
