package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportSRT(t *testing.T) {
	bench := NewTrack("reference", []Segment{
		{Start: 0, End: at(2.5), Text: "x"},
		{Start: 2.5, End: at(5), Text: "y"},
	})
	buf := NewEditBuffer("abc", []string{"a", "b"})

	data, err := ExportSRT(bench, buf)
	require.NoError(t, err)

	want := "1\n00:00:00,000 --> 00:00:02,500\na\n\n2\n00:00:02,500 --> 00:00:05,000\nb\n"
	assert.Equal(t, want, string(data))
}

func TestExportSRTOpenEndedTail(t *testing.T) {
	bench := NewTrack("turbo", []Segment{
		{Start: 0, Text: "first"},
		{Start: 5, Text: "second"},
	})
	buf := NewEditBuffer("abc", []string{" first ", "second"})

	data, err := ExportSRT(bench, buf)
	require.NoError(t, err)

	assert.Equal(t,
		"1\n00:00:00,000 --> 00:00:05,000\nfirst\n\n2\n00:00:05,000 --> 00:00:08,000\nsecond\n",
		string(data))
}

func TestWriteSRTCountMismatch(t *testing.T) {
	bench := NewTrack("turbo", []Segment{{Start: 0, Text: "only"}})
	var sb strings.Builder
	assert.Error(t, WriteSRT(&sb, bench, []string{"a", "b"}))
}

func TestTimecodes(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{2.5, "00:00:02,500"},
		{59.9996, "00:01:00,000"},
		{3661.042, "01:01:01,042"},
		{-3, "00:00:00,000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimecode(tt.seconds))
		})
	}

	v, err := ParseTimecode("01:01:01,042")
	require.NoError(t, err)
	assert.InDelta(t, 3661.042, v, 1e-9)

	v, err = ParseTimecode("00:00:02.5")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, v, 1e-9)

	_, err = ParseTimecode("1:02")
	assert.Error(t, err)
}

func TestParseSRT(t *testing.T) {
	input := "\ufeff1\r\n00:00:01,000 --> 00:00:03,500 X1:40 X2:600\r\nHello\r\nthere\r\n\r\n" +
		"2\r\n00:00:04,000 --> 00:00:06,000\r\nGeneral Kenobi\r\n\r\n" +
		"garbage without timing\r\n"

	track, err := ParseSRT(ReferenceTrack, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, ReferenceTrack, track.Name)
	require.Equal(t, 2, track.Len())
	assert.Equal(t, "Hello there", track.Segments[0].Text)
	assert.Equal(t, 1.0, track.Segments[0].Start)
	assert.Equal(t, 3.5, track.EndOf(0))
	assert.Equal(t, "General Kenobi", track.Segments[1].Text)
	assert.Equal(t, 6.0, track.EndOf(1))
}

func TestParseSRTRoundTrip(t *testing.T) {
	bench := comparisonFixture().Get("reference")
	texts := bench.Texts()

	var sb strings.Builder
	require.NoError(t, WriteSRT(&sb, bench, texts))

	parsed, err := ParseSRT("roundtrip", strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, texts, parsed.Texts())
	assert.Equal(t, 7.0, parsed.EndOf(2), "open-ended cue got the default tail")
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "corrected_abc123.srt", ExportFilename("abc123"))
}
