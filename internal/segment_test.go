package internal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(v float64) *float64 {
	return &v
}

func TestParseTrackSetKeepsPayloadOrder(t *testing.T) {
	raw := []byte(`{
		"sensevoice": [{"start": 0, "end": 2, "text": "hi"}],
		"medium": [{"start": 3, "end": null, "text": "b"}, {"start": 1, "end": 3, "text": "a"}],
		"turbo": []
	}`)

	set, err := ParseTrackSet(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"sensevoice", "medium", "turbo"}, set.Names())

	medium := set.Get("medium")
	require.NotNil(t, medium)
	require.Equal(t, 2, medium.Len())
	assert.Equal(t, "a", medium.Segments[0].Text, "segments are ordered by start")
	assert.Nil(t, medium.Segments[1].End, "null end stays open")
	assert.Equal(t, 0, set.Get("turbo").Len())
	assert.Nil(t, set.Get("missing"))
}

func TestParseTrackSetRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		wantLen int
	}{
		{name: "empty", raw: "", wantLen: 0},
		{name: "null", raw: "null", wantLen: 0},
		{name: "array", raw: `[1, 2]`, wantErr: true},
		{name: "broken", raw: `{"a": [`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseTrackSet([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, set.Len())
		})
	}
}

func TestTrackEndOf(t *testing.T) {
	track := NewTrack("x", []Segment{
		{Start: 0, End: at(2), Text: "explicit"},
		{Start: 4, Text: "until next"},
		{Start: 9, End: at(1), Text: "end before start is ignored"},
	})

	assert.Equal(t, 2.0, track.EndOf(0))
	assert.Equal(t, 9.0, track.EndOf(1))
	assert.True(t, math.IsInf(track.EndOf(2), 1))
}

func TestTrackSetWith(t *testing.T) {
	set := NewTrackSet(NewTrack("turbo", nil), NewTrack("reference", nil), NewTrack("medium", nil))
	ref := NewTrack("reference", []Segment{{Start: 0, Text: "local"}})

	merged := set.With(ref)

	assert.Equal(t, []string{"reference", "turbo", "medium"}, merged.Names())
	assert.Equal(t, 1, merged.Get("reference").Len())
	assert.Equal(t, []string{"turbo", "reference", "medium"}, set.Names(), "original set is unchanged")
}

func TestGroupParagraphs(t *testing.T) {
	track := NewTrack("subtitles", []Segment{
		{Start: 0, End: at(1), Text: "one"},
		{Start: 1, End: at(2), Text: " two "},
		{Start: 10, End: at(11), Text: "three"},
		{Start: 11, Text: "four"},
	})

	paragraphs := GroupParagraphs(track, 2.0, 8)
	require.Len(t, paragraphs, 2)
	assert.Equal(t, "one two", paragraphs[0].Text())
	assert.Equal(t, 0.0, paragraphs[0].Start)
	assert.Equal(t, 2.0, paragraphs[0].End)
	assert.Equal(t, "three four", paragraphs[1].Text())
	assert.Equal(t, 11.0, paragraphs[1].End, "open-ended last segment ends at its start")

	capped := GroupParagraphs(track, 100, 3)
	require.Len(t, capped, 2)
	assert.Len(t, capped[0].Segments, 3)
}

func TestTrackPlainText(t *testing.T) {
	track := NewTrack("x", []Segment{{Start: 0, Text: " a "}, {Start: 1, Text: ""}, {Start: 2, Text: "b"}})
	assert.Equal(t, "a\nb", track.PlainText())

	var empty *Track
	assert.Equal(t, "", empty.PlainText())
}

func TestParseSourceMode(t *testing.T) {
	mode, err := ParseSourceMode("local-audio")
	require.NoError(t, err)
	assert.Equal(t, SourceLocalAudio, mode)

	_, err = ParseSourceMode("vhs")
	assert.Error(t, err)
}
