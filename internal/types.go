package internal

import (
	"fmt"
	"strings"
)

// ContentType represents what a submit argument refers to
type ContentType int

const (
	ContentTypeUnknown ContentType = iota
	ContentTypeVideo
	ContentTypePlaylist
	ContentTypeCommand
)

// String returns a human-readable representation of the content type
func (ct ContentType) String() string {
	switch ct {
	case ContentTypeVideo:
		return "video"
	case ContentTypePlaylist:
		return "playlist"
	case ContentTypeCommand:
		return "command"
	default:
		return "unknown"
	}
}

// ParsedArg represents the result of parsing a command line argument
type ParsedArg struct {
	ContentType   ContentType
	OriginalInput string
	NormalizedURL string
	ID            string
	Error         error
}

// ParseInput classifies a submit argument as a video, playlist or mistyped command
func ParseInput(arg string) ParsedArg {
	p := ParsedArg{OriginalInput: arg}

	arg = strings.TrimSpace(arg)
	if arg == "" {
		p.Error = fmt.Errorf("empty input")
		return p
	}

	if !strings.HasPrefix(arg, "https://") && !strings.HasPrefix(arg, "http://") && IsLikelyCommand(arg) {
		p.ContentType = ContentTypeCommand
		p.Error = fmt.Errorf("%q doesn't look like a YouTube URL or video ID", arg)
		return p
	}

	p.NormalizedURL, p.ID = ParseArg(arg)
	switch {
	case IsValidPlaylistID(p.ID):
		p.ContentType = ContentTypePlaylist
	case IsValidYouTubeID(p.ID):
		p.ContentType = ContentTypeVideo
	default:
		p.Error = fmt.Errorf("could not find a YouTube video ID in %q", arg)
	}
	return p
}

// IsValid returns true if the parsed argument is valid and has no errors
func (p *ParsedArg) IsValid() bool {
	return p.Error == nil && p.ContentType != ContentTypeUnknown && p.ContentType != ContentTypeCommand
}

// String returns a formatted representation of the parsed argument
func (p *ParsedArg) String() string {
	if p.Error != nil {
		return fmt.Sprintf("ParsedArg{type=%s, input=%q, error=%v}", p.ContentType, p.OriginalInput, p.Error)
	}
	return fmt.Sprintf("ParsedArg{type=%s, id=%s, url=%s}", p.ContentType, p.ID, p.NormalizedURL)
}

// SuggestCorrection provides helpful suggestions for invalid inputs
func (p *ParsedArg) SuggestCorrection(availableCommands []string) string {
	if p.ContentType != ContentTypeCommand {
		return ""
	}

	input := strings.ToLower(p.OriginalInput)
	var suggestions []string

	for _, cmd := range availableCommands {
		if strings.Contains(cmd, input) || strings.Contains(input, cmd) {
			suggestions = append(suggestions, cmd)
		}
	}

	if len(suggestions) > 0 {
		return fmt.Sprintf("did you mean: %s", strings.Join(suggestions, ", "))
	}

	return "use --help to see available commands"
}
