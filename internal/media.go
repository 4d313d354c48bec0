package internal

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// MediaExtensions are the file types accepted by the upload endpoint
var MediaExtensions = []string{".mp3", ".m4a", ".wav", ".flac", ".ogg", ".opus", ".webm", ".mp4", ".mkv", ".mov"}

// IsMediaFile reports whether path has an uploadable extension
func IsMediaFile(path string) bool {
	return slices.Contains(MediaExtensions, strings.ToLower(filepath.Ext(path)))
}

// CommandRunner executes external commands
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner implements CommandRunner
type DefaultCommandRunner struct{}

func (r *DefaultCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Media probes local media files with ffprobe
type Media struct {
	cmdRunner CommandRunner
}

// NewMedia creates a media prober
func NewMedia(cmdRunner CommandRunner) *Media {
	return &Media{cmdRunner: cmdRunner}
}

// Duration returns the media file duration in seconds
func (m *Media) Duration(ctx context.Context, mediaFile string) (float64, error) {
	output, err := m.cmdRunner.Run(ctx, "ffprobe",
		"-i", mediaFile,
		"-show_entries", "format=duration",
		"-v", "quiet",
		"-of", "csv=p=0")

	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w\nOutput: %s", err, string(output))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration: %w", err)
	}

	return duration, nil
}
