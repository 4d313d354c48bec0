package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptFromTemplate(t *testing.T) {
	prompt, err := buildPromptFromTemplate("{{.Title}}\n---\n{{.Transcript}}", PromptData{Title: "Kenobi", Transcript: "hello there"})
	require.NoError(t, err)
	assert.Equal(t, "Kenobi\n---\nhello there", prompt)

	_, err = buildPromptFromTemplate("{{.Speaker}}", PromptData{})
	assert.ErrorContains(t, err, "executing prompt template")

	_, err = buildPromptFromTemplate("{{.Title", PromptData{})
	assert.ErrorContains(t, err, "parsing prompt template")
}

func TestPromptManagerSources(t *testing.T) {
	dir := t.TempDir()

	// no prompt.txt in the config directory uses the built-in template
	prompt, err := NewPromptManager(dir, "").CreatePrompt("Kenobi", "hello there")
	require.NoError(t, err)
	assert.Contains(t, prompt, "hello there")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.txt"), []byte("config: {{.Title}}"), 0644))
	prompt, err = NewPromptManager(dir, "").CreatePrompt("Kenobi", "")
	require.NoError(t, err)
	assert.Equal(t, "config: Kenobi", prompt)

	custom := filepath.Join(dir, "custom.tmpl")
	require.NoError(t, os.WriteFile(custom, []byte("file: {{.Transcript}}"), 0644))
	prompt, err = NewPromptManager(dir, custom).CreatePrompt("Kenobi", "hello there")
	require.NoError(t, err)
	assert.Equal(t, "file: hello there", prompt)
}

func TestIsLikelyFilePath(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"~/prompts/summary.txt", true},
		{"summary.md", true},
		{"prompt", true},
		{"Summarize {{.Title}} briefly", false},
		{"line one\nline two", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLikelyFilePath(tt.input), tt.input)
	}
}
