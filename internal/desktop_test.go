package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRegisterDesktopServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claude_desktop_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "globalShortcut": "Ctrl+Space",
  "mcpServers": {"other": {"command": "/bin/other", "args": []}}
}`), 0644))

	server := DesktopServer{Command: "/usr/local/bin/readtube", Args: []string{"mcp"}}
	require.NoError(t, RegisterDesktopServer(path, "readtube", server))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := gjson.ParseBytes(data)
	assert.Equal(t, "Ctrl+Space", doc.Get("globalShortcut").String())
	assert.Equal(t, "/bin/other", doc.Get("mcpServers.other.command").String())
	assert.Equal(t, "/usr/local/bin/readtube", doc.Get("mcpServers.readtube.command").String())
	assert.Equal(t, "mcp", doc.Get("mcpServers.readtube.args.0").String())

	// registering again replaces the entry
	server.Command = "/opt/readtube"
	require.NoError(t, RegisterDesktopServer(path, "readtube", server))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/readtube", gjson.GetBytes(data, "mcpServers.readtube.command").String())
}

func TestRegisterDesktopServerErrors(t *testing.T) {
	dir := t.TempDir()

	err := RegisterDesktopServer(filepath.Join(dir, "missing.json"), "readtube", DesktopServer{})
	assert.ErrorContains(t, err, "not found")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	assert.ErrorContains(t, RegisterDesktopServer(bad, "readtube", DesktopServer{}), "parsing desktop config")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"mcpServers": null}`), 0644))
	require.NoError(t, RegisterDesktopServer(empty, "readtube", DesktopServer{Command: "rt", Args: []string{"mcp"}}))
	data, err := os.ReadFile(empty)
	require.NoError(t, err)
	assert.Equal(t, "rt", gjson.GetBytes(data, "mcpServers.readtube.command").String())
}
