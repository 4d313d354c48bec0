package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server for Read-Tube",
	Long: `Run a Model Context Protocol (MCP) server that exposes Read-Tube as tools.

The MCP server provides three tools:
- get_transcript_result: Task status, transcript paragraphs and summary
- compare_tracks_at: What every model says at a point in time
- export_corrected_srt: Your corrected subtitles as SRT

Logs go to the log file shown by "readtube paths" since stdio carries the protocol.

Transport options:
- stdio (default): Standard MCP transport via stdin/stdout
- http: HTTP transport on specified port (use --port to configure)`,
	Example: `  # Run MCP server with stdio transport (e.g. for Claude Desktop)
  readtube mcp

  # Run MCP server with HTTP transport on port 8080
  readtube mcp --transport=http --port=8080

  # Set up Claude Desktop integration
  readtube mcp setup-claude`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout belongs to the protocol
		config.Verbose = false
		config.Quiet = true
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		if transport != "stdio" && transport != "http" {
			return fmt.Errorf("invalid transport %q (valid: stdio, http)", transport)
		}

		logger, closer, err := internal.NewFileLogger(config.LogLevel, config.LogFile)
		if err != nil {
			return err
		}
		defer closer.Close()

		app, err := internal.NewApp(config, internal.WithAppLogger(logger))
		if err != nil {
			return err
		}

		mcpServer := internal.NewMCPServer(app, version, logger)

		// Start the server (this will block until context is cancelled)
		return mcpServer.Start(cmd.Context(), transport, port)
	},
}

// setupClaudeCmd represents the setup-claude subcommand
var setupClaudeCmd = &cobra.Command{
	Use:   "setup-claude",
	Short: "Configure Claude Desktop to use the Read-Tube MCP server",
	Long: `Automatically configure Claude Desktop to use Read-Tube as an MCP server.

The "readtube" entry in claude_desktop_config.json is added or replaced; other
servers and settings are kept. The entry pins the current XDG directories so the
server sees the same config, store and log file as this shell.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setupClaudeDesktop()
	},
}

// setupClaudeDesktop registers this binary in Claude Desktop's config
func setupClaudeDesktop() error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("getting executable path: %w", err)
	}
	if execPath, err = filepath.EvalSymlinks(execPath); err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	configPath, err := internal.DesktopConfigPath()
	if err != nil {
		return fmt.Errorf("locating Claude Desktop config: %w", err)
	}
	if err := internal.RegisterDesktopServer(configPath, "readtube", internal.ReadtubeDesktopServer(execPath)); err != nil {
		return err
	}

	fmt.Printf("Registered readtube in %s\n", configPath)
	fmt.Println("Restart Claude Desktop to pick up the Read-Tube tools")
	return nil
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8080, "Port for HTTP transport (only used with --transport=http)")
	mcpCmd.AddCommand(setupClaudeCmd)
	rootCmd.AddCommand(mcpCmd)
}
