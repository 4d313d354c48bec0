package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer wraps the MCP server and application dependencies
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
	logger    Logger
}

// NewMCPServer creates a new MCP server instance. logger must not write to
// stdout when the stdio transport is used.
func NewMCPServer(app *App, version string, logger Logger) *MCPServer {
	mcpServer := server.NewMCPServer(
		"readtube",
		version,
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s
}

func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_transcript_result",
		mcp.WithDescription("Get the status of a Read-Tube task and, once completed, its transcript as paragraphs plus the backend summary."),
		mcp.WithString("id",
			mcp.Description("Task or content id returned when the video was submitted"),
			mcp.Required(),
		),
	), s.handleGetResult)

	s.mcpServer.AddTool(mcp.NewTool("compare_tracks_at",
		mcp.WithDescription("Show what every transcription model says at a point in time. Returns the active benchmark segment and the overlapping text of up to two comparison tracks as JSON."),
		mcp.WithString("id",
			mcp.Description("Content id with model comparisons"),
			mcp.Required(),
		),
		mcp.WithNumber("time",
			mcp.Description("Playback position in seconds"),
			mcp.Required(),
		),
	), s.handleCompareAt)

	s.mcpServer.AddTool(mcp.NewTool("export_corrected_srt",
		mcp.WithDescription("Export the user's saved corrections (or the seeded text when nothing was edited) as SRT subtitles."),
		mcp.WithString("id",
			mcp.Description("Content id with model comparisons"),
			mcp.Required(),
		),
	), s.handleExport)
}

func (s *MCPServer) handleGetResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required and must be a string"), nil
	}
	s.logger.Infof("get_transcript_result %s", id)

	res, err := s.app.Status(ctx, id)
	if err != nil {
		s.logger.Errorf("get_transcript_result %s: %v", id, err)
		return mcp.NewToolResultErrorFromErr("fetching result", err), nil
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "Status: %s\n", res.Status)
	if res.Title != "" {
		fmt.Fprintf(&buf, "Title: %s\n", res.Title)
	}
	if res.Progress != nil && res.Status != StatusCompleted {
		fmt.Fprintf(&buf, "Progress: %.0f%%\n", *res.Progress)
	}
	if res.Error != "" {
		fmt.Fprintf(&buf, "Error: %s\n", res.Error)
	}
	if res.Summary != "" {
		fmt.Fprintf(&buf, "\nSummary:\n%s\n", res.Summary)
	}
	if prose := s.app.Prose(res); prose != "" {
		fmt.Fprintf(&buf, "\nTranscript:\n%s\n", prose)
	}

	return mcp.NewToolResultText(buf.String()), nil
}

type compareAtResult struct {
	Title     string    `json:"title"`
	Selection Selection `json:"selection"`
	Frame     Frame     `json:"frame"`
}

func (s *MCPServer) handleCompareAt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required and must be a string"), nil
	}
	at, err := request.RequireFloat("time")
	if err != nil {
		return mcp.NewToolResultError("time parameter is required and must be a number"), nil
	}
	s.logger.Infof("compare_tracks_at %s %.3f", id, at)

	cmp, sel, err := s.app.LoadCompare(ctx, id, "")
	if err != nil {
		s.logger.Errorf("compare_tracks_at %s: %v", id, err)
		return mcp.NewToolResultErrorFromErr("loading comparison", err), nil
	}

	data, err := json.MarshalIndent(compareAtResult{
		Title:     cmp.Title,
		Selection: sel,
		Frame:     Align(cmp.Tracks, sel, at),
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultErrorFromErr("encoding frame", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *MCPServer) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required and must be a string"), nil
	}
	s.logger.Infof("export_corrected_srt %s", id)

	var buf bytes.Buffer
	if err := s.app.Export(ctx, id, "", &buf); err != nil {
		s.logger.Errorf("export_corrected_srt %s: %v", id, err)
		return mcp.NewToolResultErrorFromErr("exporting subtitles", err), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// Start starts the MCP server using the specified transport
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	if transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		addr := fmt.Sprintf(":%d", port)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Infof("serving MCP over HTTP on %s", addr)

		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.Start(addr) }()
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return httpServer.Shutdown(context.Background())
		}
	}

	s.logger.Infof("serving MCP over stdio")
	return server.ServeStdio(s.mcpServer)
}
