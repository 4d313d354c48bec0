package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/rtzll/readtube/internal"
)

// writeStructured encodes v as json or yaml
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// printResult prints a completed task: title, rendered summary and the transcript prose
func printResult(app *internal.App, id string, res *internal.Result) error {
	if res.Status != internal.StatusCompleted {
		fmt.Printf("%s: %s", id, res.Status)
		if res.Progress != nil {
			fmt.Printf(" (%.0f%%)", *res.Progress)
		}
		fmt.Println()
		return nil
	}

	if res.Title != "" {
		app.UI().Printf("%s\n\n", res.Title)
	}
	if res.Summary != "" {
		rendered, err := app.RenderMarkdown(res.Summary)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
	}
	if prose := app.Prose(res); prose != "" {
		fmt.Println(prose)
	}
	return nil
}

// printItems lists history, bookshelf or admin items in the view_mode preference
func printItems(app *internal.App, items []internal.Item) {
	if len(items) == 0 {
		app.UI().Println("Nothing here yet")
		return
	}

	if app.Preferences().ViewMode == "grid" {
		printGrid(items)
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tMODE\tCREATED\tTITLE")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", item.ID, item.Status, item.Mode, item.CreatedAt, item.Title)
	}
	tw.Flush()
}

// printGrid prints compact cards, two per line when the terminal is wide enough
func printGrid(items []internal.Item) {
	width := internal.TerminalWidth()
	perLine := 1
	if width >= 100 {
		perLine = 2
	}
	cardWidth := width / perLine

	card := func(item internal.Item) string {
		title := item.Title
		if title == "" {
			title = item.YouTubeID
		}
		line := fmt.Sprintf("[%s] %s - %s", item.Status, item.ID, title)
		if r := []rune(line); len(r) > cardWidth-2 && cardWidth > 3 {
			line = string(r[:cardWidth-3]) + "…"
		}
		return line
	}

	for i := 0; i < len(items); i += perLine {
		var parts []string
		for j := i; j < i+perLine && j < len(items); j++ {
			parts = append(parts, fmt.Sprintf("%-*s", cardWidth, card(items[j])))
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, ""), " "))
	}
}
