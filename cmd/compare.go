package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

type comparisonReport struct {
	ContentID string             `json:"content_id" yaml:"content_id"`
	Title     string             `json:"title" yaml:"title"`
	Selection internal.Selection `json:"selection" yaml:"selection"`
	Frame     *internal.Frame    `json:"frame,omitempty" yaml:"frame,omitempty"`
	Rows      []internal.Row     `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// compareCmd aligns the transcription models of a content id
var compareCmd = &cobra.Command{
	Use:   "compare [ID]",
	Short: "Compare transcription models segment by segment",
	Long: `Align the tracks of every transcription model against a benchmark track.

The benchmark is the human reference track when there is one, else the best
available model. Each benchmark segment is shown with the overlapping text of
up to two comparison tracks.`,
	Example: `  # Every segment
  readtube compare 42

  # Only what is said at 1:05
  readtube compare 42 --at 65

  # Anchor on your own reference subtitles, as YAML
  readtube compare 42 --reference human.srt --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := internal.FormatFlag(cmd)
		if err != nil {
			return err
		}
		reference, _ := cmd.Flags().GetString("reference")

		app, err := newApp()
		if err != nil {
			return err
		}

		cmp, sel, err := app.LoadCompare(cmd.Context(), args[0], reference)
		if err != nil {
			return err
		}

		report := comparisonReport{
			ContentID: args[0],
			Title:     cmp.Title,
			Selection: sel,
		}
		if cmd.Flags().Changed("at") {
			at, _ := cmd.Flags().GetFloat64("at")
			frame := internal.Align(cmp.Tracks, sel, at)
			report.Frame = &frame
		} else {
			report.Rows = internal.Rows(cmp.Tracks, sel)
		}

		if format != "text" {
			return writeStructured(os.Stdout, format, report)
		}
		printComparison(report)
		return nil
	},
}

func printComparison(report comparisonReport) {
	fmt.Printf("%s\n", report.Title)
	fmt.Printf("benchmark: %s", report.Selection.Benchmark)
	if len(report.Selection.Comparisons) > 0 {
		fmt.Printf("  vs %s", strings.Join(report.Selection.Comparisons, ", "))
	}
	fmt.Print("\n\n")

	if report.Frame != nil {
		if report.Frame.Row == nil {
			fmt.Printf("Nothing is said at %s\n", internal.FormatClock(report.Frame.Time))
			return
		}
		printRow(*report.Frame.Row)
		return
	}
	for _, row := range report.Rows {
		printRow(row)
	}
}

func printRow(row internal.Row) {
	fmt.Printf("#%d %s  %s\n", row.Index+1, internal.FormatClock(row.Start), row.Text)
	for _, cell := range row.Comparisons {
		fmt.Printf("      %s: %s\n", cell.Track, cell.Display())
	}
}

func init() {
	compareCmd.Flags().Float64("at", 0, "Show only the segment active at this time (seconds)")
	internal.AddReferenceFlag(compareCmd)
	internal.AddFormatFlag(compareCmd)
	rootCmd.AddCommand(compareCmd)
}
