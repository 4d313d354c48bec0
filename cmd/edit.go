package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// editCmd corrects one segment of the benchmark track
var editCmd = &cobra.Command{
	Use:   "edit [ID] [SEGMENT] [TEXT...]",
	Short: "Correct the text of one segment",
	Long: `Replace the corrected text of one benchmark segment and save it.

Segments are numbered from 1 as shown by "readtube compare". Timing always
comes from the benchmark track; only the text changes. Corrections saved with
--reference must be edited with the same --reference.`,
	Example: `  # Fix segment 3
  readtube edit 42 3 "Hello world, this is the corrected line."

  # Fix segment 1 of a comparison anchored on your own subtitles
  readtube edit 42 1 "Hello." --reference human.srt

  # Throw away all corrections for a content id
  readtube edit 42 --reset`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		if reset, _ := cmd.Flags().GetBool("reset"); reset {
			if err := app.ResetEdits(args[0]); err != nil {
				return err
			}
			app.UI().Println("Corrections reset")
			return nil
		}

		if len(args) < 3 {
			return fmt.Errorf("edit needs an id, a segment number and the new text")
		}
		segment, err := strconv.Atoi(args[1])
		if err != nil || segment < 1 {
			return fmt.Errorf("segment must be a number starting at 1, got %q", args[1])
		}

		reference, _ := cmd.Flags().GetString("reference")
		if err := app.EditSegment(cmd.Context(), args[0], reference, segment-1, strings.TrimSpace(strings.Join(args[2:], " "))); err != nil {
			return err
		}
		app.UI().Println("Saved")
		return nil
	},
}

func init() {
	editCmd.Flags().Bool("reset", false, "Discard saved corrections")
	internal.AddReferenceFlag(editCmd)
	rootCmd.AddCommand(editCmd)
}
