package cmd

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// playCmd opens the synchronized terminal viewer
var playCmd = &cobra.Command{
	Use:   "play [ID]",
	Short: "Read along with a transcript in the terminal",
	Long: `Open the synchronized viewer for a content id.

The current segment stays centered while playback advances. Scrolling by hand
pauses auto-scroll until you resume it.

Keys:
  j/k    scroll down/up (pauses auto-scroll)
  r      resume auto-scroll
  h/l    seek back/forward 5 seconds
  space  play/pause
  s      save corrections
  x      export corrections as corrected_<id>.srt
  q      quit`,
	Example: `  # Start from the beginning
  readtube play 42

  # Start at 2:30, timed against the local recording
  readtube play 42 --from 150 --media lecture.m4a`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetFloat64("from")
		mediaPath, _ := cmd.Flags().GetString("media")
		reference, _ := cmd.Flags().GetString("reference")

		app, err := newApp()
		if err != nil {
			return err
		}

		cmp, _, buf, err := app.LoadEdits(cmd.Context(), args[0], reference)
		if err != nil {
			return err
		}

		var duration float64
		if mediaPath != "" {
			duration, err = app.MediaDuration(cmd.Context(), mediaPath)
			if err != nil {
				return fmt.Errorf("reading media duration: %w", err)
			}
		}

		out := termenv.NewOutput(os.Stdout)
		viewer := internal.NewTerminalViewer(args[0], cmp, buf, app.Store(), config.ClockInterval, duration, out, app.Logger())
		return viewer.Run(cmd.Context(), os.Stdin, from)
	},
}

func init() {
	playCmd.Flags().Float64("from", 0, "Start position in seconds")
	playCmd.Flags().String("media", "", "Local media file used for the playback duration")
	internal.AddReferenceFlag(playCmd)
	rootCmd.AddCommand(playCmd)
}
