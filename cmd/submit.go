package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// submitCmd sends a YouTube video to the backend
var submitCmd = &cobra.Command{
	Use:   "submit [YouTube URL or ID]",
	Short: "Submit a YouTube video for transcription or summary",
	Example: `  # Transcribe a video
  readtube submit "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Summarize it, share the result and wait for it
  readtube submit tAP1eZYEuKA --mode summarize --public --wait`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, public, err := internal.SubmitOptions(cmd)
		if err != nil {
			return err
		}

		app, err := newApp()
		if err != nil {
			return err
		}

		id, err := app.Submit(cmd.Context(), args[0], mode, public)
		if err != nil {
			return err
		}
		return finishSubmission(cmd, app, id)
	},
}

// finishSubmission prints the task id and optionally waits for the result
func finishSubmission(cmd *cobra.Command, app *internal.App, id string) error {
	wait, _ := cmd.Flags().GetBool("wait")
	if !wait {
		fmt.Println(id)
		return nil
	}

	app.UI().Printf("Task %s submitted\n", id)
	res, err := app.Wait(cmd.Context(), id)
	if err != nil {
		return err
	}
	return printResult(app, id, res)
}

func init() {
	internal.AddSubmitFlags(submitCmd)
	rootCmd.AddCommand(submitCmd)
}
