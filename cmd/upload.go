package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// uploadCmd sends a local media file to the backend
var uploadCmd = &cobra.Command{
	Use:   "upload [FILE]",
	Short: "Upload a local audio or video file for transcription",
	Example: `  # Upload a recording
  readtube upload meeting.m4a

  # Upload and wait for the transcript
  readtube upload lecture.mp4 --wait`,
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

		id, err := app.Upload(cmd.Context(), args[0], mode, public)
		if err != nil {
			return err
		}
		return finishSubmission(cmd, app, id)
	},
}

func init() {
	internal.AddSubmitFlags(uploadCmd)
	rootCmd.AddCommand(uploadCmd)
}
