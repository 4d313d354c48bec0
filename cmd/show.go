package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// showCmd prints a completed transcript
var showCmd = &cobra.Command{
	Use:   "show [ID]",
	Short: "Show a completed transcript and its summary",
	Example: `  # Print transcript and summary
  readtube show 42

  # Save the transcript prose to a file
  readtube show 42 -o transcript.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			text, err := app.TranscriptText(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := os.WriteFile(outputFile, []byte(text+"\n"), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", outputFile, err)
			}
			app.UI().Printf("Transcript written to %s\n", outputFile)
			return nil
		}

		res, err := app.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(app, args[0], res)
	},
}

func init() {
	showCmd.Flags().StringP("output", "o", "", "Write the transcript to a file instead of stdout")
	rootCmd.AddCommand(showCmd)
}
