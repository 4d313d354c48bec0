package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// exportCmd writes the corrections as SRT subtitles
var exportCmd = &cobra.Command{
	Use:   "export [ID]",
	Short: "Export corrected subtitles as SRT",
	Example: `  # Write corrected_42.srt in the current directory
  readtube export 42

  # Print to stdout
  readtube export 42 -o -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reference, _ := cmd.Flags().GetString("reference")
		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile == "" {
			outputFile = internal.ExportFilename(args[0])
		}

		app, err := newApp()
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := app.Export(cmd.Context(), args[0], reference, &buf); err != nil {
			return err
		}

		if outputFile == "-" {
			_, err := os.Stdout.Write(buf.Bytes())
			return err
		}
		if err := os.WriteFile(outputFile, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outputFile, err)
		}
		app.UI().Printf("Subtitles written to %s\n", outputFile)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file, - for stdout (default corrected_<id>.srt)")
	internal.AddReferenceFlag(exportCmd)
	rootCmd.AddCommand(exportCmd)
}
