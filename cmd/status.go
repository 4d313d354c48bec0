package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// statusCmd shows the processing state of a task
var statusCmd = &cobra.Command{
	Use:   "status [ID]",
	Short: "Show the processing status of a task",
	Example: `  # One-off status check
  readtube status 42

  # Poll until the task finishes
  readtube status 42 --wait

  # Machine readable
  readtube status 42 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := internal.FormatFlag(cmd)
		if err != nil {
			return err
		}

		app, err := newApp()
		if err != nil {
			return err
		}

		var res *internal.Result
		if wait, _ := cmd.Flags().GetBool("wait"); wait {
			res, err = app.Wait(cmd.Context(), args[0])
		} else {
			res, err = app.Status(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}

		if format != "text" {
			return writeStructured(os.Stdout, format, res)
		}
		return printResult(app, args[0], res)
	},
}

func init() {
	statusCmd.Flags().BoolP("wait", "w", false, "Wait for processing to finish")
	internal.AddFormatFlag(statusCmd)
	rootCmd.AddCommand(statusCmd)
}
