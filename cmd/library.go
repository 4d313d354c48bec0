package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// historyCmd lists the user's submissions
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your submitted videos and uploads",
	Example: `  # Latest submissions (page size from preferences)
  readtube history`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listItems(cmd, (*internal.App).History)
	},
}

// bookshelfCmd lists finished transcripts
var bookshelfCmd = &cobra.Command{
	Use:   "bookshelf",
	Short: "List your finished transcripts",
	Example: `  # Finished transcripts as cards
  readtube prefs view_mode grid
  readtube bookshelf`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listItems(cmd, (*internal.App).Bookshelf)
	},
}

type itemLister func(*internal.App, context.Context) ([]internal.Item, error)

func listItems(cmd *cobra.Command, list itemLister) error {
	format, err := internal.FormatFlag(cmd)
	if err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}

	items, err := list(app, cmd.Context())
	if err != nil {
		return err
	}

	if format != "text" {
		return writeStructured(os.Stdout, format, items)
	}
	printItems(app, items)
	return nil
}

func init() {
	internal.AddFormatFlag(historyCmd)
	internal.AddFormatFlag(bookshelfCmd)
	rootCmd.AddCommand(historyCmd, bookshelfCmd)
}
