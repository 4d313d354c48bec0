package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// adminCmd groups the admin dashboard commands
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Backend administration (requires an admin key)",
	Example: `  # Store the admin key once
  readtube admin-key s3cret

  # Usage counters and all tasks
  readtube admin stats
  readtube admin tasks`,
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show backend usage counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := internal.FormatFlag(cmd)
		if err != nil {
			return err
		}

		app, err := newApp()
		if err != nil {
			return err
		}

		stats, err := app.Client().AdminStats(cmd.Context())
		if err != nil {
			return err
		}

		if format != "text" {
			return writeStructured(os.Stdout, format, stats)
		}
		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Printf("%s: %v\n", k, stats[k])
		}
		return nil
	},
}

var adminTasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List every user's tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := internal.FormatFlag(cmd)
		if err != nil {
			return err
		}

		app, err := newApp()
		if err != nil {
			return err
		}

		items, err := app.Client().AdminTasks(cmd.Context())
		if err != nil {
			return err
		}

		if format != "text" {
			return writeStructured(os.Stdout, format, items)
		}
		printItems(app, items)
		return nil
	},
}

func init() {
	internal.AddFormatFlag(adminStatsCmd)
	internal.AddFormatFlag(adminTasksCmd)
	adminCmd.AddCommand(adminStatsCmd, adminTasksCmd)
	rootCmd.AddCommand(adminCmd)
}
