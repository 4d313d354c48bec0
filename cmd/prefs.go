package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// prefsCmd shows and changes display preferences
var prefsCmd = &cobra.Command{
	Use:   "prefs [KEY [VALUE]]",
	Short: "Show or change display preferences",
	Long: `Show or change the persisted display preferences.

  view_mode  list or grid            layout of history and bookshelf
  density    comfortable or compact  spacing between transcript paragraphs
  page_size  1-200                   items listed by history and bookshelf
  theme      auto, dark, light, notty  summary rendering style
  language   e.g. en, de             language requested from the backend`,
	Example: `  # Show everything
  readtube prefs

  # Compact transcripts, dark summaries
  readtube prefs density compact
  readtube prefs theme dark

  # Back to the default
  readtube prefs theme --reset`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		store := app.Store()

		switch len(args) {
		case 0:
			return writeStructured(os.Stdout, "yaml", app.Preferences())
		case 1:
			if reset, _ := cmd.Flags().GetBool("reset"); reset {
				return internal.ResetPreference(store, args[0])
			}
			value, err := app.Preferences().Get(args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		default:
			return internal.SetPreference(store, args[0], args[1])
		}
	},
}

func init() {
	prefsCmd.Flags().Bool("reset", false, "Restore the default for KEY")
	rootCmd.AddCommand(prefsCmd)
}
