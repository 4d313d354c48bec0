package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

var (
	config  *internal.Config
	cfgFile string
)

// availableCommands feeds "did you mean" suggestions for mistyped arguments
var availableCommands = []string{
	"submit", "upload", "status", "show", "history", "bookshelf", "compare", "play",
	"edit", "export", "cp", "prefs", "login", "logout", "serve", "mcp", "watch",
	"resummarize", "admin", "paths", "version", "help",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "readtube [YouTube URL or ID]",
	Short: "Read-Tube - read YouTube videos as synchronized transcripts",
	Long: `readtube sends YouTube videos and local recordings to a Read-Tube backend
for transcription and summaries, and lets you read the results.

Completed transcripts can be opened in a synchronized viewer that keeps the
current line in view while the media plays, compares the output of several
transcription models side by side, and exports your corrections as SRT.`,
	Example: `  # Submit a video, wait for it and print the transcript
  readtube "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  readtube tAP1eZYEuKA

  # Compare transcription models around the 1 minute mark
  readtube compare tAP1eZYEuKA --at 60

  # Read along in the terminal
  readtube play tAP1eZYEuKA`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config = internal.InitConfig(cfgFile)
		ensureDefaults()
		if err := internal.HandleOutputFlags(cmd, config); err != nil {
			return err
		}
		return config.Validate()
	},
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}

		parsed := internal.ParseInput(args[0])
		if parsed.ContentType == internal.ContentTypeCommand {
			return fmt.Errorf("%w. %s", parsed.Error, parsed.SuggestCorrection(availableCommands))
		}

		app, err := newApp()
		if err != nil {
			return err
		}

		id, err := app.Submit(cmd.Context(), args[0], "", nil)
		if err != nil {
			return err
		}
		app.UI().Verbose("Task %s submitted\n", id)

		res, err := app.Wait(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printResult(app, id, res)
	},
}

// newApp builds the App for the loaded config
func newApp() (*internal.App, error) {
	return internal.NewApp(config)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// ensureDefaults writes the default config and prompt on first use
func ensureDefaults() {
	if err := internal.EnsureDirs(config.ConfigDir, config.DataDir, config.CacheDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating XDG directories: %v\n", err)
		return
	}
	if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
	}
	if err := internal.EnsureDefaultPrompt(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default prompt: %v\n", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print results")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $XDG_CONFIG_HOME/readtube/config.toml)")
}
