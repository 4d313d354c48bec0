package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// watchCmd uploads new media files dropped into a folder
var watchCmd = &cobra.Command{
	Use:   "watch [DIR]",
	Short: "Upload new recordings as they appear in a folder",
	Example: `  # Upload everything saved into ~/Recordings
  readtube watch ~/Recordings

  # Two uploads at a time, summarize instead of transcribe
  readtube watch ~/Recordings --concurrency 2 --mode summarize`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, public, err := internal.SubmitOptions(cmd)
		if err != nil {
			return err
		}
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency < 1 {
			concurrency = config.UploadConcurrency
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		log := app.Logger()

		upload := func(ctx context.Context, path string) error {
			id, err := app.Upload(ctx, path, mode, public)
			if err != nil {
				return err
			}
			log.Infof("uploaded %s as task %s", path, id)
			app.UI().Printf("%s\t%s\n", id, path)
			return nil
		}

		watcher, err := internal.NewFolderWatcher(args[0], concurrency, internal.DefaultSettleDelay, upload, log)
		if err != nil {
			return err
		}
		defer watcher.Stop()

		if err := watcher.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().String("mode", "", "Processing mode: transcribe or summarize (default from config)")
	watchCmd.Flags().Bool("public", false, "Share the results publicly")
	watchCmd.Flags().Int("concurrency", 0, "Uploads running at once (default from config upload_concurrency)")
	rootCmd.AddCommand(watchCmd)
}
