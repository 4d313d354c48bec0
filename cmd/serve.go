package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// serveCmd runs the local viewer service used by the browser page
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local viewer service",
	Long: `Run the HTTP service behind the synchronized viewer page.

The page embeds the player, posts its playback position and scroll events,
and polls the session state for the active segment, scroll commands and
pending seeks. Corrections are saved to the local store unless --ephemeral
is given.`,
	Example: `  # Listen on the configured address
  readtube serve

  # Listen elsewhere and keep corrections in memory only
  readtube serve --listen :9000 --ephemeral`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("listen")
		if addr == "" {
			addr = config.ListenAddr
		}

		var options []internal.AppOption
		if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
			options = append(options, internal.WithStore(internal.NewMemoryStore()))
		}
		app, err := internal.NewApp(config, options...)
		if err != nil {
			return err
		}
		log := app.Logger()

		sessions := app.NewSessionManager()
		sessions.Start()
		server := &http.Server{
			Addr:              addr,
			Handler:           internal.NewViewerServer(sessions, app.Store(), log),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Infof("viewer service listening on %s", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			sessions.Stop()
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			return nil
		case <-cmd.Context().Done():
		}

		log.Infof("viewer service shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// drain requests first so no session is created after Stop
		err = server.Shutdown(ctx)
		sessions.Stop()
		if err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		log.Infof("viewer service stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (default from config listen_addr)")
	serveCmd.Flags().Bool("ephemeral", false, "Keep corrections in memory instead of the local store")
	rootCmd.AddCommand(serveCmd)
}
