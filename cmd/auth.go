package cmd

import (
	"github.com/spf13/cobra"
)

// loginCmd stores the session token issued by the Read-Tube auth provider
var loginCmd = &cobra.Command{
	Use:   "login [TOKEN]",
	Short: "Store the session token used for backend requests",
	Example: `  # Paste the token from the web app
  readtube login eyJhbGciOi...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.Login(args[0]); err != nil {
			return err
		}
		app.UI().Println("Logged in")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.Logout(); err != nil {
			return err
		}
		app.UI().Println("Logged out")
		return nil
	},
}

var adminKeyCmd = &cobra.Command{
	Use:   "admin-key [KEY]",
	Short: "Store the key sent with admin requests (empty to clear)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		key := ""
		if len(args) == 1 {
			key = args[0]
		}
		if err := app.SetAdminKey(key); err != nil {
			return err
		}
		if key == "" {
			app.UI().Println("Admin key cleared")
		} else {
			app.UI().Println("Admin key saved")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, adminKeyCmd)
}
