package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// pathsCmd represents the paths command
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show the files and directories readtube uses",
	Example: `  # Show where config, corrections and logs live
  readtube paths`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config directory: %s\n", config.ConfigDir)
		fmt.Printf("Data directory: %s\n", config.DataDir)
		fmt.Printf("Cache directory: %s\n", config.CacheDir)
		fmt.Printf("Store directory: %s\n", config.StoreDir)
		fmt.Printf("Log file: %s\n", config.LogFile)
		fmt.Printf("Viewer service: http://%s\n", config.ListenAddr)
		if desktop, err := internal.DesktopConfigPath(); err == nil {
			fmt.Printf("Claude Desktop config: %s\n", desktop)
		}
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
