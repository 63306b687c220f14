package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatkit",
	Short: "Chatkit realtime chat backend",
	Long: `Chatkit is a realtime one-to-one chat backend.

It serves the authentication and messaging REST API and the WebSocket
presence channel from a single process, backed by SurrealDB.

Use "chatkit [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
