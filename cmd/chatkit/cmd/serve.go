package cmd

import (
	"github.com/nfrund/chatkit/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat server",
	Long: `Starts the HTTP API and the WebSocket presence channel, blocking
until the process receives an interrupt or terminate signal.`,
	Run: func(cmd *cobra.Command, args []string) {
		s := server.New()
		s.RegisterRoutes()
		s.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
