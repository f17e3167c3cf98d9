package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// rootCmd runs the HTTP server when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:          "partner-edge",
	Short:        "HTTP edge service for the ordering partner integration",
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
