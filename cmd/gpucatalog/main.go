package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "gpucatalog",
	Short:         "GPU product ingestion and price refresh service",
	Long:          "gpucatalog scrapes GPU listings through an extraction service, stores them, keeps their prices fresh and serves the catalog over HTTP.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Pipeline
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(refreshPricesCmd)
	rootCmd.AddCommand(scheduleRunCmd)
}
