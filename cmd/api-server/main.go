package main

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "api-server",
		Short:   "Clinic scheduling, room allocation and billing API",
		Version: version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(gridCmd())
	rootCmd.AddCommand(auditSchemaCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
