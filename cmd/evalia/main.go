package main

import (
	"os"

	"github.com/spf13/cobra"

	"evalia/internal/interfaces/cli/migrate"
	"evalia/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "evalia",
		Short: "Evalia credit ledger and balance engine",
		Long:  `Evalia meters paid assessment and report features with per-professional credits, backed by an append-only ledger.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
