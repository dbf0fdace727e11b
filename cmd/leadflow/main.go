package main

import (
	"fmt"
	"os"

	"leadflow/internal/client"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagServer   string
	flagPasscode string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "leadflow",
		Short: "Operate the lead reactivation funnel from the terminal",
		Long: `leadflow drives the lead CRM server: list and edit leads, run CSV
imports, export snapshots, compare cohorts and apply message variants.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagServer, "server", envOr("LEADFLOW_SERVER", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&flagPasscode, "passcode", os.Getenv("LEADFLOW_PASSCODE"), "admin passcode")

	rootCmd.AddCommand(
		newLeadsCmd(),
		newImportCmd(),
		newExportCmd(),
		newKPIsCmd(),
		newVariantsCmd(),
		newSeedCmd(),
		newHealthCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, client.FriendlyMessage(err))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newAPIClient() *client.Client {
	return client.New(client.NewSession(client.Config{
		BaseURL:  flagServer,
		Passcode: flagPasscode,
		Log:      zap.NewNop(),
	}))
}
