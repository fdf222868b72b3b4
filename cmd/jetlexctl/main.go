package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jetlexctl",
		Short: "Jetlex administration tool",
		Long: `jetlexctl runs maintenance tasks against the Jetlex database:
migrations, the first admin account, the decision matrix seed and
one-off runs of the scheduled jobs.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(seedMatrixCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(newsletterCmd())
	rootCmd.AddCommand(phaseAlertsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
