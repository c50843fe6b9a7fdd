package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiBase string
	apiKey  string
)

var rootCmd = &cobra.Command{
	Use:   "probectl",
	Short: "Talk to a running probe exporter",
	Long: `probectl triggers probe batches and reads cached results from the
probe exporter API.

Kinds are domain, ssl, port and http. HTTP results are addressed by URL; the
URL is hashed the same way the server does before it is sent.`,
	SilenceUsage: true,
}

var triggerCmd = &cobra.Command{
	Use:   "trigger <kind|all>",
	Short: "Start a probe batch now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := triggerPath(args[0])
		if err != nil {
			return err
		}
		return newClient().print(cmd.Context(), cmd.OutOrStdout(), "POST", path)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <kind> [target]",
	Short: "Show cached results for a kind, or one target",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) == 2 {
			target = args[1]
		}
		path, err := statusPath(args[0], target)
		if err != nil {
			return err
		}
		return newClient().print(cmd.Context(), cmd.OutOrStdout(), "GET", path)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show per-kind totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient().print(cmd.Context(), cmd.OutOrStdout(), "GET", "/api/monitor/status/summary")
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the exporter is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient().print(cmd.Context(), cmd.OutOrStdout(), "GET", "/api/monitor/health")
	},
}

func init() {
	base := os.Getenv("API_BASE")
	if base == "" {
		base = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", base, "exporter base URL (env API_BASE)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "key", os.Getenv("API_KEY"), "API key sent as X-API-Key (env API_KEY)")

	rootCmd.AddCommand(triggerCmd, statusCmd, summaryCmd, healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
