package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "be2bill",
		Short: "Be2bill / Dalenys payment gateway toolkit",
		Long: `be2bill signs and sends operations to the Be2bill / Dalenys payment
gateway, runs CSV batch files of operations, renders hosted payment forms
and receives the gateway's server-to-server notifications.

Configuration is read from config.yml (see --config) and BE2BILL_*
environment variables; a .env file is loaded first when present.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: teardown,
	}

	configPath string
	envFile    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the configuration")

	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(refundCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(redirectCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(formCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(envCmd)
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the supported environment variables",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), configDescription())
	},
}
