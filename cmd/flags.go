package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	flagConfigPath  = "config"
	flagEnvFile     = "env-file"
	flagVerbose     = "verbose"
	flagLogLevel    = "log-level"
	flagJSON        = "json"
	flagMetricsPort = "metrics-port"

	flagOrganisation = "org"
	flagEmployee     = "employee"
	flagUsername     = "username"
	flagChain        = "chain"
	flagFrom         = "from"
	flagTo           = "to"
	flagRecipient    = "recipient"
	flagAmount       = "amount"
	flagBurnTx       = "burn-tx"
	flagAddress      = "address"
	flagAsset        = "asset"
)

func addAppPersistantFlags(cmd *cobra.Command, a *AppState) *cobra.Command {
	cmd.PersistentFlags().StringVar(&a.ConfigPath, flagConfigPath, defaultConfigPath, "file path of config file")
	cmd.PersistentFlags().StringVar(&a.EnvFile, flagEnvFile, "", fmt.Sprintf("dotenv file with secrets (default %s when present)", defaultEnvPath))
	cmd.PersistentFlags().BoolVarP(&a.Debug, flagVerbose, "v", false, fmt.Sprintf("use this flag to set log level to `debug` (overrides %s flag)", flagLogLevel))
	cmd.PersistentFlags().StringVar(&a.LogLevel, flagLogLevel, "info", "log level (debug, info, warn, error)")
	return cmd

}

func addMetricsPortFlag(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().Int16P(flagMetricsPort, "p", 2112, "customize Prometheus metrics port")
	return cmd
}

func addJsonFlag(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().Bool(flagJSON, false, "return in json format")
	return cmd
}

func addOrganisationFlag(cmd *cobra.Command, required bool) *cobra.Command {
	cmd.Flags().String(flagOrganisation, "", "organisation id")
	if required {
		_ = cmd.MarkFlagRequired(flagOrganisation)
	}
	return cmd
}

func addRouteFlags(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().String(flagFrom, "", "source chain symbol")
	cmd.Flags().String(flagTo, "", "destination chain symbol")
	_ = cmd.MarkFlagRequired(flagFrom)
	_ = cmd.MarkFlagRequired(flagTo)
	return cmd
}
