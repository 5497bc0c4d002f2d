package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

const (
	appName              = "cctp-payroll"
	defaultConfigPath    = "./config.yaml"
	defaultEnvPath       = ".env"
	defaultListenAddress = "localhost:8000"
)

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd(a *AppState) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Cross-chain USDC payroll over CCTP",
	}

	addAppPersistantFlags(rootCmd, a)

	rootCmd.AddCommand(
		Start(a),
		runPayrollCmd(a),
		transferCmd(a),
		resumeMintCmd(a),
		balanceCmd(a),
		provisionCmd(a),
		configShowCmd(a),
		versionCmd,
	)
	return rootCmd
}

func Execute() {
	a := NewAppState()
	if err := NewRootCmd(a).ExecuteContext(context.Background()); err != nil {
		if a.Logger == nil {
			a.InitLogger()
		}
		a.Logger.Error(err.Error())
		os.Exit(1)
	}
}
