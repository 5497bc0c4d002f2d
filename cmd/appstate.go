package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"cosmossdk.io/log"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/strangelove-ventures/cctp-payroll/ethereum"
	"github.com/strangelove-ventures/cctp-payroll/registry"
	"github.com/strangelove-ventures/cctp-payroll/solana"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

// appState is the modifiable state of the application.
type AppState struct {
	Config *types.Config

	ConfigPath string

	// optional dotenv file loaded before the config is parsed
	EnvFile string

	Debug bool

	LogLevel string

	Logger log.Logger
}

func NewAppState() *AppState {
	return &AppState{}
}

// InitAppState checks if a logger and config are present. If not, it adds them to the AppState
func (a *AppState) InitAppState() {
	if a.Logger == nil {
		a.InitLogger()
	}
	if a.Config == nil {
		a.loadConfigFile()
	}
}

func (a *AppState) InitLogger() {
	// info level is default
	level := zerolog.InfoLevel
	switch a.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// a.Debug overrides a.loglevel
	if a.Debug {
		a.Logger = log.NewLogger(os.Stdout, log.LevelOption(zerolog.DebugLevel))
	} else {
		a.Logger = log.NewLogger(os.Stdout, log.LevelOption(level))
	}
}

// loadConfigFile loads a configuration into the AppState. It uses the AppState ConfigPath
// to determine file path to config.
func (a *AppState) loadConfigFile() {
	if a.Logger == nil {
		a.InitLogger()
	}

	if err := a.loadEnvFile(); err != nil {
		a.Logger.Error("Unable to load env file", "location", a.EnvFile, "err", err)
		os.Exit(1)
	}

	config, err := LoadConfig(a.ConfigPath)
	if err != nil {
		a.Logger.Error("Unable to parse config file", "location", a.ConfigPath, "err", err)
		os.Exit(1)
	}
	a.Logger.Info("Successfully parsed config file", "location", a.ConfigPath)
	a.Config = config

	err = a.validateConfig()
	if err != nil {
		a.Logger.Error("Invalid config", "err", err)
		os.Exit(1)
	}
}

// loadEnvFile loads secrets from a dotenv file. The default file is optional;
// an explicitly named one must exist.
func (a *AppState) loadEnvFile() error {
	path := a.EnvFile
	if path == "" {
		path = defaultEnvPath
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	return godotenv.Load(path)
}

// validateConfig checks the AppState Config for any invalid settings.
func (a *AppState) validateConfig() error {
	builtins := registry.New(registry.Defaults()...)

	// validate chains
	for name, cfg := range a.Config.Chains {
		switch cc := cfg.(type) {
		case *solana.Config:
			if err := a.validateChain(name, cc.RPC, cc.ConfirmTimeout); err != nil {
				return err
			}
		case *ethereum.ChainConfig:
			if err := a.validateChain(name, cc.RPC, cc.ConfirmTimeout); err != nil {
				return err
			}
			if cc.ChainID == 0 && !builtins.IsFamily(name, types.FamilyEVM) {
				return fmt.Errorf("chain-id must be set in the config (chain: %s)", name)
			}
			if cc.BroadcastRetries < 0 || cc.BroadcastRetryInterval < 0 {
				return fmt.Errorf("broadcast retries and interval must not be negative in the config (chain: %s)", name)
			}
			if cc.MinterPrivateKey != "" && cc.RPC == "" {
				return fmt.Errorf("rpc must be set to mint with a local key (chain: %s)", name)
			}
		default:
			return fmt.Errorf("unsupported chain config %T (chain: %s)", cfg, name)
		}
	}

	for _, name := range a.Config.EnabledChains {
		if _, ok := a.Config.Chains[name]; !ok {
			return fmt.Errorf("enabled chain %s must be configured under chains", name)
		}
	}

	if err := a.validateTreasury(); err != nil {
		return err
	}

	// validate circle api config
	if err := a.validateCircleConfig(); err != nil {
		return err
	}

	return a.validatePayrollConfig()
}

// validateChain ensures the chain is configured correctly
func (a *AppState) validateChain(name, rpcURL string, confirmTimeout int) error {
	if name == "" {
		return fmt.Errorf("chain name must be set in the config")
	}

	if _, ok := a.Config.Chains[name].(*solana.Config); ok && rpcURL == "" {
		return fmt.Errorf("rpc must be set in the config (chain: %s)", name)
	}

	if confirmTimeout < 0 {
		return fmt.Errorf("confirm-timeout must not be negative in the config (chain: %s) (confirm-timeout: %d)", name, confirmTimeout)
	}

	return nil
}

// validateTreasury ensures the treasury names one solana and one evm chain.
func (a *AppState) validateTreasury() error {
	t := a.Config.Treasury
	if t.SolChain == "" || t.BaseChain == "" {
		return fmt.Errorf("treasury sol-chain and base-chain are required in the config")
	}
	if _, ok := a.Config.Chains[t.SolChain].(*solana.Config); !ok {
		return fmt.Errorf("treasury sol-chain %s must be a configured solana chain", t.SolChain)
	}
	if _, ok := a.Config.Chains[t.BaseChain].(*ethereum.ChainConfig); !ok {
		return fmt.Errorf("treasury base-chain %s must be a configured evm chain", t.BaseChain)
	}
	return nil
}

// validateCircleConfig ensures the circle api is configured correctly
func (a *AppState) validateCircleConfig() error {
	c := a.Config.Circle
	if c.AttestationBaseURL == "" {
		return fmt.Errorf("attestation-base-url is required in the config")
	}

	if c.WalletsBaseURL == "" {
		return fmt.Errorf("wallets-base-url is required in the config")
	}

	if c.APIKey == "" || c.EntitySecret == "" {
		return fmt.Errorf("circle api-key and entity-secret must be set in the config or environment")
	}

	if c.FetchRetryInterval <= 0 {
		return fmt.Errorf("fetch-retry-interval must be greater than zero in the config")
	}

	return nil
}

func (a *AppState) validatePayrollConfig() error {
	p := a.Config.Payroll

	// validate payroll worker count
	if p.WorkerCount <= 0 {
		return fmt.Errorf("payroll worker-count must be greater than zero in the config")
	}

	if p.Cron != "" {
		if _, err := cron.ParseStandard(p.Cron); err != nil {
			return fmt.Errorf("invalid payroll cron %q: %w", p.Cron, err)
		}
	}

	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return fmt.Errorf("invalid payroll timezone %q: %w", p.Timezone, err)
		}
	}

	if p.TransferTimeout < 0 {
		return fmt.Errorf("payroll transfer-timeout must not be negative in the config")
	}

	return nil
}
