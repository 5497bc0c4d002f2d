package integration_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/strangelove-ventures/cctp-payroll/balance"
	"github.com/strangelove-ventures/cctp-payroll/circle"
	"github.com/strangelove-ventures/cctp-payroll/cmd"
	"github.com/strangelove-ventures/cctp-payroll/metrics"
	"github.com/strangelove-ventures/cctp-payroll/registry"
	"github.com/strangelove-ventures/cctp-payroll/transfer"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

// The tests in this package move real testnet USDC through Circle's sandbox.
//
// They need an integration config at ../.ignore/integration.yaml naming an app
// config, a funded treasury wallet set and one recipient per treasury chain.
// Secrets are taken from the environment as the CLI does. The tests are
// skipped when the file is missing.
const integrationConfigPath = "../.ignore/integration.yaml"

type IntegrationConfig struct {
	AppConfig  string               `yaml:"app-config"`
	Treasury   types.TreasuryWallet `yaml:"treasury"`
	Recipients map[string]string    `yaml:"recipients"`
	Amount     string               `yaml:"amount"`
}

type harness struct {
	cfg          *types.Config
	integration  IntegrationConfig
	logger       log.Logger
	orchestrator *transfer.Orchestrator
	balances     *balance.Reader
	amount       decimal.Decimal
}

func ParseIntegration(t *testing.T, file string) IntegrationConfig {
	t.Helper()

	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		t.Skipf("no integration config at %s", file)
	}
	require.NoError(t, err)

	var c IntegrationConfig
	require.NoError(t, yaml.Unmarshal(data, &c))
	return c
}

func setupTest(t *testing.T) *harness {
	t.Helper()

	ic := ParseIntegration(t, integrationConfigPath)
	cfg, err := cmd.LoadConfig(ic.AppConfig)
	require.NoError(t, err)

	amount, err := types.ParseAmount(ic.Amount)
	require.NoError(t, err)
	require.True(t, amount.IsPositive(), "integration amount must be positive")

	provider := circle.NewWalletClient(cfg.Circle)
	reg, err := registry.Build(cfg, provider)
	require.NoError(t, err)

	m := metrics.NewPromMetrics()
	return &harness{
		cfg:          cfg,
		integration:  ic,
		logger:       log.NewLogger(os.Stdout, log.LevelOption(zerolog.DebugLevel)),
		orchestrator: transfer.NewOrchestrator(reg, circle.NewAttestationClient(cfg.Circle), types.NewTransferMap(time.Hour), m),
		balances:     balance.NewReader(provider, reg, cfg.Treasury, m),
		amount:       amount,
	}
}

func (h *harness) balance(ctx context.Context, chain string) (decimal.Decimal, error) {
	return h.balances.GetBalanceStrict(ctx, h.integration.Recipients[chain], chain, "")
}
