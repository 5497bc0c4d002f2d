package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/strangelove-ventures/cctp-payroll/balance"
	"github.com/strangelove-ventures/cctp-payroll/circle"
	"github.com/strangelove-ventures/cctp-payroll/metrics"
	"github.com/strangelove-ventures/cctp-payroll/payroll"
	"github.com/strangelove-ventures/cctp-payroll/registry"
	"github.com/strangelove-ventures/cctp-payroll/store"
	"github.com/strangelove-ventures/cctp-payroll/transfer"
	"github.com/strangelove-ventures/cctp-payroll/treasury"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

// services holds the components a command runs. The directory backed parts
// are only built when a command needs the database.
type services struct {
	metrics      *metrics.PromMetrics
	registry     *registry.Registry
	provider     *circle.WalletClient
	orchestrator *transfer.Orchestrator
	balances     *balance.Reader

	directory *store.Mongo
	treasury  *treasury.Manager
	runner    *payroll.Runner
}

func (a *AppState) newServices(ctx context.Context, withDirectory bool) (*services, error) {
	cfg := a.Config
	s := &services{
		metrics:  metrics.NewPromMetrics(),
		provider: circle.NewWalletClient(cfg.Circle),
	}

	reg, err := registry.Build(cfg, s.provider)
	if err != nil {
		return nil, fmt.Errorf("error building chain registry: %w", err)
	}
	s.registry = reg
	a.Logger.Info("Chains configured", "chains", reg.Configured())

	transfers := types.NewTransferMap(time.Duration(cfg.Payroll.TransferCacheTTL) * time.Second)
	s.orchestrator = transfer.NewOrchestrator(reg, circle.NewAttestationClient(cfg.Circle), transfers, s.metrics)
	s.balances = balance.NewReader(s.provider, reg, cfg.Treasury, s.metrics)

	if !withDirectory {
		return s, nil
	}

	s.directory, err = store.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	s.treasury = treasury.NewManager(s.provider, reg, s.directory, cfg.Treasury)
	s.runner = payroll.NewRunner(s.directory, s.balances, s.orchestrator, cfg.Treasury, cfg.Payroll, s.metrics)
	return s, nil
}

func (s *services) close(ctx context.Context) error {
	if s.directory == nil {
		return nil
	}
	return s.directory.Close(ctx)
}

// organisation loads an organisation with a provisioned treasury.
func (s *services) organisation(ctx context.Context, id string) (*types.Organisation, error) {
	org, err := s.directory.GetOrganisation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !org.Treasury.Provisioned() {
		return nil, fmt.Errorf("organisation %s has no treasury wallet", id)
	}
	return org, nil
}
