package balance

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	"github.com/shopspring/decimal"

	"github.com/strangelove-ventures/cctp-payroll/metrics"
	"github.com/strangelove-ventures/cctp-payroll/registry"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

const denom = "usdc"

// Reader reads USDC balances of custodial wallets through the wallet provider.
// Nothing is cached; every call is a fresh read.
type Reader struct {
	provider types.WalletProvider
	registry *registry.Registry
	treasury types.TreasurySettings
	metrics  *metrics.PromMetrics
}

func NewReader(provider types.WalletProvider, reg *registry.Registry, treasury types.TreasurySettings, m *metrics.PromMetrics) *Reader {
	return &Reader{
		provider: provider,
		registry: reg,
		treasury: treasury,
		metrics:  m,
	}
}

// GetBalanceStrict returns the balance of address on chain. assetAddress defaults
// to the chain's USDC. Any provider failure is returned as ErrBalanceUnavailable.
func (r *Reader) GetBalanceStrict(ctx context.Context, address, chain, assetAddress string) (decimal.Decimal, error) {
	info, err := r.registry.Resolve(chain)
	if err != nil {
		return decimal.Zero, err
	}
	if assetAddress == "" {
		assetAddress = info.USDC
	}
	if address == "" {
		return decimal.Zero, fmt.Errorf("%w: no address on %s", types.ErrBalanceUnavailable, chain)
	}

	bal, err := r.provider.GetBalance(ctx, address, chain, assetAddress)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s on %s: %w", types.ErrBalanceUnavailable, address, chain, err)
	}

	r.metrics.SetWalletBalance(chain, address, denom, bal)
	return bal, nil
}

// GetBalance is GetBalanceStrict that reads failures as an empty wallet, returning
// the display form of the balance.
func (r *Reader) GetBalance(ctx context.Context, logger log.Logger, address, chain, assetAddress string) string {
	bal, err := r.GetBalanceStrict(ctx, address, chain, assetAddress)
	if err != nil {
		logger.Error("Unable to read balance, treating as empty", "chain", chain, "address", address, "err", err)
		return types.ZeroAmount
	}
	return types.FormatAmount(bal)
}

// TreasuryBalances reads both sides of an organisation treasury at full precision.
// Unreadable sides count as zero.
func (r *Reader) TreasuryBalances(ctx context.Context, logger log.Logger, treasury *types.TreasuryWallet) (sol, base decimal.Decimal) {
	read := func(chain string) decimal.Decimal {
		bal, err := r.GetBalanceStrict(ctx, treasury.Address(chain), chain, "")
		if err != nil {
			logger.Error("Unable to read treasury balance, treating as empty", "chain", chain, "err", err)
			return decimal.Zero
		}
		return bal
	}
	return read(r.treasury.SolChain), read(r.treasury.BaseChain)
}
