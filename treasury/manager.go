package treasury

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/strangelove-ventures/cctp-payroll/registry"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

// Store persists provisioned wallets.
type Store interface {
	SaveTreasuryWallet(ctx context.Context, orgID string, wallet *types.TreasuryWallet) error
	SaveEmployeeWallet(ctx context.Context, employeeID string, wallet *types.EmployeeWallet) error
}

// Manager provisions custodial wallet sets for organisations and employees.
type Manager struct {
	provider types.WalletProvider
	registry *registry.Registry
	store    Store
	settings types.TreasurySettings

	group singleflight.Group
	// org id -> treasury created by this process
	provisioned *cache.Cache
}

func NewManager(provider types.WalletProvider, reg *registry.Registry, store Store, settings types.TreasurySettings) *Manager {
	return &Manager{
		provider:    provider,
		registry:    reg,
		store:       store,
		settings:    settings,
		provisioned: cache.New(cache.NoExpiration, 0),
	}
}

// Chains returns the chains an organisation treasury spans.
func (m *Manager) Chains() []string {
	return []string{m.settings.SolChain, m.settings.BaseChain}
}

// Provision creates a wallet set named setName holding one wallet per chain.
// It always creates a new set; callers must check for an existing one first.
func (m *Manager) Provision(ctx context.Context, logger log.Logger, setName string, chains []string) (*types.TreasuryWallet, error) {
	if len(chains) == 0 {
		return nil, fmt.Errorf("no chains to provision for %q", setName)
	}
	for _, chain := range chains {
		if _, err := m.registry.Resolve(chain); err != nil {
			return nil, err
		}
	}

	setID, err := m.provider.CreateWalletSet(ctx, setName)
	if err != nil {
		return nil, fmt.Errorf("unable to create wallet set %q: %w", setName, err)
	}
	wallets, err := m.provider.CreateWallets(ctx, setID, chains, 1)
	if err != nil {
		return nil, fmt.Errorf("unable to create wallets in set %s: %w", setID, err)
	}

	treasury := &types.TreasuryWallet{
		WalletSetID: setID,
		Addresses:   make(map[string]string, len(wallets)),
		WalletIDs:   make(map[string]string, len(wallets)),
		Balances:    make(map[string]string, len(wallets)),
	}
	for _, w := range wallets {
		treasury.Addresses[w.Blockchain] = w.Address
		treasury.WalletIDs[w.Blockchain] = w.ID
		treasury.Balances[w.Blockchain] = types.ZeroAmount
	}
	for _, chain := range chains {
		if treasury.Addresses[chain] == "" {
			return nil, fmt.Errorf("wallet set %s has no wallet on %s", setID, chain)
		}
	}

	logger.Info(fmt.Sprintf("Provisioned wallet set %q", setName), "wallet_set", setID, "chains", chains)
	return treasury, nil
}

// EnsureTreasury returns the organisation's treasury, provisioning it when the
// organisation has none. Concurrent calls for one organisation share a single provisioning.
func (m *Manager) EnsureTreasury(ctx context.Context, logger log.Logger, org *types.Organisation) (*types.TreasuryWallet, error) {
	if org.Treasury.Provisioned() {
		return org.Treasury, nil
	}

	v, err, _ := m.group.Do("org:"+org.ID, func() (any, error) {
		if existing, ok := m.provisioned.Get(org.ID); ok {
			return existing, nil
		}

		treasury, err := m.Provision(ctx, logger, fmt.Sprintf("%s - Payroll Treasury Wallet", org.Name), m.Chains())
		if err != nil {
			return nil, err
		}
		treasury.OrganisationID = org.ID
		if err := m.store.SaveTreasuryWallet(ctx, org.ID, treasury); err != nil {
			return nil, fmt.Errorf("unable to save treasury of organisation %s: %w", org.ID, err)
		}
		m.provisioned.SetDefault(org.ID, treasury)
		return treasury, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.TreasuryWallet), nil
}

// ProvisionEmployeeWallet creates a payout wallet for an employee on chain.
func (m *Manager) ProvisionEmployeeWallet(ctx context.Context, logger log.Logger, employeeID, username, chain string) (*types.EmployeeWallet, error) {
	v, err, _ := m.group.Do("employee:"+employeeID, func() (any, error) {
		set, err := m.Provision(ctx, logger, fmt.Sprintf("%s - Payroll Treasury", username), []string{chain})
		if err != nil {
			return nil, err
		}
		wallet := &types.EmployeeWallet{
			EmployeeID:       employeeID,
			Address:          set.Address(chain),
			Chain:            chain,
			ProviderWalletID: set.WalletID(chain),
		}
		if err := m.store.SaveEmployeeWallet(ctx, employeeID, wallet); err != nil {
			return nil, fmt.Errorf("unable to save wallet of employee %s: %w", employeeID, err)
		}
		return wallet, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.EmployeeWallet), nil
}
