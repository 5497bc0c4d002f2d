package treasury_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmossdk.io/log"

	"github.com/strangelove-ventures/cctp-payroll/registry"
	testutil "github.com/strangelove-ventures/cctp-payroll/test_util"
	"github.com/strangelove-ventures/cctp-payroll/treasury"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

var settings = types.TreasurySettings{SolChain: "SOL-DEVNET", BaseChain: "BASE-SEPOLIA"}

func setup() (*treasury.Manager, *testutil.Provider, *testutil.Directory) {
	provider := testutil.NewProvider()
	dir := testutil.NewDirectory()
	dir.AddOrganisation(types.Organisation{ID: "org-1", Name: "Acme", IsApproved: true},
		types.Employee{ID: "emp-1", Username: "ada"})
	m := treasury.NewManager(provider, registry.New(registry.Defaults()...), dir, settings)
	return m, provider, dir
}

func TestProvision(t *testing.T) {
	m, provider, _ := setup()

	w, err := m.Provision(context.Background(), log.NewNopLogger(), "Acme - Payroll Treasury Wallet", m.Chains())
	require.NoError(t, err)
	require.True(t, w.Provisioned())
	require.Equal(t, "Acme - Payroll Treasury Wallet", provider.Sets[w.WalletSetID])
	require.NotEmpty(t, w.Address("SOL-DEVNET"))
	require.NotEmpty(t, w.Address("BASE-SEPOLIA"))
	require.NotEmpty(t, w.WalletID("BASE-SEPOLIA"))
	require.Equal(t, types.ZeroAmount, w.Balances["SOL-DEVNET"])

	_, err = types.EncodeSolanaRecipient(w.Address("SOL-DEVNET"))
	require.NoError(t, err)
	_, err = types.EncodeEVMRecipient(w.Address("BASE-SEPOLIA"))
	require.NoError(t, err)
}

func TestProvisionUnknownChain(t *testing.T) {
	m, provider, _ := setup()

	_, err := m.Provision(context.Background(), log.NewNopLogger(), "Acme", []string{"DOGE"})
	require.ErrorIs(t, err, types.ErrUnknownChain)
	require.Empty(t, provider.Sets)
}

func TestEnsureTreasurySkipsProvisioned(t *testing.T) {
	m, provider, _ := setup()

	existing := &types.TreasuryWallet{WalletSetID: "set-existing"}
	w, err := m.EnsureTreasury(context.Background(), log.NewNopLogger(), &types.Organisation{ID: "org-1", Treasury: existing})
	require.NoError(t, err)
	require.Same(t, existing, w)
	require.Empty(t, provider.Sets)
}

func TestEnsureTreasuryProvisionsOnce(t *testing.T) {
	m, provider, dir := setup()
	org := &types.Organisation{ID: "org-1", Name: "Acme"}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.EnsureTreasury(context.Background(), log.NewNopLogger(), org)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// a stale organisation record does not create a second treasury
	w, err := m.EnsureTreasury(context.Background(), log.NewNopLogger(), org)
	require.NoError(t, err)
	require.Len(t, provider.Sets, 1)
	require.Equal(t, "org-1", w.OrganisationID)

	stored, err := dir.GetOrganisation(context.Background(), "org-1")
	require.NoError(t, err)
	require.Equal(t, w.WalletSetID, stored.Treasury.WalletSetID)
}

func TestProvisionEmployeeWallet(t *testing.T) {
	m, provider, dir := setup()

	w, err := m.ProvisionEmployeeWallet(context.Background(), log.NewNopLogger(), "emp-1", "ada", "BASE-SEPOLIA")
	require.NoError(t, err)
	require.Equal(t, "BASE-SEPOLIA", w.Chain)
	require.NotEmpty(t, w.ProviderWalletID)
	require.Contains(t, provider.Sets, "set-1")
	require.Equal(t, "ada - Payroll Treasury", provider.Sets["set-1"])

	stored := dir.Employee("org-1", "emp-1")
	require.NotNil(t, stored.Wallet)
	require.Equal(t, w.Address, stored.Wallet.Address)
}
