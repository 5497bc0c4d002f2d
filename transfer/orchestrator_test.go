package transfer_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cosmossdk.io/log"

	"github.com/strangelove-ventures/cctp-payroll/circle"
	"github.com/strangelove-ventures/cctp-payroll/ethereum"
	"github.com/strangelove-ventures/cctp-payroll/registry"
	testutil "github.com/strangelove-ventures/cctp-payroll/test_util"
	"github.com/strangelove-ventures/cctp-payroll/transfer"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

const (
	solRecipient = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	evmRecipient = "0x6E8c9A3D0c1e1E6B1f1bA46bC4a7c5B1bF7fA1C2"
)

type env struct {
	net  *testutil.Network
	base *testutil.Chain
	sol  *testutil.Chain
	reg  *registry.Registry
}

func newEnv() *env {
	net := testutil.NewNetwork()
	reg := registry.New(registry.Defaults()...)
	e := &env{
		net:  net,
		base: testutil.NewChain(reg.MustResolve("BASE-SEPOLIA"), net),
		sol:  testutil.NewChain(reg.MustResolve("SOL-DEVNET"), net),
	}
	e.reg = reg.WithStrategy(e.base).WithStrategy(e.sol)
	return e
}

func (e *env) orchestrator(attester transfer.Attester) *transfer.Orchestrator {
	if attester == nil {
		attester = e.net
	}
	return transfer.NewOrchestrator(e.reg, attester, types.NewTransferMap(time.Hour), nil)
}

func treasury() *types.TreasuryWallet {
	return &types.TreasuryWallet{
		OrganisationID: "org-1",
		WalletSetID:    "set-1",
		WalletIDs:      map[string]string{"BASE-SEPOLIA": "w-base", "SOL-DEVNET": "w-sol"},
	}
}

func request(src, dst, recipient, amount string) transfer.Request {
	return transfer.Request{
		Treasury:         treasury(),
		Recipient:        recipient,
		Amount:           decimal.RequireFromString(amount),
		SourceChain:      src,
		DestinationChain: dst,
	}
}

func TestTransferEVMToSolana(t *testing.T) {
	e := newEnv()
	o := e.orchestrator(nil)

	tr, err := o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "SOL-DEVNET", solRecipient, "12.5"))
	require.NoError(t, err)
	require.Equal(t, types.StatusMintConfirmed, tr.Status)
	require.NotEmpty(t, tr.BurnTxHash)
	require.NotEmpty(t, tr.MintTxHash)
	require.Equal(t, uint64(1001), tr.Nonce)
	require.Equal(t, types.Domain(6), tr.SourceDomain)
	require.Equal(t, types.Domain(5), tr.DestDomain)

	// the recipient is encoded for the destination family
	require.Len(t, e.base.Burns, 1)
	want, err := types.EncodeSolanaRecipient(solRecipient)
	require.NoError(t, err)
	require.Equal(t, want, e.base.Burns[0].MintRecipient)
	require.Equal(t, types.Domain(5), e.base.Burns[0].DestinationDomain)
	require.Equal(t, []uint64{1001}, e.sol.Mints)

	stored, ok := o.Lookup(tr.BurnTxHash)
	require.True(t, ok)
	require.Equal(t, types.StatusMintConfirmed, stored.Status)
	require.Empty(t, o.Pending())
}

func TestTransferSolanaToEVM(t *testing.T) {
	e := newEnv()
	o := e.orchestrator(nil)

	tr, err := o.Transfer(context.Background(), log.NewNopLogger(), request("SOL-DEVNET", "BASE-SEPOLIA", evmRecipient, "3"))
	require.NoError(t, err)
	require.Equal(t, types.StatusMintConfirmed, tr.Status)

	recipient, err := types.DecodeEVMRecipient(e.sol.Burns[0].MintRecipient)
	require.NoError(t, err)
	require.True(t, strings.EqualFold(evmRecipient, recipient))
	require.Equal(t, types.Domain(6), e.sol.Burns[0].DestinationDomain)
	require.Len(t, e.base.Mints, 1)
}

func TestTransferUnsupportedChain(t *testing.T) {
	e := newEnv()
	o := e.orchestrator(nil)

	for _, req := range []transfer.Request{
		request("BASE-SEPOLIA", "DOGE", solRecipient, "1"),
		request("DOGE", "SOL-DEVNET", solRecipient, "1"),
		// registered but not configured
		request("BASE-SEPOLIA", "ETH-SEPOLIA", evmRecipient, "1"),
	} {
		_, err := o.Transfer(context.Background(), log.NewNopLogger(), req)
		require.ErrorIs(t, err, types.ErrUnsupportedChain)
	}

	require.Zero(t, e.base.Calls())
	require.Zero(t, e.sol.Calls())
	require.Zero(t, e.net.Polls)
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	e := newEnv()
	o := e.orchestrator(nil)

	_, err := o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "SOL-DEVNET", solRecipient, "0"))
	require.ErrorIs(t, err, types.ErrInvalidAmount)
	require.Zero(t, e.base.Calls())
}

func TestTransferInvalidRecipient(t *testing.T) {
	e := newEnv()
	o := e.orchestrator(nil)

	_, err := o.Transfer(context.Background(), log.NewNopLogger(), request("SOL-DEVNET", "BASE-SEPOLIA", solRecipient, "1"))
	require.ErrorIs(t, err, types.ErrInvalidRecipient)
	require.Empty(t, e.sol.Burns)
}

func TestTransferBurnFailed(t *testing.T) {
	e := newEnv()
	e.base.BurnErr = errors.New("insufficient allowance")
	o := e.orchestrator(nil)

	_, err := o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "SOL-DEVNET", solRecipient, "1"))
	require.ErrorIs(t, err, types.ErrBurnFailed)

	var te *types.TransferError
	require.ErrorAs(t, err, &te)
	require.Equal(t, types.StatusFailed, te.Transfer.Status)
	require.False(t, te.IsPartial())
	require.Zero(t, e.net.Polls)
	require.Empty(t, e.sol.Mints)
}

func TestTransferAttestationTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"attestation":"PENDING","message":"0x","eventNonce":"1001"}]}`))
	}))
	defer srv.Close()

	iris := circle.NewAttestationClient(types.CircleSettings{AttestationBaseURL: srv.URL}).
		SetPolling(5*time.Millisecond, 50*time.Millisecond)

	e := newEnv()
	o := e.orchestrator(iris)

	start := time.Now()
	_, err := o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "SOL-DEVNET", solRecipient, "1"))
	require.ErrorIs(t, err, types.ErrAttestationTimeout)
	require.Less(t, time.Since(start), 10*time.Second)

	var te *types.TransferError
	require.ErrorAs(t, err, &te)
	require.True(t, te.IsPartial())
	require.NotEmpty(t, te.Transfer.BurnTxHash)
	require.Empty(t, e.sol.Mints)
	require.Len(t, o.Pending(), 1)
}

func TestTransferMintFailedThenResume(t *testing.T) {
	e := newEnv()
	e.sol.MintErr = errors.New("blockhash not found")
	o := e.orchestrator(nil)

	_, err := o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "SOL-DEVNET", solRecipient, "7"))
	require.ErrorIs(t, err, types.ErrMintFailed)

	var te *types.TransferError
	require.ErrorAs(t, err, &te)
	require.True(t, te.IsPartial())
	require.True(t, te.Transfer.Mintable())

	e.sol.MintErr = nil
	polls := e.net.Polls

	tr, err := o.ResumeMint(context.Background(), log.NewNopLogger(), te.Transfer)
	require.NoError(t, err)
	require.Equal(t, types.StatusMintConfirmed, tr.Status)
	require.Len(t, e.base.Burns, 1)
	require.Equal(t, []uint64{1001}, e.sol.Mints)
	// the cached attestation is reused
	require.Equal(t, polls, e.net.Polls)
}

func TestResumeMintRefetchesAttestation(t *testing.T) {
	e := newEnv()
	e.net.AttestErr = types.ErrAttestationTimeout
	o := e.orchestrator(nil)

	_, err := o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "SOL-DEVNET", solRecipient, "2"))
	require.ErrorIs(t, err, types.ErrAttestationTimeout)

	pending := o.Pending()
	require.Len(t, pending, 1)

	e.net.AttestErr = nil
	tr, err := o.ResumeMint(context.Background(), log.NewNopLogger(), pending[0])
	require.NoError(t, err)
	require.Equal(t, types.StatusMintConfirmed, tr.Status)
	require.Len(t, e.base.Burns, 1)
	require.Empty(t, o.Pending())
}

func TestResumeMintAlreadyReceived(t *testing.T) {
	e := newEnv()
	o := e.orchestrator(nil)

	tr, err := o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "SOL-DEVNET", solRecipient, "2"))
	require.NoError(t, err)

	stale := *tr
	stale.Status = types.StatusFailed
	resumed, err := o.ResumeMint(context.Background(), log.NewNopLogger(), &stale)
	require.NoError(t, err)
	require.Equal(t, types.StatusMintConfirmed, resumed.Status)
	require.Len(t, e.sol.Mints, 1)
}

func TestResumeMintRequiresBurn(t *testing.T) {
	e := newEnv()
	o := e.orchestrator(nil)

	_, err := o.ResumeMint(context.Background(), log.NewNopLogger(), &types.Transfer{
		SourceChain:      "BASE-SEPOLIA",
		DestinationChain: "SOL-DEVNET",
	})
	require.ErrorIs(t, err, types.ErrMintFailed)
	require.Zero(t, e.base.Calls())
}

func TestMintConfirmErrorButReceived(t *testing.T) {
	e := newEnv()
	e.sol.FailConfirm = func(ref types.TxRef) error {
		return errors.New("rpc unavailable")
	}
	o := e.orchestrator(nil)

	tr, err := o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "SOL-DEVNET", solRecipient, "4"))
	require.NoError(t, err)
	require.Equal(t, types.StatusMintConfirmed, tr.Status)
	require.NotEmpty(t, tr.MintTxHash)
}

func TestDirectTransfer(t *testing.T) {
	e := newEnv()
	o := e.orchestrator(nil)

	tr, err := o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "BASE-SEPOLIA", evmRecipient, "9.99"))
	require.NoError(t, err)
	require.True(t, tr.Direct)
	require.Equal(t, types.StatusMintConfirmed, tr.Status)
	require.Len(t, e.base.Sends, 1)
	require.Empty(t, e.base.Burns)
	require.Zero(t, e.net.Polls)
}

func TestTransferCancelledBeforeBurn(t *testing.T) {
	e := newEnv()
	o := e.orchestrator(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Transfer(ctx, log.NewNopLogger(), request("BASE-SEPOLIA", "SOL-DEVNET", solRecipient, "1"))
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, e.base.Burns)
}

func TestTransferDestinationCannotMint(t *testing.T) {
	provider := testutil.NewProvider()
	reg := registry.New(registry.Defaults()...)

	base, err := ethereum.NewChain(reg.MustResolve("BASE-SEPOLIA"), provider, "", "", 0, 0, 0)
	require.NoError(t, err)
	eth, err := ethereum.NewChain(reg.MustResolve("ETH-SEPOLIA"), provider, "", "", 0, 0, 0)
	require.NoError(t, err)

	net := testutil.NewNetwork()
	o := transfer.NewOrchestrator(reg.WithStrategy(base).WithStrategy(eth), net, types.NewTransferMap(time.Hour), nil)

	// the treasury holds no wallet on ETH-SEPOLIA and there is no minter key
	_, err = o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "ETH-SEPOLIA", evmRecipient, "5"))
	require.ErrorIs(t, err, types.ErrMintFailed)

	var te *types.TransferError
	require.ErrorAs(t, err, &te)
	require.False(t, te.IsPartial())
	require.Empty(t, te.Transfer.BurnTxHash)
	require.Empty(t, provider.Calls)
	require.Zero(t, net.Polls)
	require.Empty(t, o.Pending())
}

func TestTransferMintNotReadySkipsBurn(t *testing.T) {
	e := newEnv()
	e.sol.MintReadyErr = errors.New("no signing key configured for SOL-DEVNET")
	o := e.orchestrator(nil)

	_, err := o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "SOL-DEVNET", solRecipient, "1"))
	require.ErrorIs(t, err, types.ErrMintFailed)
	require.Zero(t, e.base.Calls())
	require.Zero(t, e.sol.Calls())
}

func TestTransferAttestationNotFoundIsPartial(t *testing.T) {
	e := newEnv()
	e.net.AttestErr = types.ErrAttestationNotFound
	o := e.orchestrator(nil)

	_, err := o.Transfer(context.Background(), log.NewNopLogger(), request("BASE-SEPOLIA", "SOL-DEVNET", solRecipient, "4"))
	require.ErrorIs(t, err, types.ErrAttestationNotFound)

	var te *types.TransferError
	require.ErrorAs(t, err, &te)
	require.NotEmpty(t, te.Transfer.BurnTxHash)
	require.True(t, te.IsPartial())
	require.Len(t, o.Pending(), 1)
}
