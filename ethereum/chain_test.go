package ethereum_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cosmossdk.io/log"

	"github.com/strangelove-ventures/cctp-payroll/ethereum"
	"github.com/strangelove-ventures/cctp-payroll/registry"
	testutil "github.com/strangelove-ventures/cctp-payroll/test_util"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

var logger log.Logger

func init() {
	logger = log.NewLogger(os.Stdout, log.LevelOption(zerolog.ErrorLevel))
}

const recipient = "0x6E8c9A3D0c1e1E6B1f1bA46bC4a7c5B1bF7fA1C2"

func baseSepolia(t *testing.T, provider types.WalletProvider, cfg *ethereum.ChainConfig) *ethereum.Ethereum {
	t.Helper()
	info := cfg.Apply(registry.New(registry.Defaults()...).MustResolve("BASE-SEPOLIA"))
	chain, err := cfg.Chain(info, provider)
	require.NoError(t, err)
	return chain.(*ethereum.Ethereum)
}

func treasury() *types.TreasuryWallet {
	return &types.TreasuryWallet{
		OrganisationID: "org-1",
		WalletSetID:    "set-1",
		WalletIDs:      map[string]string{"BASE-SEPOLIA": "w-base", "SOL-DEVNET": "w-sol"},
	}
}

func TestChainConfigApply(t *testing.T) {
	domain := types.Domain(42)
	cfg := &ethereum.ChainConfig{ChainID: 31337, Domain: &domain, USDC: "0x1111111111111111111111111111111111111111"}

	info := cfg.Apply(types.ChainInfo{Symbol: "LOCAL", MessageTransmitter: "0x2222222222222222222222222222222222222222"})
	require.Equal(t, types.FamilyEVM, info.Family)
	require.Equal(t, types.Domain(42), info.Domain)
	require.Equal(t, int64(31337), info.ChainID)
	require.Equal(t, int32(types.USDCDecimals), info.Decimals)

	// ethereum is domain 0, only an explicit domain overrides
	info = (&ethereum.ChainConfig{}).Apply(types.ChainInfo{Domain: 6})
	require.Equal(t, types.Domain(6), info.Domain)
}

func TestBurnThroughProvider(t *testing.T) {
	provider := testutil.NewProvider()
	chain := baseSepolia(t, provider, &ethereum.ChainConfig{})

	mintRecipient, err := types.EncodeSolanaRecipient("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
	require.NoError(t, err)

	ref, err := chain.Burn(context.Background(), logger, types.BurnRequest{
		Treasury:          treasury(),
		Amount:            decimal.RequireFromString("12.5"),
		DestinationDomain: 5,
		MintRecipient:     mintRecipient,
	})
	require.NoError(t, err)
	require.NotEmpty(t, ref.ID)

	require.Len(t, provider.Calls, 2)
	approve, burn := provider.Calls[0], provider.Calls[1]

	require.Equal(t, "w-base", approve.WalletID)
	require.Equal(t, "0x036CbD53842c5426634e7929541eC2318f3dCF7e", approve.Contract)
	require.Equal(t, "approve(address,uint256)", approve.FunctionSignature)
	require.Equal(t, []any{"0x9f3B8679c73C2Fef8b59B4f3444d4e156fb70AA5", "12500000"}, approve.Params)

	require.Equal(t, "0x9f3B8679c73C2Fef8b59B4f3444d4e156fb70AA5", burn.Contract)
	require.Equal(t, "depositForBurn(uint256,uint32,bytes32,address)", burn.FunctionSignature)
	require.Equal(t, "12500000", burn.Params[0])
	require.Equal(t, "5", burn.Params[1])
	require.Len(t, burn.Params[2], 66)
	require.Equal(t, "0x036CbD53842c5426634e7929541eC2318f3dCF7e", burn.Params[3])
}

func TestBurnRequiresTreasuryWallet(t *testing.T) {
	provider := testutil.NewProvider()
	chain := baseSepolia(t, provider, &ethereum.ChainConfig{})

	_, err := chain.Burn(context.Background(), logger, types.BurnRequest{
		Treasury:          &types.TreasuryWallet{WalletSetID: "set-1"},
		Amount:            decimal.NewFromInt(1),
		DestinationDomain: 5,
		MintRecipient:     make([]byte, 32),
	})
	require.Error(t, err)
	require.Empty(t, provider.Calls)

	_, err = chain.Burn(context.Background(), logger, types.BurnRequest{
		Treasury:          treasury(),
		Amount:            decimal.Zero,
		DestinationDomain: 5,
		MintRecipient:     make([]byte, 32),
	})
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestMintThroughProvider(t *testing.T) {
	provider := testutil.NewProvider()
	chain := baseSepolia(t, provider, &ethereum.ChainConfig{})

	msg := (&types.Message{SourceDomain: 5, DestinationDomain: 6, Nonce: 77}).Bytes()
	ref, err := chain.Mint(context.Background(), logger, &types.Transfer{
		Treasury:     treasury(),
		SourceDomain: 5,
		DestDomain:   6,
		Message:      msg,
		Attestation:  []byte{0xca, 0xfe},
		Nonce:        77,
	})
	require.NoError(t, err)

	require.Len(t, provider.Calls, 1)
	call := provider.Calls[0]
	require.Equal(t, "0x7865fAfC2db2093669d92c0F33AeEF291086BEFD", call.Contract)
	require.Equal(t, "receiveMessage(bytes,bytes)", call.FunctionSignature)
	require.Equal(t, "0xcafe", call.Params[1])
	require.True(t, strings.HasPrefix(call.Params[0].(string), "0x00000000000000050000000600000000000000"))

	hash, err := chain.Confirm(context.Background(), logger, ref)
	require.NoError(t, err)
	require.Len(t, hash, 66)
}

func TestSendThroughProvider(t *testing.T) {
	provider := testutil.NewProvider()
	chain := baseSepolia(t, provider, &ethereum.ChainConfig{})

	_, err := chain.Send(context.Background(), logger, types.SendRequest{
		Treasury:  treasury(),
		Recipient: strings.ToLower(recipient),
		Amount:    decimal.RequireFromString("40"),
	})
	require.NoError(t, err)
	require.Equal(t, "transfer(address,uint256)", provider.Calls[0].FunctionSignature)
	require.Equal(t, []any{recipient, "40000000"}, provider.Calls[0].Params)

	_, err = chain.Send(context.Background(), logger, types.SendRequest{
		Treasury:  treasury(),
		Recipient: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		Amount:    decimal.RequireFromString("40"),
	})
	require.ErrorIs(t, err, types.ErrInvalidRecipient)
}

func TestIsMessageReceived(t *testing.T) {
	used := "0x0000000000000000000000000000000000000000000000000000000000000001"
	srv := newRPC(t, map[string]string{"eth_call": used})

	chain := baseSepolia(t, testutil.NewProvider(), &ethereum.ChainConfig{RPC: srv.URL})
	received, err := chain.IsMessageReceived(context.Background(), 5, 612)
	require.NoError(t, err)
	require.True(t, received)

	// without an rpc nothing can be probed
	chain = baseSepolia(t, testutil.NewProvider(), &ethereum.ChainConfig{})
	received, err = chain.IsMessageReceived(context.Background(), 5, 612)
	require.NoError(t, err)
	require.False(t, received)
}

func TestMinterKey(t *testing.T) {
	chain := baseSepolia(t, testutil.NewProvider(), &ethereum.ChainConfig{MinterPrivateKey: "0x" + testMinterKey})
	require.NotEmpty(t, chain.MinterAddress())

	_, err := (&ethereum.ChainConfig{MinterPrivateKey: "zz"}).Chain(
		registry.New(registry.Defaults()...).MustResolve("BASE-SEPOLIA"), testutil.NewProvider())
	require.Error(t, err)
}

func TestMintReady(t *testing.T) {
	provider := testutil.NewProvider()
	chain := baseSepolia(t, provider, &ethereum.ChainConfig{})

	require.NoError(t, chain.MintReady(treasury()))
	require.ErrorContains(t, chain.MintReady(&types.TreasuryWallet{
		WalletSetID: "set-1",
		WalletIDs:   map[string]string{"SOL-DEVNET": "w-sol"},
	}), "no minter key configured")
	require.Error(t, chain.MintReady(nil))

	keyed := baseSepolia(t, provider, &ethereum.ChainConfig{MinterPrivateKey: "0x" + testMinterKey})
	require.NoError(t, keyed.MintReady(nil))
	require.Empty(t, provider.Calls)
}
