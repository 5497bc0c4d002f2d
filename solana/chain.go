package solana

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

// Domain is the CCTP domain of Solana.
// https://developers.circle.com/stablecoins/supported-domains
const Domain types.Domain = 5

const defaultConfirmTimeout = 2 * time.Minute

var _ types.Chain = (*Solana)(nil)

type Solana struct {
	info           types.ChainInfo
	rpcClient      *rpc.Client
	confirmTimeout time.Duration

	// nil when no signer is configured
	wallet *solana.PrivateKey

	messageTransmitter   solana.PublicKey
	tokenMessengerMinter solana.PublicKey
	fiatToken            solana.PublicKey
}

func NewSolana(info types.ChainInfo, cfg *Config) (*Solana, error) {
	s := &Solana{
		info:           info,
		confirmTimeout: time.Duration(cfg.ConfirmTimeout) * time.Second,
	}
	if s.confirmTimeout <= 0 {
		s.confirmTimeout = defaultConfirmTimeout
	}
	if cfg.RPC != "" {
		s.rpcClient = rpc.New(cfg.RPC)
	}

	var err error
	if s.messageTransmitter, err = solana.PublicKeyFromBase58(info.MessageTransmitter); err != nil {
		return nil, fmt.Errorf("invalid message transmitter %q: %w", info.MessageTransmitter, err)
	}
	if s.tokenMessengerMinter, err = solana.PublicKeyFromBase58(info.TokenMessenger); err != nil {
		return nil, fmt.Errorf("invalid token messenger minter %q: %w", info.TokenMessenger, err)
	}
	if s.fiatToken, err = solana.PublicKeyFromBase58(info.USDC); err != nil {
		return nil, fmt.Errorf("invalid fiat token %q: %w", info.USDC, err)
	}

	if cfg.PrivateKey != "" {
		wallet, err := solana.PrivateKeyFromBase58(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid solana private key: %w", err)
		}
		s.wallet = &wallet
	}
	return s, nil
}

// Name implements the types.Chain interface.
func (s *Solana) Name() string { return s.info.Symbol }

func (s *Solana) Family() types.Family { return types.FamilySolana }

// Domain returns the specific domain for Solana.
func (s *Solana) Domain() types.Domain { return s.info.Domain }

// Signer returns the public key of the configured signer.
func (s *Solana) Signer() (solana.PublicKey, error) {
	if s.wallet == nil {
		return solana.PublicKey{}, fmt.Errorf("no signing key configured for %s", s.info.Symbol)
	}
	return s.wallet.PublicKey(), nil
}

// MintRecipient returns the USDC token account of address, which is what
// the TokenMessengerMinter mints to.
func (s *Solana) MintRecipient(_ context.Context, address string) ([]byte, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a solana address", types.ErrInvalidRecipient, address)
	}
	ata, _, err := solana.FindAssociatedTokenAddress(owner, s.fiatToken)
	if err != nil {
		return nil, fmt.Errorf("unable to derive token account of %s: %w", address, err)
	}
	return ata.Bytes(), nil
}

// MintReady requires a signer and an rpc endpoint. Solana mints are never
// signed by the treasury.
func (s *Solana) MintReady(_ *types.TreasuryWallet) error {
	if _, err := s.Signer(); err != nil {
		return err
	}
	_, err := s.client()
	return err
}

func (s *Solana) client() (*rpc.Client, error) {
	if s.rpcClient == nil {
		return nil, fmt.Errorf("no rpc configured for %s", s.info.Symbol)
	}
	return s.rpcClient, nil
}
