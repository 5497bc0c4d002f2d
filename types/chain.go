package types

import (
	"context"

	"cosmossdk.io/log"
	"github.com/shopspring/decimal"
)

type Domain uint32

// Family groups chains that share transaction construction and address encoding.
type Family string

const (
	FamilyEVM    Family = "evm"
	FamilySolana Family = "solana"
)

// ChainInfo holds the static protocol parameters of a registered chain.
// https://developers.circle.com/stablecoins/supported-domains
type ChainInfo struct {
	Symbol             string `yaml:"symbol" json:"symbol"`
	Family             Family `yaml:"family" json:"family"`
	ChainID            int64  `yaml:"chain-id" json:"chain_id"`
	Domain             Domain `yaml:"domain" json:"domain"`
	USDC               string `yaml:"usdc" json:"usdc"`
	TokenMessenger     string `yaml:"token-messenger" json:"token_messenger"`
	MessageTransmitter string `yaml:"message-transmitter" json:"message_transmitter"`
	Decimals           int32  `yaml:"decimals" json:"decimals"`
}

// BurnRequest describes the source side of a bridge transfer.
type BurnRequest struct {
	Treasury          *TreasuryWallet
	Amount            decimal.Decimal
	DestinationDomain Domain
	MintRecipient     []byte
}

// SendRequest describes a same-chain payment that needs no bridge.
type SendRequest struct {
	Treasury  *TreasuryWallet
	Recipient string
	Amount    decimal.Decimal
}

// Chain is the family specific strategy for CCTP source and destination operations.
type Chain interface {
	// Name returns the registry symbol of the chain.
	Name() string

	// Family returns the chain family the strategy implements.
	Family() Family

	// Domain returns the CCTP domain ID of the chain.
	Domain() Domain

	// MintRecipient returns the 32 byte mint recipient a burn targeting this chain must carry.
	MintRecipient(ctx context.Context, address string) ([]byte, error)

	// Burn submits a depositForBurn on this chain. The returned reference is not yet confirmed.
	Burn(ctx context.Context, logger log.Logger, req BurnRequest) (TxRef, error)

	// MintReady returns an error when this chain has no way to sign a mint for treasury.
	// It makes no network calls.
	MintReady(treasury *TreasuryWallet) error

	// Mint submits receiveMessage on this chain for an attested transfer.
	Mint(ctx context.Context, logger log.Logger, t *Transfer) (TxRef, error)

	// Confirm blocks until the referenced transaction is final and returns its hash.
	Confirm(ctx context.Context, logger log.Logger, ref TxRef) (string, error)

	// IsMessageReceived reports whether the nonce from sourceDomain was already minted here.
	IsMessageReceived(ctx context.Context, sourceDomain Domain, nonce uint64) (bool, error)

	// Send transfers USDC directly between two accounts of this chain.
	Send(ctx context.Context, logger log.Logger, req SendRequest) (TxRef, error)
}
