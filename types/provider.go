package types

import (
	"context"

	"github.com/shopspring/decimal"
)

// Wallet is a custodial wallet created by a WalletProvider.
type Wallet struct {
	ID          string `json:"id"`
	Address     string `json:"address"`
	Blockchain  string `json:"blockchain"`
	WalletSetID string `json:"walletSetId"`
	State       string `json:"state"`
}

// FeeConfig selects the gas policy of provider-signed transactions.
// Level is used unless an absolute GasLimit is given.
type FeeConfig struct {
	Level       string `yaml:"level" json:"level"`
	GasLimit    string `yaml:"gas-limit" json:"gas-limit"`
	MaxFee      string `yaml:"max-fee" json:"max-fee"`
	PriorityFee string `yaml:"priority-fee" json:"priority-fee"`
}

// ContractCall is a contract execution request signed by the provider on behalf of WalletID.
type ContractCall struct {
	WalletID          string
	Contract          string
	FunctionSignature string
	Params            []any
	Fee               FeeConfig
}

// WalletProvider is the custodial wallet capability the engine depends on.
type WalletProvider interface {
	CreateWalletSet(ctx context.Context, name string) (string, error)
	CreateWallets(ctx context.Context, walletSetID string, chains []string, count int) ([]Wallet, error)
	GetBalance(ctx context.Context, address, chain, tokenAddress string) (decimal.Decimal, error)
	ExecuteContractCall(ctx context.Context, call ContractCall) (TxRef, error)
	WaitForTransaction(ctx context.Context, id string) (string, error)
}
