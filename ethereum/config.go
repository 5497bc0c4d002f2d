package ethereum

import (
	"github.com/strangelove-ventures/cctp-payroll/types"
)

var _ types.ChainConfig = (*ChainConfig)(nil)

type ChainConfig struct {
	ChainID            int64         `yaml:"chain-id" json:"chain-id,omitempty"`
	Domain             *types.Domain `yaml:"domain,omitempty" json:"domain,omitempty"`
	USDC               string        `yaml:"usdc,omitempty" json:"usdc,omitempty"`
	TokenMessenger     string        `yaml:"token-messenger,omitempty" json:"token-messenger,omitempty"`
	MessageTransmitter string        `yaml:"message-transmitter,omitempty" json:"message-transmitter,omitempty"`
	RPC                string        `yaml:"rpc" json:"rpc"`

	BroadcastRetries       int `yaml:"broadcast-retries" json:"broadcast-retries"`
	BroadcastRetryInterval int `yaml:"broadcast-retry-interval" json:"broadcast-retry-interval"`
	ConfirmTimeout         int `yaml:"confirm-timeout" json:"confirm-timeout"`

	// optional, mints are signed by the treasury wallet when unset
	MinterPrivateKey string `yaml:"minter-private-key,omitempty" json:"-"`
}

func (c *ChainConfig) Apply(info types.ChainInfo) types.ChainInfo {
	info.Family = types.FamilyEVM
	if c.ChainID != 0 {
		info.ChainID = c.ChainID
	}
	if c.Domain != nil {
		info.Domain = *c.Domain
	}
	if c.USDC != "" {
		info.USDC = c.USDC
	}
	if c.TokenMessenger != "" {
		info.TokenMessenger = c.TokenMessenger
	}
	if c.MessageTransmitter != "" {
		info.MessageTransmitter = c.MessageTransmitter
	}
	if info.Decimals == 0 {
		info.Decimals = types.USDCDecimals
	}
	return info
}

func (c *ChainConfig) Chain(info types.ChainInfo, provider types.WalletProvider) (types.Chain, error) {
	return NewChain(
		info,
		provider,
		c.RPC,
		c.MinterPrivateKey,
		c.BroadcastRetries,
		c.BroadcastRetryInterval,
		c.ConfirmTimeout,
	)
}
