package solana

import "github.com/strangelove-ventures/cctp-payroll/types"

var _ types.ChainConfig = (*Config)(nil)

type Config struct {
	RPC string `yaml:"rpc" json:"rpc"`

	MessageTransmitter   string `yaml:"message-transmitter,omitempty" json:"message-transmitter,omitempty"`
	TokenMessengerMinter string `yaml:"token-messenger-minter,omitempty" json:"token-messenger-minter,omitempty"`
	FiatToken            string `yaml:"fiat-token,omitempty" json:"fiat-token,omitempty"`

	ConfirmTimeout int `yaml:"confirm-timeout" json:"confirm-timeout"`

	// base58 encoded signer for burns, mints and direct sends
	PrivateKey string `yaml:"private-key,omitempty" json:"-"`
}

func (cfg *Config) Apply(info types.ChainInfo) types.ChainInfo {
	info.Family = types.FamilySolana
	if info.Domain == 0 {
		info.Domain = Domain
	}
	if cfg.MessageTransmitter != "" {
		info.MessageTransmitter = cfg.MessageTransmitter
	}
	if cfg.TokenMessengerMinter != "" {
		info.TokenMessenger = cfg.TokenMessengerMinter
	}
	if cfg.FiatToken != "" {
		info.USDC = cfg.FiatToken
	}
	if info.Decimals == 0 {
		info.Decimals = types.USDCDecimals
	}
	return info
}

func (cfg *Config) Chain(info types.ChainInfo, _ types.WalletProvider) (types.Chain, error) {
	return NewSolana(info, cfg)
}
