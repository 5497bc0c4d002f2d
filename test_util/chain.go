package testutil

import (
	"context"
	"fmt"
	"sync"

	"cosmossdk.io/log"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

// Network is an in-memory bridge. Burns on its chains emit messages that it attests.
type Network struct {
	mu       sync.Mutex
	nonce    uint64
	messages map[string][]byte
	received map[string]bool

	// AttestErr is returned by PollAttestation when set.
	AttestErr error
	Polls     int
}

func NewNetwork() *Network {
	return &Network{
		nonce:    1000,
		messages: make(map[string][]byte),
		received: make(map[string]bool),
	}
}

func receivedKey(dest, src types.Domain, nonce uint64) string {
	return fmt.Sprintf("%d/%d/%d", dest, src, nonce)
}

func (n *Network) burn(src types.Domain, req types.BurnRequest) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	units, err := types.ToMinorUnits(req.Amount, types.USDCDecimals)
	if err != nil {
		return "", err
	}
	n.nonce++
	body := &types.BurnMessage{
		MintRecipient: req.MintRecipient,
		Amount:        units,
	}
	msg := &types.Message{
		SourceDomain:      uint32(src),
		DestinationDomain: uint32(req.DestinationDomain),
		Nonce:             n.nonce,
		MessageBody:       body.Bytes(),
	}
	hash := fmt.Sprintf("0x%064x", n.nonce)
	n.messages[hash] = msg.Bytes()
	return hash, nil
}

// PollAttestation attests any burn made on the network.
func (n *Network) PollAttestation(_ context.Context, _ log.Logger, sourceDomain types.Domain, txHash string) (*types.Attestation, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Polls++
	if n.AttestErr != nil {
		return nil, n.AttestErr
	}
	bz, ok := n.messages[txHash]
	if !ok {
		return nil, types.ErrAttestationNotFound
	}
	msg, err := new(types.Message).Parse(bz)
	if err != nil {
		return nil, err
	}
	if types.Domain(msg.SourceDomain) != sourceDomain {
		return nil, types.ErrAttestationNotFound
	}
	return &types.Attestation{
		Message:     bz,
		Attestation: []byte("attested:" + txHash),
		Nonce:       msg.Nonce,
	}, nil
}

// Chain is a scripted chain strategy backed by a Network.
type Chain struct {
	Info types.ChainInfo
	Net  *Network

	BurnErr error
	MintErr error
	SendErr error
	// MintReadyErr is returned by MintReady.
	MintReadyErr error
	// FailConfirm is consulted on every Confirm call.
	FailConfirm func(ref types.TxRef) error

	mu    sync.Mutex
	calls int
	seq   int
	Burns []types.BurnRequest
	Mints []uint64
	Sends []types.SendRequest
}

var _ types.Chain = (*Chain)(nil)

func NewChain(info types.ChainInfo, net *Network) *Chain {
	if net == nil {
		net = NewNetwork()
	}
	return &Chain{Info: info, Net: net}
}

func (c *Chain) Name() string         { return c.Info.Symbol }
func (c *Chain) Family() types.Family { return c.Info.Family }
func (c *Chain) Domain() types.Domain { return c.Info.Domain }

// Calls is the number of network operations made on the chain.
func (c *Chain) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *Chain) MintRecipient(_ context.Context, address string) ([]byte, error) {
	return types.EncodeRecipient(c.Info.Family, address)
}

func (c *Chain) Burn(_ context.Context, _ log.Logger, req types.BurnRequest) (types.TxRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	c.Burns = append(c.Burns, req)
	if c.BurnErr != nil {
		return types.TxRef{}, c.BurnErr
	}
	hash, err := c.Net.burn(c.Info.Domain, req)
	if err != nil {
		return types.TxRef{}, err
	}
	c.seq++
	return types.TxRef{ID: fmt.Sprintf("%s-burn-%d", c.Info.Symbol, c.seq), Hash: hash}, nil
}

func (c *Chain) MintReady(_ *types.TreasuryWallet) error {
	return c.MintReadyErr
}

func (c *Chain) Mint(_ context.Context, _ log.Logger, t *types.Transfer) (types.TxRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.MintErr != nil {
		return types.TxRef{}, c.MintErr
	}
	msg, err := new(types.Message).Parse(t.Message)
	if err != nil {
		return types.TxRef{}, err
	}
	c.Net.mu.Lock()
	c.Net.received[receivedKey(c.Info.Domain, types.Domain(msg.SourceDomain), msg.Nonce)] = true
	c.Net.mu.Unlock()

	c.Mints = append(c.Mints, msg.Nonce)
	c.seq++
	return types.TxRef{Hash: fmt.Sprintf("%s-mint-%d", c.Info.Symbol, c.seq)}, nil
}

func (c *Chain) Confirm(_ context.Context, _ log.Logger, ref types.TxRef) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.FailConfirm != nil {
		if err := c.FailConfirm(ref); err != nil {
			return "", err
		}
	}
	if ref.Hash == "" {
		return "", fmt.Errorf("unknown transaction %s", ref.ID)
	}
	return ref.Hash, nil
}

func (c *Chain) IsMessageReceived(_ context.Context, sourceDomain types.Domain, nonce uint64) (bool, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	c.Net.mu.Lock()
	defer c.Net.mu.Unlock()
	return c.Net.received[receivedKey(c.Info.Domain, sourceDomain, nonce)], nil
}

func (c *Chain) Send(_ context.Context, _ log.Logger, req types.SendRequest) (types.TxRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	c.Sends = append(c.Sends, req)
	if c.SendErr != nil {
		return types.TxRef{}, c.SendErr
	}
	c.seq++
	return types.TxRef{Hash: fmt.Sprintf("%s-send-%d", c.Info.Symbol, c.seq)}, nil
}

// ChainConfig builds fake chains. Non-zero fields override the registry entry.
type ChainConfig struct {
	Family types.Family
	Domain types.Domain
	Net    *Network
}

var _ types.ChainConfig = (*ChainConfig)(nil)

func (c *ChainConfig) Apply(info types.ChainInfo) types.ChainInfo {
	if c.Family != "" {
		info.Family = c.Family
	}
	if c.Domain != 0 {
		info.Domain = c.Domain
	}
	return info
}

func (c *ChainConfig) Chain(info types.ChainInfo, _ types.WalletProvider) (types.Chain, error) {
	return NewChain(info, c.Net), nil
}
