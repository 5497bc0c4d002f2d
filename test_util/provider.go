package testutil

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"github.com/cosmos/btcutil/base58"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

// Provider is an in-memory wallet provider.
type Provider struct {
	mu  sync.Mutex
	seq int

	Sets       map[string]string
	Wallets    []types.Wallet
	Balances   map[string]decimal.Decimal
	BalanceErr map[string]error
	Calls      []types.ContractCall

	// Err fails every call when set.
	Err error
}

var _ types.WalletProvider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{
		Sets:       make(map[string]string),
		Balances:   make(map[string]decimal.Decimal),
		BalanceErr: make(map[string]error),
	}
}

func balanceKey(chain, address string) string {
	return chain + "/" + address
}

// SetBalance sets the USDC balance of address on chain.
func (p *Provider) SetBalance(chain, address, amount string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Balances[balanceKey(chain, address)] = decimal.RequireFromString(amount)
}

// FailBalance makes balance reads of address on chain fail with err.
func (p *Provider) FailBalance(chain, address string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.BalanceErr[balanceKey(chain, address)] = err
}

func (p *Provider) CreateWalletSet(_ context.Context, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return "", p.Err
	}
	p.seq++
	id := fmt.Sprintf("set-%d", p.seq)
	p.Sets[id] = name
	return id, nil
}

func (p *Provider) CreateWallets(_ context.Context, walletSetID string, chains []string, count int) ([]types.Wallet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	if _, ok := p.Sets[walletSetID]; !ok {
		return nil, fmt.Errorf("wallet set %s not found", walletSetID)
	}

	var out []types.Wallet
	for _, chain := range chains {
		for i := 0; i < count; i++ {
			p.seq++
			w := types.Wallet{
				ID:          fmt.Sprintf("wallet-%d", p.seq),
				Address:     fakeAddress(chain, p.seq),
				Blockchain:  chain,
				WalletSetID: walletSetID,
				State:       "LIVE",
			}
			p.Wallets = append(p.Wallets, w)
			out = append(out, w)
		}
	}
	return out, nil
}

func fakeAddress(chain string, seq int) string {
	seed := sha256.Sum256([]byte(fmt.Sprintf("%s/%d", chain, seq)))
	if strings.HasPrefix(chain, "SOL") {
		return base58.Encode(seed[:])
	}
	return common.BytesToAddress(seed[:20]).Hex()
}

func (p *Provider) GetBalance(_ context.Context, address, chain, _ string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return decimal.Zero, p.Err
	}
	key := balanceKey(chain, address)
	if err := p.BalanceErr[key]; err != nil {
		return decimal.Zero, err
	}
	bal, ok := p.Balances[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", types.ErrAssetNotFound, key)
	}
	return bal, nil
}

func (p *Provider) ExecuteContractCall(_ context.Context, call types.ContractCall) (types.TxRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return types.TxRef{}, p.Err
	}
	p.seq++
	p.Calls = append(p.Calls, call)
	return types.TxRef{ID: fmt.Sprintf("tx-%d", p.seq)}, nil
}

func (p *Provider) WaitForTransaction(_ context.Context, id string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return "", p.Err
	}
	sum := sha256.Sum256([]byte(id))
	return common.BytesToHash(sum[:]).Hex(), nil
}
