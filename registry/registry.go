package registry

import (
	"fmt"
	"sort"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

// Registry maps chain symbols to their protocol parameters and, for configured
// chains, to the strategy that transacts on them. It is not mutated after Build.
type Registry struct {
	chains     map[string]types.ChainInfo
	strategies map[string]types.Chain
}

// New returns a registry over infos. Later entries replace earlier ones with the same symbol.
func New(infos ...types.ChainInfo) *Registry {
	r := &Registry{
		chains:     make(map[string]types.ChainInfo, len(infos)),
		strategies: make(map[string]types.Chain),
	}
	for _, info := range infos {
		r.chains[info.Symbol] = info
	}
	return r
}

// Build returns a registry of the built-in chains overlaid with cfg. A strategy is
// created for every configured chain, restricted to cfg.EnabledChains when it is set.
func Build(cfg *types.Config, provider types.WalletProvider) (*Registry, error) {
	r := New(Defaults()...)

	enabled := make(map[string]bool, len(cfg.EnabledChains))
	for _, symbol := range cfg.EnabledChains {
		enabled[symbol] = true
	}

	for symbol, cc := range cfg.Chains {
		info, ok := r.chains[symbol]
		if !ok {
			info = types.ChainInfo{Symbol: symbol, Decimals: types.USDCDecimals}
		}
		info = cc.Apply(info)
		info.Symbol = symbol
		if info.Family == "" {
			return nil, fmt.Errorf("family must be set for chain %s", symbol)
		}
		r.chains[symbol] = info

		if len(enabled) > 0 && !enabled[symbol] {
			continue
		}
		chain, err := cc.Chain(info, provider)
		if err != nil {
			return nil, fmt.Errorf("error creating chain %s: %w", symbol, err)
		}
		r.strategies[symbol] = chain
	}

	for symbol := range enabled {
		if _, ok := r.strategies[symbol]; !ok {
			return nil, fmt.Errorf("enabled chain %s has no chain config", symbol)
		}
	}
	return r, nil
}

// WithStrategy returns a copy of r that uses chain for its symbol.
func (r *Registry) WithStrategy(chain types.Chain) *Registry {
	cp := &Registry{
		chains:     r.chains,
		strategies: make(map[string]types.Chain, len(r.strategies)+1),
	}
	for k, v := range r.strategies {
		cp.strategies[k] = v
	}
	cp.strategies[chain.Name()] = chain
	return cp
}

// Resolve returns the parameters of a registered chain.
func (r *Registry) Resolve(symbol string) (types.ChainInfo, error) {
	info, ok := r.chains[symbol]
	if !ok {
		return types.ChainInfo{}, fmt.Errorf("%w: %s", types.ErrUnknownChain, symbol)
	}
	return info, nil
}

// MustResolve is Resolve for symbols known to be registered.
func (r *Registry) MustResolve(symbol string) types.ChainInfo {
	info, err := r.Resolve(symbol)
	if err != nil {
		panic(err)
	}
	return info
}

// Strategy returns the chain strategy for a configured chain.
func (r *Registry) Strategy(symbol string) (types.Chain, error) {
	if _, err := r.Resolve(symbol); err != nil {
		return nil, err
	}
	chain, ok := r.strategies[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not configured", types.ErrUnsupportedChain, symbol)
	}
	return chain, nil
}

// IsFamily reports whether symbol is registered with the given family.
func (r *Registry) IsFamily(symbol string, family types.Family) bool {
	info, ok := r.chains[symbol]
	return ok && info.Family == family
}

// ByDomain returns the registered symbols using a CCTP domain, sorted.
func (r *Registry) ByDomain(domain types.Domain) []string {
	var out []string
	for symbol, info := range r.chains {
		if info.Domain == domain {
			out = append(out, symbol)
		}
	}
	sort.Strings(out)
	return out
}

// Symbols returns every registered symbol, sorted.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.chains))
	for symbol := range r.chains {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// Configured returns the symbols that have a strategy, sorted.
func (r *Registry) Configured() []string {
	out := make([]string, 0, len(r.strategies))
	for symbol := range r.strategies {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}
