package amm

import (
	"fmt"
	"math/big"
	"strings"

	"liquidityQuoter/internal/amount"
)

// Config carries the policy inputs of routing and slippage decisions.
type Config struct {
	// FeeBps is applied to pools whose snapshot carries no fee of its own.
	FeeBps           uint32
	// BridgeCandidates are tried in order when no direct pool exists.
	BridgeCandidates []Asset

	DefaultToleranceBps uint32
	// AutoTolerance derives swap tolerance from price impact unless the caller sets one.
	AutoTolerance       bool
}

// DefaultConfig matches a Uniswap V2 deployment with a 0.5% default tolerance.
func DefaultConfig() Config {
	return Config{FeeBps: 30, DefaultToleranceBps: 50}
}

func (c Config) Validate() error {
	if c.FeeBps >= BpsDenominator {
		return fmt.Errorf("%w: fee %d bps", ErrInvalidFee, c.FeeBps)
	}
	if c.DefaultToleranceBps >= BpsDenominator {
		return fmt.Errorf("%w: default tolerance %d bps", ErrInvalidTolerance, c.DefaultToleranceBps)
	}
	return nil
}

// Route is a path of n pools through n+1 assets.
type Route struct {
	Assets []Asset
	Pools  []Pool
}

// NewRoute walks pools starting from assetIn, deriving each hop's direction
// from the asset entering it.
func NewRoute(pools []Pool, assetIn Asset) (Route, error) {
	if len(pools) == 0 {
		return Route{}, fmt.Errorf("%w: no pools", ErrInvalidRoute)
	}
	assets := make([]Asset, 0, len(pools)+1)
	assets = append(assets, assetIn)
	current := assetIn
	for i, p := range pools {
		next, err := p.Other(current)
		if err != nil {
			return Route{}, fmt.Errorf("%w: hop %d: %v", ErrInvalidRoute, i, err)
		}
		if i > 0 && p.Key() == pools[i-1].Key() {
			return Route{}, fmt.Errorf("%w: hops %d and %d use the same pair %s", ErrInvalidRoute, i-1, i, p.Key())
		}
		assets = append(assets, next)
		current = next
	}
	return Route{Assets: assets, Pools: append([]Pool(nil), pools...)}, nil
}

func (r Route) Hops() int { return len(r.Pools) }

func (r Route) AssetIn() Asset { return r.Assets[0] }

func (r Route) AssetOut() Asset { return r.Assets[len(r.Assets)-1] }

func (r Route) String() string {
	labels := make([]string, len(r.Assets))
	for i, a := range r.Assets {
		labels[i] = a.Label()
	}
	return strings.Join(labels, " -> ")
}

// Quote is the result of quoting a route. HopAmounts holds the amount entering
// each hop followed by the final output.
type Quote struct {
	AmountIn       amount.Amount
	AmountOut      amount.Amount
	Route          Route
	HopAmounts     []amount.Amount
	PriceImpactBps uint32
	HopImpactBps   []uint32
	ExactOutput    bool
}

// ResolvePath returns the direct route when a pool for (assetIn, assetOut)
// exists, otherwise the first two-hop route through bridgeCandidates.
func ResolvePath(pools *PoolSet, assetIn, assetOut Asset, bridgeCandidates []Asset) (Route, error) {
	if assetIn.Equal(assetOut) {
		return Route{}, fmt.Errorf("%w: %s", ErrSameAsset, assetIn.ID)
	}
	if p, ok := pools.Lookup(assetIn, assetOut); ok {
		return NewRoute([]Pool{p}, assetIn)
	}
	for _, bridge := range bridgeCandidates {
		if bridge.Equal(assetIn) || bridge.Equal(assetOut) {
			continue
		}
		first, ok := pools.Lookup(assetIn, bridge)
		if !ok {
			continue
		}
		second, ok := pools.Lookup(bridge, assetOut)
		if !ok {
			continue
		}
		return NewRoute([]Pool{first, second}, assetIn)
	}
	return Route{}, fmt.Errorf("%w: %s -> %s", ErrNoRouteFound, assetIn.Label(), assetOut.Label())
}

// Router resolves and quotes routes under a fixed Config.
type Router struct {
	cfg Config
}

func NewRouter(cfg Config) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BridgeCandidates = append([]Asset(nil), cfg.BridgeCandidates...)
	return &Router{cfg: cfg}, nil
}

func (r *Router) Config() Config { return r.cfg }

// ResolvePath resolves a route using the configured bridge candidates.
func (r *Router) ResolvePath(pools *PoolSet, assetIn, assetOut Asset) (Route, error) {
	return ResolvePath(pools, assetIn, assetOut, r.cfg.BridgeCandidates)
}

// Quote applies QuoteExactInput hop by hop; each output is the next input.
func (r *Router) Quote(route Route, amountIn amount.Amount) (Quote, error) {
	if route.Hops() == 0 {
		return Quote{}, fmt.Errorf("%w: empty route", ErrInvalidRoute)
	}
	amounts := make([]amount.Amount, route.Hops()+1)
	amounts[0] = amountIn
	for i, p := range route.Pools {
		out, err := QuoteExactInput(p, route.Assets[i], amounts[i])
		if err != nil {
			return Quote{}, fmt.Errorf("hop %d (%s): %w", i, p.Key(), err)
		}
		amounts[i+1] = out
	}
	return newQuote(route, amounts, false)
}

// QuoteExactOutput walks the route backwards with QuoteExactOutput per hop.
func (r *Router) QuoteExactOutput(route Route, amountOut amount.Amount) (Quote, error) {
	if route.Hops() == 0 {
		return Quote{}, fmt.Errorf("%w: empty route", ErrInvalidRoute)
	}
	amounts := make([]amount.Amount, route.Hops()+1)
	amounts[route.Hops()] = amountOut
	for i := route.Hops() - 1; i >= 0; i-- {
		p := route.Pools[i]
		in, err := QuoteExactOutput(p, route.Assets[i+1], amounts[i+1])
		if err != nil {
			return Quote{}, fmt.Errorf("hop %d (%s): %w", i, p.Key(), err)
		}
		amounts[i] = in
	}
	return newQuote(route, amounts, true)
}

func newQuote(route Route, amounts []amount.Amount, exactOutput bool) (Quote, error) {
	impacts := make([]*big.Rat, route.Hops())
	hopBps := make([]uint32, route.Hops())
	for i, p := range route.Pools {
		impact, err := priceImpact(p, route.Assets[i], amounts[i], amounts[i+1])
		if err != nil {
			return Quote{}, fmt.Errorf("hop %d (%s): %w", i, p.Key(), err)
		}
		impacts[i] = impact
		hopBps[i] = ImpactBps(impact)
	}
	return Quote{
		AmountIn:       amounts[0],
		AmountOut:      amounts[len(amounts)-1],
		Route:          route,
		HopAmounts:     amounts,
		PriceImpactBps: ImpactBps(ComposeImpact(impacts...)),
		HopImpactBps:   hopBps,
		ExactOutput:    exactOutput,
	}, nil
}
