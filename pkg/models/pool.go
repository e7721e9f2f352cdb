package models

import (
	"github.com/holiman/uint256"
)

// StableFeeThreshold is the fee-rate cutoff (in the same units as Pool.FeeRate)
// below which a pool is classified "stable" rather than "volatile". See
// PoolIdentity.
const StableFeeThreshold = 300

// DefaultFeeDenominator is the micro-basis-point denominator used by the
// swap-math fee formula. It is the value in effect unless a pool overrides
// it, and must be verified against the deployed AMM contract's constant
// before trusting a live bootstrap.
// TODO: confirm against the deployed contract; some AMM deployments use a
// 10000 denominator instead.
const DefaultFeeDenominator = 1_000_000

// PoolIdentity is the tuple that must match the on-chain identity used by
// the AMM contract and by the event stream. Asset ordering is fixed at
// registry build time and is never normalized.
type PoolIdentity struct {
	From     AssetID
	To       AssetID
	IsStable bool
}

// Pool is a single constant-product liquidity pool tracked by the registry.
// Reserve0 is the reserve of From, Reserve1 the reserve of To.
type Pool struct {
	Name           string
	From           AssetID
	To             AssetID
	Reserve0       *uint256.Int
	Reserve1       *uint256.Int
	FeeRate        uint64 // numerator over FeeDenominator
	FeeDenominator uint64
}

// NewPool constructs a Pool with zeroed reserves (not yet bootstrapped) and
// the default fee denominator.
func NewPool(name string, from, to AssetID, feeRate uint64) *Pool {
	return &Pool{
		Name:           name,
		From:           from,
		To:             to,
		Reserve0:       uint256.NewInt(0),
		Reserve1:       uint256.NewInt(0),
		FeeRate:        feeRate,
		FeeDenominator: DefaultFeeDenominator,
	}
}

// IsStable reports whether this pool is the "stable" fee variant.
func (p *Pool) IsStable() bool {
	return p.FeeRate < StableFeeThreshold
}

// Identity returns the PoolIdentity this pool occupies in the registry.
func (p *Pool) Identity() PoolIdentity {
	return PoolIdentity{From: p.From, To: p.To, IsStable: p.IsStable()}
}

// Bootstrapped reports whether the pool has ever received non-zero reserves.
func (p *Pool) Bootstrapped() bool {
	return !p.Reserve0.IsZero() || !p.Reserve1.IsZero()
}
