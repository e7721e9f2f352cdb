package models

import (
	"math/big"

	"github.com/holiman/uint256"
)

// CycleLeg is one hop of a NetPositiveCycle's asset path, carrying enough
// information for the bundle composer to build the swap-script's pool
// sequence without re-deriving it from the registry.
type CycleLeg struct {
	AssetIn  AssetID
	AssetOut AssetID
	IsStable bool
}

// NetPositiveCycle is the ranker's output for a single cycle at its optimal
// input size. Profit is signed because it can be negative during search but
// the ranker only retains cycles whose profit exceeds its MinProfit
// (1 base-asset unit by default). Lifetime is per tick: Rank returns the
// current top-K, the coordinator hands the best entry to the bundle
// composer, and the next tick's ranking replaces it.
type NetPositiveCycle struct {
	Profit      *big.Int
	OptimalIn   *uint256.Int
	SwapAmounts []*uint256.Int
	CycleAssets []CycleLeg
}
