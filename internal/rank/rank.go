// Package rank evaluates every cycle in the cycle index against the
// current registry state and keeps the top-K net-positive results. It is
// fully synchronous: no suspension points, no I/O, matching the pipeline's
// requirement that the ranker and optimizer never yield mid-evaluation.
package rank

import (
	"math/big"
	"sort"

	"github.com/holiman/uint256"
	"github.com/rawblock/arbengine/internal/optimize"
	"github.com/rawblock/arbengine/internal/registry"
	"github.com/rawblock/arbengine/internal/swapmath"
	"github.com/rawblock/arbengine/pkg/models"
)

// MinProfit is the strict lower bound a cycle's profit must clear to be
// retained, in base-asset base units. Configuration may override this.
var MinProfit = big.NewInt(1)

// DefaultTopK is the number of ranked cycles retained per tick.
const DefaultTopK = 5

// Ranker holds the search bounds used for every cycle's optimizer call and
// the registry it reads pool state from. It keeps no state across ticks:
// every Rank call is a fresh evaluation of the full cycle index.
type Ranker struct {
	Registry  *registry.Registry
	XMin      *uint256.Int
	XMax      *uint256.Int
	Delta     *uint256.Int
	TopK      int
	MinProfit *big.Int
}

// New builds a Ranker with the default optimizer bounds and top-K.
func New(reg *registry.Registry) *Ranker {
	return &Ranker{
		Registry:  reg,
		XMin:      optimize.DefaultMin,
		XMax:      optimize.DefaultMax,
		Delta:     optimize.DefaultDelta,
		TopK:      DefaultTopK,
		MinProfit: MinProfit,
	}
}

// Rank evaluates every cycle in cycles against the current registry state,
// retaining cycles whose optimal profit is strictly greater than MinProfit,
// sorted descending by profit with ties broken by the cycle's position in
// cycles (insertion order), truncated to TopK. A cycle whose pools were
// removed from the registry since the index was built (index out of range)
// is silently skipped; the cycle index and registry can drift only in
// tests; in production both are built once from the same pool set.
func (rk *Ranker) Rank(base models.AssetID, cycles []models.Cycle) []models.NetPositiveCycle {
	var out []models.NetPositiveCycle

	for _, cycle := range cycles {
		legs, assets, ok := rk.BuildLegs(base, cycle)
		if !ok {
			continue
		}

		f := func(x *uint256.Int) *big.Int {
			profit, _ := swapmath.CycleProfit(x, legs)
			return profit
		}

		xStar := optimize.Maximize(rk.XMin, rk.XMax, rk.Delta, f)
		profit, amounts := swapmath.CycleProfit(xStar, legs)
		if profit.Cmp(rk.MinProfit) <= 0 {
			continue
		}

		out = append(out, models.NetPositiveCycle{
			Profit:      profit,
			OptimalIn:   xStar,
			SwapAmounts: amounts,
			CycleAssets: assets,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Profit.Cmp(out[j].Profit) > 0
	})

	if len(out) > rk.TopK {
		out = out[:rk.TopK]
	}
	return out
}

// Best returns the highest-profit entry of a ranked slice, or false if it's
// empty. Ranked is assumed already sorted descending (the Rank output).
func Best(ranked []models.NetPositiveCycle) (models.NetPositiveCycle, bool) {
	if len(ranked) == 0 {
		return models.NetPositiveCycle{}, false
	}
	return ranked[0], true
}

// BuildLegs walks a cycle's pairs starting from base, orienting each pool's
// reserves to the asset currently held, and returns the swapmath legs plus
// the parallel cycle-asset sequence the ranker's output carries. Returns
// ok=false if any pair's pool index is no longer present in the registry.
// Exported so the shadow optimizer (internal/shadow) can re-evaluate the
// same cycle's legs outside of a Rank call.
func (rk *Ranker) BuildLegs(base models.AssetID, cycle models.Cycle) ([]swapmath.PoolLeg, []models.CycleLeg, bool) {
	legs := make([]swapmath.PoolLeg, 0, len(cycle.Pairs))
	assets := make([]models.CycleLeg, 0, len(cycle.Pairs))

	held := base
	for _, pair := range cycle.Pairs {
		pool, ok := rk.Registry.Get(pair.Index)
		if !ok {
			return nil, nil, false
		}

		var reserveIn, reserveOut *uint256.Int
		var assetOut models.AssetID
		switch held {
		case pool.From:
			reserveIn, reserveOut = pool.Reserve0, pool.Reserve1
			assetOut = pool.To
		case pool.To:
			reserveIn, reserveOut = pool.Reserve1, pool.Reserve0
			assetOut = pool.From
		default:
			return nil, nil, false
		}

		legs = append(legs, swapmath.PoolLeg{
			ReserveIn:      reserveIn,
			ReserveOut:     reserveOut,
			FeeRate:        pool.FeeRate,
			FeeDenominator: pool.FeeDenominator,
		})
		assets = append(assets, models.CycleLeg{
			AssetIn:  held,
			AssetOut: assetOut,
			IsStable: pool.IsStable(),
		})

		held = assetOut
	}

	return legs, assets, true
}
