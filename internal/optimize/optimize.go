// Package optimize finds the input amount that maximizes a cycle's profit.
// The profit function is empirically unimodal in x for constant-product
// swaps (ignoring integer-rounding noise), so a ternary-search-like
// bisection suffices; no derivative or convexity assumption is required.
package optimize

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Default search bounds, in base-asset base units.
var (
	DefaultMin   = uint256.MustFromDecimal("1000000")
	DefaultMax   = uint256.MustFromDecimal("10000000000000000000000")
	DefaultDelta = uint256.NewInt(1000)
)

// ProfitFunc evaluates a cycle's profit at a given input amount. Pure: must
// not mutate pool state.
type ProfitFunc func(x *uint256.Int) *big.Int

// sample is a single (x, profit) observation.
type sample struct {
	x      *uint256.Int
	profit *big.Int
}

// Maximize narrows [xMin, xMax] by bisection until the interval is no wider
// than delta, evaluating f at the lower and upper quarter-points of each
// interval and keeping whichever half looks more promising. It returns the
// best x actually sampled during the search, never the final midpoint: on
// a monotone profit function the midpoint of the last interval can be far
// from the best point seen.
func Maximize(xMin, xMax, delta *uint256.Int, f ProfitFunc) *uint256.Int {
	best := sample{x: xMin, profit: f(xMin)}
	atMax := sample{x: xMax, profit: f(xMax)}
	if atMax.profit.Cmp(best.profit) > 0 {
		best = atMax
	}

	lo, hi := new(uint256.Int).Set(xMin), new(uint256.Int).Set(xMax)
	for {
		if hi.Cmp(lo) <= 0 {
			return best.x
		}
		width := new(uint256.Int).Sub(hi, lo)
		if width.Cmp(delta) <= 0 {
			return best.x
		}

		mid := midpoint(lo, hi)
		lowerMid := midpoint(lo, mid)
		upperMid := midpoint(mid, hi)

		pLo := f(lowerMid)
		pHi := f(upperMid)

		if pLo.Cmp(best.profit) > 0 {
			best = sample{x: lowerMid, profit: pLo}
		}
		if pHi.Cmp(best.profit) > 0 {
			best = sample{x: upperMid, profit: pHi}
		}

		if pLo.Cmp(pHi) > 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
}

func midpoint(a, b *uint256.Int) *uint256.Int {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		// Extremely unlikely given the configured search bounds, but avoid
		// silently wrapping: fall back to averaging via big.Int.
		bigSum := new(big.Int).Add(a.ToBig(), b.ToBig())
		bigSum.Rsh(bigSum, 1)
		mid, _ := uint256.FromBig(bigSum)
		return mid
	}
	return new(uint256.Int).Rsh(sum, 1)
}
