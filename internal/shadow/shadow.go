// Package shadow runs the production ternary-bisection optimizer alongside
// a brute-force grid search over the same domain, on the same cycle, and
// persists a report whenever the two disagree meaningfully. The bisection
// relies on the profit function being unimodal; the grid search checks
// that assumption continuously in production rather than only in a unit
// test.
package shadow

import (
	"context"
	"log"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/rawblock/arbengine/internal/db"
	"github.com/rawblock/arbengine/internal/optimize"
	"github.com/rawblock/arbengine/internal/swapmath"
)

// GridSamples is the number of evenly-spaced points the brute-force search
// evaluates. Higher catches more non-unimodal noise at the cost of more
// swapmath evaluations per cycle per run.
const GridSamples = 200

// Report captures one comparison between the bisection optimizer and a
// brute-force grid search over the same domain and cycle.
type Report struct {
	OptimizerX      *uint256.Int
	OptimizerProfit *big.Int
	GridX           *uint256.Int
	GridProfit      *big.Int
	Delta           *big.Int
}

// Diverges reports whether the grid search found a strictly better profit
// than the optimizer, the only direction that matters, since the optimizer
// is allowed to land on an equally-good neighboring sample.
func (r Report) Diverges() bool {
	return r.GridProfit.Cmp(r.OptimizerProfit) > 0
}

// Runner evaluates one cycle's legs with both the production optimizer and
// a brute-force grid search, optionally persisting every divergent result.
type Runner struct {
	XMin, XMax, Delta *uint256.Int
	store             *db.PostgresStore
}

// New builds a Runner using the optimizer's default search bounds. store
// may be nil, in which case divergences are logged but not persisted.
func New(store *db.PostgresStore) *Runner {
	return &Runner{
		XMin:  optimize.DefaultMin,
		XMax:  optimize.DefaultMax,
		Delta: optimize.DefaultDelta,
		store: store,
	}
}

// Compare runs both searches against legs and returns the comparison.
func (r *Runner) Compare(legs []swapmath.PoolLeg) Report {
	f := func(x *uint256.Int) *big.Int {
		profit, _ := swapmath.CycleProfit(x, legs)
		return profit
	}

	optX := optimize.Maximize(r.XMin, r.XMax, r.Delta, f)
	optProfit := f(optX)

	gridX, gridProfit := gridSearch(r.XMin, r.XMax, GridSamples, f)

	return Report{
		OptimizerX:      optX,
		OptimizerProfit: optProfit,
		GridX:           gridX,
		GridProfit:      gridProfit,
		Delta:           new(big.Int).Sub(gridProfit, optProfit),
	}
}

// Run performs Compare and, if the grid search beat the optimizer, logs and
// (if a store is configured) persists the divergence as a non-fatal
// observation; unlike reconcile.StateDivergence this never halts the
// pipeline, it only flags the optimizer's search quality for review.
func (r *Runner) Run(ctx context.Context, legs []swapmath.PoolLeg) Report {
	report := r.Compare(legs)
	if !report.Diverges() {
		return report
	}

	log.Printf("[Shadow] optimizer divergence: optimizer_profit=%s grid_profit=%s delta=%s",
		report.OptimizerProfit, report.GridProfit, report.Delta)

	if r.store != nil {
		detail := "grid search found a better optimum than the bisection optimizer"
		if err := r.store.SaveShadowReport(ctx, report.OptimizerProfit.String(), report.GridProfit.String(), detail); err != nil {
			log.Printf("[Shadow] failed to persist divergence report: %v", err)
		}
	}
	return report
}

// gridSearch evaluates f at GridSamples evenly-spaced points in [xMin, xMax]
// and returns the best one found, brute force.
func gridSearch(xMin, xMax *uint256.Int, samples int, f optimize.ProfitFunc) (*uint256.Int, *big.Int) {
	if samples < 2 {
		samples = 2
	}
	width := new(uint256.Int).Sub(xMax, xMin)
	step := new(uint256.Int).Div(width, uint256.NewInt(uint64(samples-1)))

	bestX := new(uint256.Int).Set(xMin)
	bestProfit := f(bestX)

	x := new(uint256.Int).Set(xMin)
	for i := 1; i < samples; i++ {
		x = new(uint256.Int).Add(x, step)
		if x.Cmp(xMax) > 0 {
			x = new(uint256.Int).Set(xMax)
		}
		p := f(x)
		if p.Cmp(bestProfit) > 0 {
			bestProfit = p
			bestX = new(uint256.Int).Set(x)
		}
	}
	return bestX, bestProfit
}
