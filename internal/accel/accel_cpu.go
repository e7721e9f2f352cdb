//go:build !cuda

// Package accel offers an optional GPU path for batch-evaluating a cycle's
// profit function across many sampled input amounts at once, for use when
// the ranker's cycle index is large enough that per-cycle optimizer calls
// dominate a tick. The CPU fallback below is the default and the only
// variant exercised by tests; the CUDA variant lives in accel_cuda.go
// behind the `cuda` build tag.
package accel

import (
	"log"
	"math/big"
	"sync"

	"github.com/holiman/uint256"

	"github.com/rawblock/arbengine/internal/swapmath"
)

var warnOnce sync.Once

// BatchEvaluate evaluates CycleProfit(x, legs) for every x in xs against a
// single cycle's legs, returning the parallel profit and amounts-sequence
// results. On a build without the `cuda` tag this is a plain CPU loop.
func BatchEvaluate(xs []*uint256.Int, legs []swapmath.PoolLeg) ([]*big.Int, [][]*uint256.Int) {
	warnOnce.Do(func() {
		log.Println("[Accel] compiled without the 'cuda' build tag; batch evaluation runs on CPU")
	})

	profits := make([]*big.Int, len(xs))
	amounts := make([][]*uint256.Int, len(xs))
	for i, x := range xs {
		profits[i], amounts[i] = swapmath.CycleProfit(x, legs)
	}
	return profits, amounts
}

// Available reports whether hardware acceleration is compiled in. The CPU
// build always reports false.
func Available() bool {
	return false
}
