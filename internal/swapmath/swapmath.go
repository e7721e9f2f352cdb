// Package swapmath implements the pure constant-product swap formula and
// the cycle-profit function the optimizer searches over. Nothing in this
// package mutates a pool or performs I/O.
package swapmath

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/rawblock/arbengine/pkg/models"
)

// scaleFactor is applied symmetrically to numerator and denominator before
// the final division, preserving precision on small trades. It cancels out
// algebraically and only matters for intermediate rounding.
var scaleFactor = uint256.NewInt(1_000_000_000_000)

// AmountOut computes the single-hop output for input aIn into a pool with
// reserves (reserveIn, reserveOut) and a fee rate expressed as feeRate /
// feeDenominator. Returns zero if aIn, reserveIn or reserveOut is zero, or
// if the scaled denominator is zero.
func AmountOut(aIn, reserveIn, reserveOut *uint256.Int, feeRate, feeDenominator uint64) *uint256.Int {
	if aIn.IsZero() || reserveIn.IsZero() || reserveOut.IsZero() {
		return uint256.NewInt(0)
	}
	if feeDenominator == 0 {
		feeDenominator = models.DefaultFeeDenominator
	}

	denom := uint256.NewInt(feeDenominator)
	fee := uint256.NewInt(feeRate)

	// amountAfterFee = aIn - (aIn * feeRate) / feeDenominator
	feePortion, overflow := new(uint256.Int).MulOverflow(aIn, fee)
	if overflow {
		feePortion = saturatingMul(aIn, fee)
	}
	feePortion = new(uint256.Int).Div(feePortion, denom)
	amountAfterFee := new(uint256.Int).Sub(aIn, feePortion)

	// Scale numerator and denominator symmetrically before dividing.
	scaledAmount := saturatingMul(amountAfterFee, scaleFactor)
	numerator := saturatingMul(scaledAmount, reserveOut)
	scaledReserveIn := saturatingMul(reserveIn, scaleFactor)
	denominator := new(uint256.Int).Add(scaledReserveIn, scaledAmount)

	if denominator.IsZero() {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Div(numerator, denominator)
}

// saturatingMul multiplies two uint256s, clamping to the maximum
// representable value on overflow instead of wrapping, matching the
// saturating-arithmetic rule for reserve/amount math (signed/unsigned
// conversions saturate; only the bundle boundary ever truncates).
func saturatingMul(a, b *uint256.Int) *uint256.Int {
	result, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return result
}

// PoolLeg is the minimal per-hop view swapmath needs: which endpoint is
// "in" depends on the held asset at that point in the cycle, so callers
// orient reserves before calling CycleProfit.
type PoolLeg struct {
	ReserveIn      *uint256.Int
	ReserveOut     *uint256.Int
	FeeRate        uint64
	FeeDenominator uint64
}

// CycleProfit runs an input amount x through every leg of a cycle in order,
// orienting each leg's reserves to the currently-held asset, and returns the
// signed profit (held_amount_final - x) together with the full amounts
// sequence (length = len(legs)+1). Profit is the exact difference computed
// as a big.Int, so it never wraps; no saturation is applied.
func CycleProfit(x *uint256.Int, legs []PoolLeg) (*big.Int, []*uint256.Int) {
	amounts := make([]*uint256.Int, 0, len(legs)+1)
	amounts = append(amounts, x)

	held := x
	for _, leg := range legs {
		held = AmountOut(held, leg.ReserveIn, leg.ReserveOut, leg.FeeRate, leg.FeeDenominator)
		amounts = append(amounts, held)
	}

	profit := new(big.Int).Sub(held.ToBig(), x.ToBig())
	return profit, amounts
}
