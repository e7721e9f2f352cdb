package swapmath

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestAmountOutZeroInputs(t *testing.T) {
	r1000 := u(1000)
	if got := AmountOut(u(0), r1000, r1000, 50, 0); !got.IsZero() {
		t.Fatalf("AmountOut(0, ...) = %s, want 0", got)
	}
	if got := AmountOut(u(100), u(0), r1000, 50, 0); !got.IsZero() {
		t.Fatalf("AmountOut(_, 0, _, _) = %s, want 0", got)
	}
	if got := AmountOut(u(100), r1000, u(0), 50, 0); !got.IsZero() {
		t.Fatalf("AmountOut(_, _, 0, _) = %s, want 0", got)
	}
}

func TestAmountOutMonotoneInReserveOut(t *testing.T) {
	aIn := u(1000)
	reserveIn := u(1_000_000)
	lo := AmountOut(aIn, reserveIn, u(1_000_000), 50, 0)
	hi := AmountOut(aIn, reserveIn, u(2_000_000), 50, 0)
	if hi.Cmp(lo) < 0 {
		t.Fatalf("expected AmountOut non-decreasing in reserveOut: lo=%s hi=%s", lo, hi)
	}
}

func TestAmountOutMonotoneInReserveIn(t *testing.T) {
	aIn := u(1000)
	reserveOut := u(1_000_000)
	lo := AmountOut(aIn, u(1_000_000), reserveOut, 50, 0)
	hi := AmountOut(aIn, u(2_000_000), reserveOut, 50, 0)
	if hi.Cmp(lo) > 0 {
		t.Fatalf("expected AmountOut non-increasing in reserveIn: lo(small reserveIn)=%s hi(large reserveIn)=%s", lo, hi)
	}
}

func TestCycleProfitZeroInput(t *testing.T) {
	legs := []PoolLeg{
		{ReserveIn: u(1000), ReserveOut: u(1000), FeeRate: 50},
		{ReserveIn: u(1000), ReserveOut: u(1000), FeeRate: 50},
	}
	profit, amounts := CycleProfit(u(0), legs)
	if profit.Sign() != 0 {
		t.Fatalf("CycleProfit(0, ...) profit = %s, want 0", profit)
	}
	if len(amounts) != len(legs)+1 {
		t.Fatalf("expected %d amounts, got %d", len(legs)+1, len(amounts))
	}
}

func TestCycleProfitSelfSandwichLoss(t *testing.T) {
	// A 2-hop cycle through equal-reserve, equal-fee pools always loses to
	// fees: profit must be strictly negative for any positive input.
	legs := []PoolLeg{
		{ReserveIn: u(1_000_000), ReserveOut: u(1_000_000), FeeRate: 50},
		{ReserveIn: u(1_000_000), ReserveOut: u(1_000_000), FeeRate: 50},
	}
	profit, _ := CycleProfit(u(1_000_000), legs)
	if profit.Sign() >= 0 {
		t.Fatalf("expected strictly negative self-sandwich profit, got %s", profit)
	}
}

func TestCycleProfitLengthMatchesLegsPlusOne(t *testing.T) {
	legs := []PoolLeg{
		{ReserveIn: u(1000), ReserveOut: u(2000), FeeRate: 30},
	}
	_, amounts := CycleProfit(u(100), legs)
	if len(amounts) != 2 {
		t.Fatalf("expected 2 amounts for a 1-leg cycle, got %d", len(amounts))
	}
	if amounts[0].Uint64() != 100 {
		t.Fatalf("expected amounts[0] == input, got %s", amounts[0])
	}
}

func TestCycleProfitSignIsBigInt(t *testing.T) {
	legs := []PoolLeg{
		{ReserveIn: u(1000), ReserveOut: u(1020), FeeRate: 5},
	}
	profit, _ := CycleProfit(u(500), legs)
	if profit.Cmp(big.NewInt(0)) <= 0 {
		t.Fatalf("expected a favorable single hop to be profitable, got %s", profit)
	}
}
