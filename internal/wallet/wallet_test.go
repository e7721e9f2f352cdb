package wallet

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/rawblock/arbengine/pkg/models"
)

func asset(b byte) models.AssetID {
	var id models.AssetID
	id[31] = b
	return id
}

// testKey is an arbitrary 32-byte secp256k1 private key, valid only for
// exercising address derivation in tests.
const testKey = "0101010101010101010101010101010101010101010101010101010101010101"

func TestNewDerivesStableAddress(t *testing.T) {
	w1, err := New(testKey, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w2, err := New(testKey, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w1.Address != w2.Address {
		t.Fatal("expected the same private key to derive the same address")
	}
}

func TestNewRejectsEmptyKey(t *testing.T) {
	if _, err := New("", nil); err == nil {
		t.Fatal("expected an error for an empty private key")
	}
}

func TestNewRejectsInvalidHex(t *testing.T) {
	if _, err := New("not-hex", nil); err == nil {
		t.Fatal("expected an error for non-hex input")
	}
}

func TestSelectCoinsAccumulatesUntilCovered(t *testing.T) {
	w, err := New(testKey, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a := asset(1)
	w.SetCoins([]Coin{
		{ID: [32]byte{1}, Asset: a, Amount: 100},
		{ID: [32]byte{2}, Asset: a, Amount: 100},
		{ID: [32]byte{3}, Asset: a, Amount: 100},
	})

	sel, err := w.SelectCoins(a, uint256.NewInt(150))
	if err != nil {
		t.Fatalf("SelectCoins: %v", err)
	}
	if len(sel.Inputs) != 2 {
		t.Fatalf("expected 2 coins selected to cover 150, got %d", len(sel.Inputs))
	}
	if !sel.Change.Amount.Eq(uint256.NewInt(50)) {
		t.Fatalf("expected change of 50, got %s", sel.Change.Amount)
	}
	if sel.Change.To != w.Address {
		t.Fatal("expected change output to pay back to the wallet's own address")
	}
}

func TestSelectCoinsIgnoresOtherAssets(t *testing.T) {
	w, err := New(testKey, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a, b := asset(1), asset(2)
	w.SetCoins([]Coin{
		{ID: [32]byte{1}, Asset: b, Amount: 1_000_000},
		{ID: [32]byte{2}, Asset: a, Amount: 10},
	})

	if _, err := w.SelectCoins(a, uint256.NewInt(100)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestSelectCoinsExactMatchLeavesZeroChange(t *testing.T) {
	w, err := New(testKey, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a := asset(1)
	w.SetCoins([]Coin{{ID: [32]byte{1}, Asset: a, Amount: 500}})

	sel, err := w.SelectCoins(a, uint256.NewInt(500))
	if err != nil {
		t.Fatalf("SelectCoins: %v", err)
	}
	if !sel.Change.Amount.IsZero() {
		t.Fatalf("expected zero change on exact match, got %s", sel.Change.Amount)
	}
}
