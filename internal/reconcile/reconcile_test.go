package reconcile

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/rawblock/arbengine/internal/registry"
	"github.com/rawblock/arbengine/pkg/models"
)

func asset(b byte) models.AssetID {
	var id models.AssetID
	id[31] = b
	return id
}

func newTestRegistry(t *testing.T, r0, r1 uint64) (*registry.Registry, models.PoolIdentity) {
	t.Helper()
	reg := registry.New()
	pool := models.NewPool("A/B", asset(1), asset(2), 50)
	pool.Reserve0 = uint256.NewInt(r0)
	pool.Reserve1 = uint256.NewInt(r1)
	if _, err := reg.Register(pool); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg, pool.Identity()
}

func TestSwapThenInverseRestoresReserves(t *testing.T) {
	reg, id := newTestRegistry(t, 1000, 2000)

	swap := models.SwapEvent{Pool: id, Asset0In: 100, Asset1Out: 150}
	if err := Apply(reg, swap); err != nil {
		t.Fatalf("Apply(swap): %v", err)
	}
	inverse := models.SwapEvent{Pool: id, Asset1In: 150, Asset0Out: 100}
	if err := Apply(reg, inverse); err != nil {
		t.Fatalf("Apply(inverse): %v", err)
	}

	idx, _ := reg.LookupByIdentity(id)
	p, _ := reg.Get(idx)
	if p.Reserve0.Uint64() != 1000 || p.Reserve1.Uint64() != 2000 {
		t.Fatalf("reserves not restored: r0=%s r1=%s", p.Reserve0, p.Reserve1)
	}
}

func TestMintThenMatchingBurnRestoresReserves(t *testing.T) {
	reg, id := newTestRegistry(t, 1000, 2000)

	mint := models.MintEvent{Pool: id, Liquidity: 10, Asset0In: 500, Asset1In: 600}
	if err := Apply(reg, mint); err != nil {
		t.Fatalf("Apply(mint): %v", err)
	}
	burn := models.BurnEvent{Pool: id, Liquidity: 10, Asset0Out: 500, Asset1Out: 600}
	if err := Apply(reg, burn); err != nil {
		t.Fatalf("Apply(burn): %v", err)
	}

	idx, _ := reg.LookupByIdentity(id)
	p, _ := reg.Get(idx)
	if p.Reserve0.Uint64() != 1000 || p.Reserve1.Uint64() != 2000 {
		t.Fatalf("reserves not restored: r0=%s r1=%s", p.Reserve0, p.Reserve1)
	}
}

func TestZeroAmountEventIsNoOp(t *testing.T) {
	reg, id := newTestRegistry(t, 1000, 2000)

	swap := models.SwapEvent{Pool: id}
	if err := Apply(reg, swap); err != nil {
		t.Fatalf("Apply(zero swap): %v", err)
	}

	idx, _ := reg.LookupByIdentity(id)
	p, _ := reg.Get(idx)
	if p.Reserve0.Uint64() != 1000 || p.Reserve1.Uint64() != 2000 {
		t.Fatalf("zero-amount event mutated reserves: r0=%s r1=%s", p.Reserve0, p.Reserve1)
	}
}

func TestUnderflowSurfacesStateDivergence(t *testing.T) {
	reg, id := newTestRegistry(t, 100, 200)

	burn := models.BurnEvent{Pool: id, Asset0Out: 1000} // r0 < a0_out
	err := Apply(reg, burn)
	var divergence *StateDivergence
	if !errors.As(err, &divergence) {
		t.Fatalf("expected *StateDivergence, got %v", err)
	}
}

func TestUnknownPoolIsSilentlyDropped(t *testing.T) {
	reg, _ := newTestRegistry(t, 1000, 2000)

	unknown := models.SwapEvent{Pool: models.PoolIdentity{From: asset(9), To: asset(10)}, Asset0In: 5}
	err := Apply(reg, unknown)
	if !errors.Is(err, ErrUnknownPool) {
		t.Fatalf("expected ErrUnknownPool, got %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("registry mutated by unknown-pool event")
	}
}
