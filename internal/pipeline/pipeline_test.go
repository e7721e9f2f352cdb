package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/rawblock/arbengine/internal/cycleindex"
	"github.com/rawblock/arbengine/internal/logstream"
	"github.com/rawblock/arbengine/internal/rank"
	"github.com/rawblock/arbengine/internal/reconcile"
	"github.com/rawblock/arbengine/internal/registry"
	"github.com/rawblock/arbengine/pkg/models"
)

func asset(b byte) models.AssetID {
	var id models.AssetID
	id[31] = b
	return id
}

// buildTwoPoolRegistry registers A/B=(r0a,r1a) and A/B'=(r0b,r1b), two
// parallel pools between the same pair of assets: symmetric reserves yield
// no net-positive cycle, skewed reserves yield a real arbitrage
// opportunity.
func buildTwoPoolRegistry(t *testing.T, r0a, r1a, r0b, r1b uint64) (*registry.Registry, models.PoolIdentity, models.PoolIdentity) {
	t.Helper()
	reg := registry.New()

	poolA := models.NewPool("A/B-1", asset(1), asset(2), 50)
	poolA.Reserve0.SetUint64(r0a)
	poolA.Reserve1.SetUint64(r1a)
	if _, err := reg.Register(poolA); err != nil {
		t.Fatalf("register pool A: %v", err)
	}

	poolB := models.NewPool("A/B-2", asset(1), asset(2), 50)
	poolB.FeeRate = 5000 // distinct fee so (from,to,isStable) still differs if needed
	poolB.Reserve0.SetUint64(r0b)
	poolB.Reserve1.SetUint64(r1b)
	if _, err := reg.Register(poolB); err != nil {
		t.Fatalf("register pool B: %v", err)
	}

	return reg, poolA.Identity(), poolB.Identity()
}

// newCoordinator wires a Coordinator for tests. The optimizer's production
// defaults (x in [1e6, 1e22]) assume 18-decimal real-asset base units;
// these fixtures use pool reserves of a few thousand units, so tests
// narrow the ranker's search bounds to match that scale instead of
// pretending a 1000-reserve pool operates at wei-like magnitudes.
func newCoordinator(reg *registry.Registry, base models.AssetID) *Coordinator {
	cycles := cycleindex.Build(reg.Iter(), base, cycleindex.DefaultMaxHops)
	sub := logstream.NewSubscriber(logstream.Config{})
	rk := rank.New(reg)
	rk.XMin = uint256.NewInt(1)
	rk.XMax = uint256.NewInt(10_000)
	rk.Delta = uint256.NewInt(1)
	return New(Deps{
		Registry:   reg,
		Cycles:     cycles,
		BaseAsset:  base,
		Ranker:     rk,
		Subscriber: sub,
		DryRun:     true,
	})
}

// TestSymmetricPoolsYieldNoOpportunity: two pools between the same pair
// with identical reserves (their fees differ, 50 and 5000, so their
// identities differ) must never produce a net-positive cycle, since any
// round trip loses value to fees.
func TestSymmetricPoolsYieldNoOpportunity(t *testing.T) {
	reg, idA, _ := buildTwoPoolRegistry(t, 1000, 1000, 1000, 1000)
	c := newCoordinator(reg, asset(1))

	ev := models.SwapEvent{Pool: idA} // zero-amount event, just to trigger a tick
	if err := c.tick(context.Background(), ev); err != nil {
		t.Fatalf("tick: %v", err)
	}
	ranked := c.deps.Ranker.Rank(c.deps.BaseAsset, c.deps.Cycles)
	if len(ranked) != 0 {
		t.Fatalf("expected no net-positive cycle on symmetric reserves, got %d", len(ranked))
	}
}

// TestSkewedPoolsYieldOpportunity: when the second pool's reserves are
// skewed relative to the first, a tick must complete without error and the
// ranker must report a profitable round trip.
func TestSkewedPoolsYieldOpportunity(t *testing.T) {
	reg, idA, _ := buildTwoPoolRegistry(t, 1000, 1000, 1000, 5000)
	c := newCoordinator(reg, asset(1))

	ev := models.SwapEvent{Pool: idA}
	if err := c.tick(context.Background(), ev); err != nil {
		t.Fatalf("tick: %v", err)
	}
	ranked := c.deps.Ranker.Rank(c.deps.BaseAsset, c.deps.Cycles)
	if len(ranked) == 0 {
		t.Fatalf("expected a net-positive cycle on skewed reserves, got none")
	}
	if ranked[0].Profit.Sign() <= 0 {
		t.Fatalf("expected strictly positive profit, got %s", ranked[0].Profit)
	}
}

// TestUnknownPoolEventIsNotFatal: an event for a pool identity outside
// the registry must leave the registry unchanged and never be treated as a
// fatal error.
func TestUnknownPoolEventIsNotFatal(t *testing.T) {
	reg, _, _ := buildTwoPoolRegistry(t, 1000, 1000, 1000, 1000)
	c := newCoordinator(reg, asset(1))

	unknown := models.SwapEvent{Pool: models.PoolIdentity{From: asset(9), To: asset(10)}, Asset0In: 5}
	if err := c.tick(context.Background(), unknown); err != nil {
		t.Fatalf("unexpected fatal error on unknown-pool event: %v", err)
	}
}

// TestEmptyCycleListEmitsNothing: a registry with a single pool has no
// base-to-base cycle, so every tick's ranker output is empty regardless of
// the event.
func TestEmptyCycleListEmitsNothing(t *testing.T) {
	reg := registry.New()
	pool := models.NewPool("A/B", asset(1), asset(2), 50)
	pool.Reserve0.SetUint64(1000)
	pool.Reserve1.SetUint64(1000)
	if _, err := reg.Register(pool); err != nil {
		t.Fatalf("register: %v", err)
	}

	c := newCoordinator(reg, asset(1))
	if len(c.deps.Cycles) != 0 {
		t.Fatalf("expected empty cycle index for a single-pool registry, got %d", len(c.deps.Cycles))
	}

	ev := models.SwapEvent{Pool: pool.Identity(), Asset0In: 10}
	if err := c.tick(context.Background(), ev); err != nil {
		t.Fatalf("tick: %v", err)
	}
	ranked := c.deps.Ranker.Rank(c.deps.BaseAsset, c.deps.Cycles)
	if len(ranked) != 0 {
		t.Fatalf("expected no ranked cycles, got %d", len(ranked))
	}
}

// TestStateDivergencePropagatesAsFatal: a burn that underflows a pool's
// reserve must surface a *reconcile.StateDivergence from tick, not be
// swallowed.
func TestStateDivergencePropagatesAsFatal(t *testing.T) {
	reg, idA, _ := buildTwoPoolRegistry(t, 100, 200, 1000, 1000)
	c := newCoordinator(reg, asset(1))

	burn := models.BurnEvent{Pool: idA, Asset0Out: 10_000}
	err := c.tick(context.Background(), burn)

	var div *reconcile.StateDivergence
	if !errors.As(err, &div) {
		t.Fatalf("expected *reconcile.StateDivergence, got %v", err)
	}
}

// TestRunStopsOnContextCancellation verifies the coordinator's main loop
// exits cleanly (no error) when its context is cancelled: dropping the
// consumer terminates at the next suspension point rather than erroring
// out.
func TestRunStopsOnContextCancellation(t *testing.T) {
	reg, _, _ := buildTwoPoolRegistry(t, 1000, 1000, 1000, 1000)
	c := newCoordinator(reg, asset(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run after cancellation: %v", err)
	}
}
