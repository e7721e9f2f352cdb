package cycleindex

import (
	"testing"

	"github.com/rawblock/arbengine/pkg/models"
)

func asset(b byte) models.AssetID {
	var id models.AssetID
	id[31] = b
	return id
}

func TestBuildEmptyPairs(t *testing.T) {
	base := asset(1)
	if cycles := Build(nil, base, DefaultMaxHops); len(cycles) != 0 {
		t.Fatalf("expected no cycles from an empty pool table, got %d", len(cycles))
	}
}

func TestBuildTwoPoolCycle(t *testing.T) {
	a, b := asset(1), asset(2)
	pairs := []models.IndexedPair{
		{Index: 0, Pool: models.PoolIdentity{From: a, To: b}},
		{Index: 1, Pool: models.PoolIdentity{From: b, To: a}},
	}

	// Both traversal orders through the two pools are distinct cycles.
	cycles := Build(pairs, a, DefaultMaxHops)
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles (one per traversal order), got %d: %+v", len(cycles), cycles)
	}
	for _, c := range cycles {
		if c.Len() != 2 {
			t.Fatalf("expected a 2-hop cycle, got %d hops", c.Len())
		}
		seen := map[int]bool{}
		for _, p := range c.Pairs {
			if seen[p.Index] {
				t.Fatalf("cycle reuses pool index %d", p.Index)
			}
			seen[p.Index] = true
		}
	}
}

func TestBuildRespectsMaxHops(t *testing.T) {
	// A 3-hop cycle a->b->c->a should not appear when maxHops=2.
	a, b, c := asset(1), asset(2), asset(3)
	pairs := []models.IndexedPair{
		{Index: 0, Pool: models.PoolIdentity{From: a, To: b}},
		{Index: 1, Pool: models.PoolIdentity{From: b, To: c}},
		{Index: 2, Pool: models.PoolIdentity{From: c, To: a}},
	}

	if cycles := Build(pairs, a, 2); len(cycles) != 0 {
		t.Fatalf("expected no cycles within 2 hops, got %d", len(cycles))
	}
	// Raising the bound admits the triangle in both directions.
	if cycles := Build(pairs, a, 3); len(cycles) != 2 {
		t.Fatalf("expected the triangle in both directions within 3 hops, got %d", len(cycles))
	}
}

func TestBuildSkipsUnrelatedPool(t *testing.T) {
	a, b, c, d := asset(1), asset(2), asset(3), asset(4)
	pairs := []models.IndexedPair{
		{Index: 0, Pool: models.PoolIdentity{From: a, To: b}},
		{Index: 1, Pool: models.PoolIdentity{From: b, To: a}},
		{Index: 2, Pool: models.PoolIdentity{From: c, To: d}}, // unrelated to base a
	}

	cycles := Build(pairs, a, DefaultMaxHops)
	if len(cycles) != 2 {
		t.Fatalf("expected only the two a/b cycles, got %d", len(cycles))
	}
	for _, c := range cycles {
		for _, p := range c.Pairs {
			if p.Index == 2 {
				t.Fatalf("cycle traverses the unrelated c/d pool: %+v", c)
			}
		}
	}
}
