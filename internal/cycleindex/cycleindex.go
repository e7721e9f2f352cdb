// Package cycleindex builds, once at startup, the list of all base→base
// trade cycles reachable through a fixed set of pools via a bounded
// depth-first search. The index is immutable after construction.
package cycleindex

import (
	"github.com/rawblock/arbengine/pkg/models"
)

// DefaultMaxHops bounds how many pools a single cycle may traverse.
const DefaultMaxHops = 5

// Build enumerates every cycle that starts and ends at base, using at most
// maxHops pools, over the given set of indexed pairs. Cycles are returned
// in discovery order. An empty pairs slice yields an empty cycle list.
func Build(pairs []models.IndexedPair, base models.AssetID, maxHops int) []models.Cycle {
	var cycles []models.Cycle
	visited := make(map[int]bool, maxHops)
	recurse(pairs, base, base, maxHops, nil, visited, &cycles)
	return cycles
}

// recurse extends the current path by every unvisited pair whose held-asset
// transition is legal, recording a cycle whenever the held asset returns to
// target through at least two pools, and otherwise recursing while hops
// remain. A single visited map is threaded through and restored on
// backtrack; no per-call copying of path or visited state.
func recurse(
	pairs []models.IndexedPair,
	held models.AssetID,
	target models.AssetID,
	remainingHops int,
	path []models.IndexedPair,
	visited map[int]bool,
	out *[]models.Cycle,
) {
	for _, pair := range pairs {
		if visited[pair.Index] {
			continue
		}

		var next models.AssetID
		switch held {
		case pair.Pool.From:
			next = pair.Pool.To
		case pair.Pool.To:
			next = pair.Pool.From
		default:
			continue
		}

		visited[pair.Index] = true
		extended := append(path, pair)

		if next == target && len(extended) >= 2 {
			cycleCopy := make([]models.IndexedPair, len(extended))
			copy(cycleCopy, extended)
			*out = append(*out, models.Cycle{Pairs: cycleCopy})
		} else if remainingHops > 1 {
			recurse(pairs, next, target, remainingHops-1, extended, visited, out)
		}

		visited[pair.Index] = false
	}
}
