package models

// IndexedPair is a pool as seen by the cycle index: its dense registry
// index paired with the on-chain identity that index resolves to.
type IndexedPair struct {
	Index int
	Pool  PoolIdentity
}

// Cycle is an ordered, base-to-base sequence of pools. Length is always
// ≥ 2; all indices within a cycle are distinct; the output asset of pairs[i]
// equals an endpoint of pairs[i+1].
type Cycle struct {
	Pairs []IndexedPair
}

// Len returns the number of hops in the cycle.
func (c Cycle) Len() int { return len(c.Pairs) }
