// Package registry holds the fixed pool table: identity, assets, fee rate
// and current reserves. It is built once at startup from a static list;
// afterwards only the reconciler and the bootstrap/resync reserve refresh
// mutate it.
package registry

import (
	"fmt"
	"sync"

	"github.com/rawblock/arbengine/pkg/models"
)

// Registry is a dense index → Pool table plus the bidirectional mapping
// between PoolIdentity and index. Pool indices are assigned in
// registry-insertion order and are never reassigned.
type Registry struct {
	mu      sync.RWMutex
	pools   []*models.Pool
	byIdent map[models.PoolIdentity]int
}

// New builds an empty registry. Use Register to populate it from the
// static pool table before starting the pipeline.
func New() *Registry {
	return &Registry{
		byIdent: make(map[models.PoolIdentity]int),
	}
}

// Register appends a pool to the table, assigning it the next dense index.
// Returns an error if a pool with the same identity is already registered;
// the static table must not declare duplicate (from, to, is_stable) tuples.
func (r *Registry) Register(p *models.Pool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ident := p.Identity()
	if _, exists := r.byIdent[ident]; exists {
		return 0, fmt.Errorf("registry: duplicate pool identity %+v", ident)
	}
	index := len(r.pools)
	r.pools = append(r.pools, p)
	r.byIdent[ident] = index
	return index, nil
}

// LookupByIdentity returns the dense index for a pool identity, or false if
// the identity is not tracked by this registry (the registry is a strict
// subset of the AMM's full pool set).
func (r *Registry) LookupByIdentity(id models.PoolIdentity) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byIdent[id]
	return idx, ok
}

// Get returns the pool at index for reading. Safe to call concurrently with
// other readers; callers must not mutate the returned value, use Mutate.
func (r *Registry) Get(index int) (*models.Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.pools) {
		return nil, false
	}
	return r.pools[index], true
}

// Mutate runs fn with exclusive access to the pool at index. Only the
// reconciler (and the bootstrap/resync paths) should call this.
func (r *Registry) Mutate(index int, fn func(*models.Pool) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.pools) {
		return fmt.Errorf("registry: index %d out of range", index)
	}
	return fn(r.pools[index])
}

// Len returns the number of registered pools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// Iter returns a snapshot slice of every pool's IndexedPair, in insertion
// (index) order. Used once by the cycle index at startup, and by the
// resync loop on every re-bootstrap tick.
func (r *Registry) Iter() []models.IndexedPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.IndexedPair, len(r.pools))
	for i, p := range r.pools {
		out[i] = models.IndexedPair{Index: i, Pool: p.Identity()}
	}
	return out
}
