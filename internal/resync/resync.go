// Package resync periodically re-queries the bootstrap RPC collaborator for
// every registered pool's authoritative reserves and corrects local drift.
// Unlike the reconciler's StateDivergence, a resync mismatch is not fatal:
// it is the expected, if infrequent, case of a missed or malformed log
// frame, and is logged as a warning once corrected.
package resync

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"

	"github.com/rawblock/arbengine/internal/chainrpc"
	"github.com/rawblock/arbengine/internal/registry"
	"github.com/rawblock/arbengine/pkg/models"
)

// Resync periodically re-bootstraps the registry's reserves from chain
// state via chainrpc, correcting any drift that built up since the last
// run (a missed event, a dropped connection on the log stream, etc).
type Resync struct {
	client   *chainrpc.Client
	reg      *registry.Registry
	interval time.Duration

	runCount    atomic.Int64
	driftCount  atomic.Int64
	lastRunUnix atomic.Int64
	isRunning   atomic.Bool
}

// New builds a Resync loop against the given bootstrap client and
// registry, firing every interval.
func New(client *chainrpc.Client, reg *registry.Registry, interval time.Duration) *Resync {
	return &Resync{client: client, reg: reg, interval: interval}
}

// Progress is the resync loop's state, for operator visibility. No API
// route serves it.
type Progress struct {
	RunCount    int64 `json:"runCount"`
	DriftCount  int64 `json:"driftTotal"`
	LastRunUnix int64 `json:"lastRunUnix"`
}

func (r *Resync) Progress() Progress {
	return Progress{
		RunCount:    r.runCount.Load(),
		DriftCount:  r.driftCount.Load(),
		LastRunUnix: r.lastRunUnix.Load(),
	}
}

// Run fires Once on every tick of interval until ctx is cancelled.
func (r *Resync) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Resync] stopping")
			return
		case <-ticker.C:
			if err := r.Once(ctx); err != nil {
				log.Printf("[Resync] run failed: %v", err)
			}
		}
	}
}

// Once performs a single resync pass: snapshot current reserves, re-query
// chain state, and log any pool whose reserves moved. Safe to call
// concurrently with Run (e.g. from the API's manual-resync endpoint): a
// call that arrives while another pass is in progress logs, skips the pass
// and returns nil.
func (r *Resync) Once(ctx context.Context) error {
	if !r.isRunning.CompareAndSwap(false, true) {
		log.Println("[Resync] pass already in progress, skipping")
		return nil
	}
	defer r.isRunning.Store(false)

	before := snapshot(r.reg)

	if err := r.client.BootstrapReserves(ctx, r.reg); err != nil {
		return err
	}

	after := snapshot(r.reg)
	drifted := 0
	for ident, pre := range before {
		post, ok := after[ident]
		if !ok {
			continue
		}
		if pre.Reserve0.Cmp(post.Reserve0) != 0 || pre.Reserve1.Cmp(post.Reserve1) != 0 {
			drifted++
			log.Printf("[Resync] drift corrected for %+v: reserve0 %s→%s reserve1 %s→%s",
				ident, pre.Reserve0, post.Reserve0, pre.Reserve1, post.Reserve1)
		}
	}

	r.runCount.Add(1)
	r.driftCount.Add(int64(drifted))
	r.lastRunUnix.Store(time.Now().Unix())
	log.Printf("[Resync] pass complete: %d pools checked, %d drifted", len(after), drifted)
	return nil
}

type reserveSnapshot struct {
	Reserve0 *uint256.Int
	Reserve1 *uint256.Int
}

func snapshot(reg *registry.Registry) map[models.PoolIdentity]reserveSnapshot {
	out := make(map[models.PoolIdentity]reserveSnapshot)
	for _, pair := range reg.Iter() {
		p, ok := reg.Get(pair.Index)
		if !ok {
			continue
		}
		out[pair.Pool] = reserveSnapshot{
			Reserve0: new(uint256.Int).Set(p.Reserve0),
			Reserve1: new(uint256.Int).Set(p.Reserve1),
		}
	}
	return out
}
