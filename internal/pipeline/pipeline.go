// Package pipeline is the coordinator that wires every other component
// together: it bootstraps the registry and cycle index, spawns the
// log-stream subscriber, and runs the serial
// consume, reconcile, rank, compose loop. No parallelism happens within a
// tick; reconciliation, ranking and bundle composition form one critical
// section per event, so the registry needs no locking beyond the channel
// boundary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/holiman/uint256"

	"github.com/rawblock/arbengine/internal/alerting"
	"github.com/rawblock/arbengine/internal/api"
	"github.com/rawblock/arbengine/internal/bundle"
	"github.com/rawblock/arbengine/internal/chainrpc"
	"github.com/rawblock/arbengine/internal/cycleindex"
	"github.com/rawblock/arbengine/internal/db"
	"github.com/rawblock/arbengine/internal/logstream"
	"github.com/rawblock/arbengine/internal/metrics"
	"github.com/rawblock/arbengine/internal/rank"
	"github.com/rawblock/arbengine/internal/reconcile"
	"github.com/rawblock/arbengine/internal/registry"
	"github.com/rawblock/arbengine/internal/shadow"
	"github.com/rawblock/arbengine/internal/wallet"
	"github.com/rawblock/arbengine/pkg/models"
)

// ShadowSampleInterval is how often (in ticks that produce a ranked
// opportunity) the coordinator re-checks the production optimizer against
// the shadow runner's brute-force grid search. Running it every tick would
// roughly double the per-cycle evaluation cost for a continuous check that
// only needs to catch slow optimizer drift, not momentary noise.
const ShadowSampleInterval = 20

// Deps bundles every collaborator the coordinator drives. Executor, Chain,
// Store, Alerts, APIHandler, Shadow and Wallet may be nil; Subscriber may
// not: a nil Subscriber is a programmer error (Run panics-by-nil-deref on
// purpose, a pipeline with no event source cannot do anything). A nil
// Executor, Chain, Store, Alerts, APIHandler, Shadow or Wallet simply
// disables that collaborator's side effect (a nil Executor records the
// bundle as skipped, a nil Wallet composes bundles with a
// zero-value recipient and no inputs/change, a nil Chain a zero deadline;
// the engine keeps running in degraded mode the same way it does without
// the Postgres audit store).
type Deps struct {
	Registry       *registry.Registry
	Cycles         []models.Cycle
	BaseAsset      models.AssetID
	Ranker         *rank.Ranker
	Subscriber     *logstream.Subscriber
	Executor       *bundle.Executor
	DryRun         bool
	Chain          *chainrpc.Client
	DeadlineBlocks uint64
	Store          *db.PostgresStore
	Alerts         *alerting.Manager
	APIHandler     *api.APIHandler
	Shadow         *shadow.Runner
	Wallet         *wallet.Wallet
}

// Coordinator drives the pipeline: bootstrap, subscribe, then loop
// reconcile → rank → compose for as long as events keep arriving.
type Coordinator struct {
	deps Deps

	tickCount      int64
	netPositiveHit int64
	prevTopKKeys   []string
}

// New builds a Coordinator from its wired collaborators. Bootstrap must be
// called (directly or via chainrpc) before Run, or the ranker will evaluate
// every cycle against zeroed reserves.
func New(deps Deps) *Coordinator {
	return &Coordinator{deps: deps}
}

// Bootstrap builds the cycle index from the registry's pools and, when
// client is non-nil, populates the registry's reserves via a batched RPC
// call. Returns an error the caller should treat as a bootstrap failure
// (process exit code 1).
func Bootstrap(ctx context.Context, reg *registry.Registry, base models.AssetID, maxHops int, client *chainrpc.Client) ([]models.Cycle, error) {
	pairs := reg.Iter()
	cycles := cycleindex.Build(pairs, base, maxHops)
	log.Printf("[Pipeline] cycle index built: %d base→base cycles over %d pools (maxHops=%d)", len(cycles), len(pairs), maxHops)

	if client != nil {
		if err := client.BootstrapReserves(ctx, reg); err != nil {
			return nil, fmt.Errorf("pipeline: bootstrap reserves: %w", err)
		}
	}
	return cycles, nil
}

// Run subscribes to the log stream and processes events until ctx is
// cancelled or the subscriber's channel closes. It returns a non-nil error
// only for the one fatal case: a StateDivergence. Every other per-event
// failure is non-fatal: an unknown pool is dropped silently, decode errors
// (in the subscriber) and bundle-simulation failures are logged, and the
// loop continues.
func (c *Coordinator) Run(ctx context.Context) error {
	go c.deps.Subscriber.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[Pipeline] context cancelled, shutting down")
			return nil

		case ev, ok := <-c.deps.Subscriber.Events:
			if !ok {
				log.Println("[Pipeline] event source closed, shutting down")
				return nil
			}
			if err := c.tick(ctx, ev); err != nil {
				return err
			}
		}
	}
}

// tick reconciles a single event against the registry, then, unless the
// event was silently dropped, runs the ranker over the full cycle index
// and, if a net-positive cycle emerged, hands it to the bundle composer.
// This is the pipeline's entire critical section: one event in, at most one
// bundle out, fully serial.
func (c *Coordinator) tick(ctx context.Context, ev models.Event) error {
	c.tickCount++

	if err := reconcile.Apply(c.deps.Registry, ev); err != nil {
		return c.handleReconcileError(ctx, ev, err)
	}

	ranked := c.deps.Ranker.Rank(c.deps.BaseAsset, c.deps.Cycles)
	c.trackStability(ranked)

	best, hasBest := rank.Best(ranked)

	var bundlePtr *models.NetPositiveCycle
	if hasBest {
		c.netPositiveHit++
		bundlePtr = &best
		c.compose(ctx, best)
		c.maybeRunShadow(ctx, best)
	}

	if c.deps.APIHandler != nil {
		c.deps.APIHandler.PublishTick(ranked, bundlePtr)
	}
	return nil
}

// handleReconcileError classifies a reconcile.Apply error: UnknownPool is
// a silent, expected drop; StateDivergence is fatal and is both alerted
// and returned so the caller can exit 2.
func (c *Coordinator) handleReconcileError(ctx context.Context, ev models.Event, err error) error {
	if errors.Is(err, reconcile.ErrUnknownPool) {
		// Expected: the registry is intentionally a strict subset of the
		// AMM's full pool set. No log spam on every untracked pool event.
		return nil
	}

	var div *reconcile.StateDivergence
	if errors.As(err, &div) {
		log.Printf("[Pipeline] FATAL state divergence on tx %s: %v", ev.TxID(), div)
		if c.deps.Alerts != nil {
			c.deps.Alerts.EmitDivergence(div)
		}
		if c.deps.Store != nil {
			if serr := c.deps.Store.SaveDivergence(ctx, div.Pool, div.Op, div.Error()); serr != nil {
				log.Printf("[Pipeline] failed to persist state divergence: %v", serr)
			}
		}
		return div
	}

	log.Printf("[Pipeline] unrecognized reconcile error on tx %s: %v", ev.TxID(), err)
	return nil
}

// compose turns the tick's best cycle into a bundle, runs the swap-script
// executor's dry-run simulation, and persists/alerts on the outcome.
// A failed simulation is logged and the tick continues: it never advances
// to broadcast and never halts the pipeline. Insufficient wallet funds for
// AssetIn is treated the same way, logged, tick continues.
func (c *Coordinator) compose(ctx context.Context, best models.NetPositiveCycle) {
	var opportunityID int64
	if c.deps.Store != nil {
		id, err := c.deps.Store.SaveOpportunity(ctx, best)
		if err != nil {
			log.Printf("[Pipeline] failed to persist opportunity: %v", err)
		} else {
			opportunityID = id
		}
	}

	var assetIn models.AssetID
	if len(best.CycleAssets) > 0 {
		assetIn = best.CycleAssets[0].AssetIn
	}

	var recipient models.Identity
	selection := wallet.Selection{Change: wallet.ChangeOutput{Amount: uint256.NewInt(0)}}
	if c.deps.Wallet != nil {
		recipient = c.deps.Wallet.Address
		sel, err := c.deps.Wallet.SelectCoins(assetIn, best.OptimalIn)
		if err != nil {
			log.Printf("[Pipeline] wallet coin selection failed for bundle input %s: %v", assetIn, err)
			return
		}
		selection = sel
	}

	b := bundle.Compose(best, c.deadline(ctx), recipient, selection)

	outcome, detail := "success", ""
	if c.deps.Executor != nil {
		results, err := c.deps.Executor.Run(ctx, b)
		if err != nil {
			outcome, detail = "failed", err.Error()
			log.Printf("[Pipeline] bundle simulation failed for %s: %v", b.ID, err)
		} else {
			detail = fmt.Sprintf("%d swap-script results", len(results))
			log.Printf("[Pipeline] bundle %s simulated: profit=%s amountIn=%s hops=%d", b.ID, best.Profit, b.AmountIn, len(b.Pools))
		}
	} else {
		outcome, detail = "skipped", "no swap-script executor configured"
	}

	if c.deps.Store != nil {
		err := c.deps.Store.SaveBundle(ctx, db.BundleOutcome{
			ID:             b.ID,
			OpportunityID:  opportunityID,
			SwapScriptArgv: strings.Join(b.Argv(), " "),
			DryRun:         c.deps.DryRun,
			Outcome:        outcome,
			Detail:         detail,
		})
		if err != nil {
			log.Printf("[Pipeline] failed to persist bundle outcome: %v", err)
		}
	}

	if c.deps.Alerts != nil {
		c.deps.Alerts.EmitBundle(b, c.deps.DryRun, best.Profit.String())
	}
}

// deadline anchors the bundle's expiry to the chain's current block height
// plus the configured horizon. Without a chain client, or if the height
// query fails, the deadline is zero: the swap script treats that as
// expired, so a bundle composed blind never executes late against a moved
// market.
func (c *Coordinator) deadline(ctx context.Context) uint64 {
	if c.deps.Chain == nil {
		return 0
	}
	height, err := c.deps.Chain.BlockHeight(ctx)
	if err != nil {
		log.Printf("[Pipeline] block height query failed, composing with a zero deadline: %v", err)
		return 0
	}
	return height + c.deps.DeadlineBlocks
}

// maybeRunShadow periodically re-evaluates the best cycle's legs with the
// shadow runner's brute-force grid search, sampling rather than running on
// every net-positive tick since it roughly doubles per-cycle evaluation
// cost (see ShadowSampleInterval). The ranked NetPositiveCycle doesn't carry
// the originating models.Cycle's pool indices, so the matching cycle is
// re-found in the index by its asset-path key before BuildLegs can be
// called again.
func (c *Coordinator) maybeRunShadow(ctx context.Context, best models.NetPositiveCycle) {
	if c.deps.Shadow == nil || c.netPositiveHit%ShadowSampleInterval != 0 {
		return
	}

	wantKey := cycleKey(best)
	for _, cyc := range c.deps.Cycles {
		legs, assets, ok := c.deps.Ranker.BuildLegs(c.deps.BaseAsset, cyc)
		if !ok {
			continue
		}
		if cycleKey(models.NetPositiveCycle{CycleAssets: assets}) != wantKey {
			continue
		}
		c.deps.Shadow.Run(ctx, legs)
		return
	}
}

// trackStability computes the Jaccard overlap between this tick's top-K
// cycle set and the previous tick's, surfacing the ranker's
// integer-rounding-driven instability as a continuously-updated signal
// rather than something only a unit test would catch.
func (c *Coordinator) trackStability(ranked []models.NetPositiveCycle) {
	keys := make([]string, len(ranked))
	for i, r := range ranked {
		keys[i] = cycleKey(r)
	}
	if c.prevTopKKeys != nil {
		overlap := metrics.TopKOverlap(c.prevTopKKeys, keys)
		if overlap < 1.0 {
			log.Printf("[Pipeline] top-%d ranking overlap with previous tick: %.2f", len(keys), overlap)
		}
	}
	c.prevTopKKeys = keys
}

// cycleKey derives a stable identifier for a ranked cycle from its ordered
// asset path, used only to compare top-K membership across ticks.
func cycleKey(c models.NetPositiveCycle) string {
	var sb strings.Builder
	for _, leg := range c.CycleAssets {
		sb.WriteString(leg.AssetIn.String())
		sb.WriteByte('>')
		sb.WriteString(leg.AssetOut.String())
		sb.WriteByte('|')
	}
	return sb.String()
}
