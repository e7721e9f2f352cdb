// Package chainrpc is the bootstrap RPC collaborator: a thin wrapper over a
// generic JSON-RPC client that issues one batched call for the current
// on-chain reserves of every registered pool. Everything else about the
// chain (the log stream, the swap-script submission path) is a separate
// collaborator.
package chainrpc

import (
	"context"
	"fmt"
	"log"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	"github.com/rawblock/arbengine/internal/registry"
	"github.com/rawblock/arbengine/pkg/models"
)

// Config holds the bootstrap RPC endpoint and the AMM contract identifier
// every pool query is scoped to.
type Config struct {
	URL        string
	ContractID string
}

// Client wraps a generic JSON-RPC connection. It serves the bootstrap call,
// the resync loop's periodic reserve re-query, and the block-height query
// the pipeline coordinator makes each time it composes a bundle.
type Client struct {
	rpc    *rpc.Client
	Config Config
}

// NewClient dials the configured RPC endpoint.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	log.Printf("[ChainRPC] Connecting to %s...", cfg.URL)
	raw, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("chainrpc: dial %s: %w", cfg.URL, err)
	}
	log.Printf("[ChainRPC] Connected.")
	return &Client{rpc: raw, Config: cfg}, nil
}

// Shutdown closes the underlying RPC connection.
func (c *Client) Shutdown() {
	c.rpc.Close()
}

// BlockHeight returns the chain's current block height. The bundle
// composer anchors its deadline to this plus the configured horizon.
func (c *Client) BlockHeight(ctx context.Context) (uint64, error) {
	var height uint64
	if err := c.rpc.CallContext(ctx, &height, "chain_blockHeight"); err != nil {
		return 0, fmt.Errorf("chainrpc: block height: %w", err)
	}
	return height, nil
}

// poolState is the wire shape of a single pool's bootstrap result: the fee
// tuple plus optional reserve metadata (nil pointers mean the pool is not
// deployed on chain).
type poolState struct {
	FeeRate        uint64  `json:"feeRate"`
	FeeDenominator uint64  `json:"feeDenominator"`
	Reserve0       *uint64 `json:"reserve0"`
	Reserve1       *uint64 `json:"reserve1"`
}

// idempotencyKey derives a stable request identifier for a pool query from
// its identity, used only for log correlation across retries.
func idempotencyKey(id models.PoolIdentity) chainhash.Hash {
	buf := make([]byte, 0, 65)
	buf = append(buf, id.From[:]...)
	buf = append(buf, id.To[:]...)
	if id.IsStable {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return chainhash.HashH(buf)
}

// BootstrapReserves issues one batched RPC call covering every pool in reg
// and writes the returned reserves back into the registry. Pools the chain
// reports as not-yet-deployed (nil reserve pointers) are left zeroed; the
// registry already initializes pools that way.
func (c *Client) BootstrapReserves(ctx context.Context, reg *registry.Registry) error {
	pairs := reg.Iter()
	if len(pairs) == 0 {
		return nil
	}

	elems := make([]rpc.BatchElem, len(pairs))
	results := make([]poolState, len(pairs))
	for i, pair := range pairs {
		elems[i] = rpc.BatchElem{
			Method: "amm_getPoolState",
			Args:   []interface{}{c.Config.ContractID, pair.Pool.From.String(), pair.Pool.To.String(), pair.Pool.IsStable},
			Result: &results[i],
		}
		log.Printf("[ChainRPC] queuing bootstrap query %s key=%s", pair.Pool.From, idempotencyKey(pair.Pool))
	}

	if err := c.rpc.BatchCallContext(ctx, elems); err != nil {
		return fmt.Errorf("chainrpc: batch call: %w", err)
	}

	for i, pair := range pairs {
		if elems[i].Error != nil {
			return fmt.Errorf("chainrpc: pool %+v: %w", pair.Pool, elems[i].Error)
		}
		state := results[i]
		if state.Reserve0 == nil || state.Reserve1 == nil {
			log.Printf("[ChainRPC] pool %+v not yet deployed on chain, leaving reserves at zero", pair.Pool)
			continue
		}

		err := reg.Mutate(pair.Index, func(p *models.Pool) error {
			p.Reserve0 = uint256.NewInt(*state.Reserve0)
			p.Reserve1 = uint256.NewInt(*state.Reserve1)
			if state.FeeDenominator != 0 {
				p.FeeDenominator = state.FeeDenominator
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("chainrpc: writing bootstrap result for %+v: %w", pair.Pool, err)
		}
	}

	log.Printf("[ChainRPC] bootstrap complete: %d pools queried", len(pairs))
	return nil
}
