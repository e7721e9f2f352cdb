// Package reconcile applies Swap/Mint/Burn events to pool reserves in
// place, keeping the registry's view of on-chain reserves consistent with
// the event stream. All arithmetic is checked: under/overflow indicates the
// local model has diverged from the chain and is surfaced as a fatal
// StateDivergence error, never auto-healed or guessed at.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/rawblock/arbengine/internal/registry"
	"github.com/rawblock/arbengine/pkg/models"
)

// ErrUnknownPool is returned (never wrapped as fatal) when an event
// references a pool identity the registry does not track. The pipeline
// coordinator treats this as an expected, silent drop; the registry is
// intentionally a strict subset of the AMM's full pool set.
var ErrUnknownPool = errors.New("reconcile: unknown pool")

// StateDivergence indicates reserve arithmetic would underflow or overflow:
// the local model has diverged from chain state. Operators should
// re-bootstrap; the reconciler does not attempt to recover automatically.
type StateDivergence struct {
	Pool models.PoolIdentity
	Op   string
	Err  error
}

func (e *StateDivergence) Error() string {
	return fmt.Sprintf("reconcile: state divergence applying %s to pool %+v: %v", e.Op, e.Pool, e.Err)
}

func (e *StateDivergence) Unwrap() error { return e.Err }

// Apply applies a single event to the pool it references. Returns
// ErrUnknownPool if the pool isn't registered (silent-drop case for the
// caller), or a *StateDivergence if checked arithmetic would wrap.
func Apply(reg *registry.Registry, ev models.Event) error {
	idx, ok := reg.LookupByIdentity(ev.PoolID())
	if !ok {
		return ErrUnknownPool
	}

	switch e := ev.(type) {
	case models.SwapEvent:
		return reg.Mutate(idx, func(p *models.Pool) error {
			r0, err := addSub(p.Reserve0, e.Asset0In, e.Asset0Out)
			if err != nil {
				return &StateDivergence{Pool: ev.PoolID(), Op: "swap.reserve0", Err: err}
			}
			r1, err := addSub(p.Reserve1, e.Asset1In, e.Asset1Out)
			if err != nil {
				return &StateDivergence{Pool: ev.PoolID(), Op: "swap.reserve1", Err: err}
			}
			p.Reserve0, p.Reserve1 = r0, r1
			return nil
		})

	case models.MintEvent:
		return reg.Mutate(idx, func(p *models.Pool) error {
			r0, overflow := new(uint256.Int).AddOverflow(p.Reserve0, uint256.NewInt(e.Asset0In))
			if overflow {
				return &StateDivergence{Pool: ev.PoolID(), Op: "mint.reserve0", Err: errOverflow}
			}
			r1, overflow := new(uint256.Int).AddOverflow(p.Reserve1, uint256.NewInt(e.Asset1In))
			if overflow {
				return &StateDivergence{Pool: ev.PoolID(), Op: "mint.reserve1", Err: errOverflow}
			}
			p.Reserve0, p.Reserve1 = r0, r1
			return nil
		})

	case models.BurnEvent:
		return reg.Mutate(idx, func(p *models.Pool) error {
			r0, underflow := new(uint256.Int).SubOverflow(p.Reserve0, uint256.NewInt(e.Asset0Out))
			if underflow {
				return &StateDivergence{Pool: ev.PoolID(), Op: "burn.reserve0", Err: errUnderflow}
			}
			r1, underflow := new(uint256.Int).SubOverflow(p.Reserve1, uint256.NewInt(e.Asset1Out))
			if underflow {
				return &StateDivergence{Pool: ev.PoolID(), Op: "burn.reserve1", Err: errUnderflow}
			}
			p.Reserve0, p.Reserve1 = r0, r1
			return nil
		})

	default:
		return fmt.Errorf("reconcile: unrecognized event type %T", ev)
	}
}

var (
	errOverflow  = errors.New("reserve addition overflowed 256 bits")
	errUnderflow = errors.New("reserve subtraction underflowed below zero")
)

// addSub computes reserve + in - out with two checked operations, matching
// the Swap formula: r ← r + a_in − a_out.
func addSub(reserve *uint256.Int, in, out uint64) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(reserve, uint256.NewInt(in))
	if overflow {
		return nil, errOverflow
	}
	diff, underflow := new(uint256.Int).SubOverflow(sum, uint256.NewInt(out))
	if underflow {
		return nil, errUnderflow
	}
	return diff, nil
}
