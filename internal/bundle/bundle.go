// Package bundle turns a ranked NetPositiveCycle into a concrete swap-script
// invocation: the ordered pool path, the optimal input amount and a minimum
// acceptable output, with a caller-supplied block-height deadline.
// Submission itself is delegated
// to exec.go, which shells out to the external swap-script binary; this
// file only builds the argument list and decodes the cycle into a
// chain-identity path.
package bundle

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/rawblock/arbengine/internal/wallet"
	"github.com/rawblock/arbengine/pkg/models"
)

// DefaultDeadlineBlocks is the default block-height horizon added to the
// chain's current height when composing a bundle's deadline; a stalled
// submission should expire rather than linger indefinitely. Configuration
// overrides it via DEADLINE_BLOCKS.
const DefaultDeadlineBlocks = 10

// Bundle is one dry-run (or live) swap-script invocation built from a
// single ranked cycle. Inputs and Change carry the wallet's coin selection
// for AssetIn/AmountIn; they aren't part of the swap script's own argv
// (the script resolves its own inputs) but are recorded so the audit
// trail and dashboard can show what would fund the trade.
type Bundle struct {
	ID           string
	AmountIn     *uint256.Int
	AssetIn      models.AssetID
	AmountOutMin *uint256.Int
	Pools        []models.PoolIdentity
	Recipient    models.Identity
	Deadline     uint64
	Inputs       []wallet.Coin
	Change       wallet.ChangeOutput
}

// Compose builds a Bundle from a ranker cycle, a funding selection already
// drawn from the wallet for AssetIn/OptimalIn, and the recipient the swap
// script pays out to (normally the wallet's own address). deadline is the
// block height past which the swap script must refuse to execute; the
// caller anchors it to the chain's current height plus the configured
// horizon rather than to wall-clock time.
func Compose(cyc models.NetPositiveCycle, deadline uint64, recipient models.Identity, selection wallet.Selection) Bundle {
	pools := make([]models.PoolIdentity, len(cyc.CycleAssets))
	for i, leg := range cyc.CycleAssets {
		pools[i] = models.PoolIdentity{From: leg.AssetIn, To: leg.AssetOut, IsStable: leg.IsStable}
	}

	var assetIn models.AssetID
	if len(cyc.CycleAssets) > 0 {
		assetIn = cyc.CycleAssets[0].AssetIn
	}

	return Bundle{
		ID:           uuid.New().String(),
		AmountIn:     cyc.OptimalIn,
		AssetIn:      assetIn,
		AmountOutMin: amountOutMin(cyc.Profit),
		Pools:        pools,
		Recipient:    recipient,
		Deadline:     deadline,
		Inputs:       selection.Inputs,
		Change:       selection.Change,
	}
}

// amountOutMin converts the cycle's ranked profit into the swap script's
// minimum-output floor. The signed-to-unsigned crossing happens here, at
// the bundle boundary: a nil or non-positive profit floors at zero rather
// than wrapping.
func amountOutMin(profit *big.Int) *uint256.Int {
	if profit == nil || profit.Sign() <= 0 {
		return uint256.NewInt(0)
	}
	v, overflow := uint256.FromBig(profit)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return v
}

// Argv renders the bundle as the swap-script's positional CLI arguments:
// amount-in, asset-in, amount-out-min, the pool-id sequence (repeated
// from/to/stable triples), recipient, deadline.
func (b Bundle) Argv() []string {
	argv := []string{
		b.AmountIn.String(),
		b.AssetIn.String(),
		b.AmountOutMin.String(),
	}
	for _, p := range b.Pools {
		argv = append(argv, p.From.String(), p.To.String(), formatBool(p.IsStable))
	}
	argv = append(argv, b.Recipient.String(), formatUint64(b.Deadline))
	return argv
}

func formatUint64(v uint64) string {
	return uint256.NewInt(v).String()
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
