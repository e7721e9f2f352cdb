// Package wallet models the wallet/signer the bundle composer draws
// spendable inputs from and issues change outputs back to. The wallet's
// private key is supplied at startup (env var or file) and never leaves
// the process; signing a real transaction happens in the external
// swap-script collaborator.
//
// Coin selection works over a plain in-memory coin set: querying the chain
// for spendable coins is an external collaborator's job, the same way
// reserve bootstrap is; selection given that set is what this package owns.
package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/holiman/uint256"

	"github.com/rawblock/arbengine/pkg/models"
)

// Coin is one spendable UTXO-like input: an opaque coin id, the asset it
// holds and its amount.
type Coin struct {
	ID     [32]byte
	Asset  models.AssetID
	Amount uint64
}

// ChangeOutput is the wallet-owned output receiving whatever a coin
// selection overshoots the requested amount by.
type ChangeOutput struct {
	Asset  models.AssetID
	Amount *uint256.Int
	To     models.Identity
}

// Selection is the result of drawing spendable inputs for one asset/amount
// pair: the chosen coins plus the change output paying the remainder back
// to the wallet.
type Selection struct {
	Inputs []Coin
	Change ChangeOutput
}

// ErrInsufficientFunds is returned when the wallet's known coin set can't
// cover the requested amount for the given asset. The pipeline coordinator
// treats this the same way as a failed bundle simulation: logged, tick
// continues, never fatal.
var ErrInsufficientFunds = errors.New("wallet: insufficient spendable coins")

// Wallet holds the signer's derived address and its known spendable coin
// set.
type Wallet struct {
	Address models.Identity

	mu    sync.Mutex
	coins []Coin
}

// New derives a Wallet's address from a hex-encoded secp256k1 private key
// and an initial coin set. Pass a nil or empty coin set and populate it later via
// SetCoins once the wallet-coin-provider collaborator has been queried.
func New(privateKeyHex string, coins []Coin) (*Wallet, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid private key: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("wallet: empty private key")
	}

	_, pub := btcec.PrivKeyFromBytes(raw)
	digest := sha256.Sum256(pub.SerializeCompressed())

	return &Wallet{
		Address: models.Identity{Kind: models.IdentityAddress, Bits: digest},
		coins:   append([]Coin(nil), coins...),
	}, nil
}

// SetCoins replaces the wallet's known spendable coin set, e.g. after a
// refresh from the wallet-coin-provider collaborator.
func (w *Wallet) SetCoins(coins []Coin) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.coins = append([]Coin(nil), coins...)
}

// Coins returns a copy of the wallet's currently-known spendable coins.
func (w *Wallet) Coins() []Coin {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Coin, len(w.coins))
	copy(out, w.coins)
	return out
}

// SelectCoins greedily accumulates coins of the given asset, in the order
// they're held, until amount is covered, then returns the selection plus a
// change output for any overshoot. This is a simple greedy selector, not a
// fee-optimal one: the composer needs inputs covering the amount and the
// change accounted for, not UTXO-selection optimality.
func (w *Wallet) SelectCoins(asset models.AssetID, amount *uint256.Int) (Selection, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var selected []Coin
	total := uint256.NewInt(0)
	for _, c := range w.coins {
		if c.Asset != asset {
			continue
		}
		selected = append(selected, c)
		total = new(uint256.Int).Add(total, uint256.NewInt(c.Amount))
		if total.Cmp(amount) >= 0 {
			break
		}
	}

	if total.Cmp(amount) < 0 {
		return Selection{}, fmt.Errorf("%w: asset %s needs %s, have %s", ErrInsufficientFunds, asset, amount, total)
	}

	change := new(uint256.Int).Sub(total, amount)
	return Selection{
		Inputs: selected,
		Change: ChangeOutput{Asset: asset, Amount: change, To: w.Address},
	}, nil
}
