package models

// Event is the tagged sum of pool-state mutations the log stream delivers:
// Swap, Mint or Burn. All amount fields are unsigned 64-bit; reserve
// arithmetic widens to 256-bit in the reconciler.
type Event interface {
	PoolID() PoolIdentity
	TxID() string
	isEvent()
}

// SwapEvent mirrors the AMM's Swap log: inputs/outputs on both legs of the
// pool, since a swap can (per the on-chain encoding) carry non-zero amounts
// on either side for multi-asset routing contracts.
type SwapEvent struct {
	Tx        string
	Pool      PoolIdentity
	Recipient Identity
	Asset0In  uint64
	Asset1In  uint64
	Asset0Out uint64
	Asset1Out uint64
}

func (e SwapEvent) PoolID() PoolIdentity { return e.Pool }
func (e SwapEvent) TxID() string         { return e.Tx }
func (SwapEvent) isEvent()               {}

// MintEvent mirrors the AMM's Mint (liquidity add) log.
type MintEvent struct {
	Tx        string
	Pool      PoolIdentity
	Recipient Identity
	Liquidity uint64
	Asset0In  uint64
	Asset1In  uint64
}

func (e MintEvent) PoolID() PoolIdentity { return e.Pool }
func (e MintEvent) TxID() string         { return e.Tx }
func (MintEvent) isEvent()               {}

// BurnEvent mirrors the AMM's Burn (liquidity remove) log.
type BurnEvent struct {
	Tx        string
	Pool      PoolIdentity
	Recipient Identity
	Liquidity uint64
	Asset0Out uint64
	Asset1Out uint64
}

func (e BurnEvent) PoolID() PoolIdentity { return e.Pool }
func (e BurnEvent) TxID() string         { return e.Tx }
func (BurnEvent) isEvent()               {}
