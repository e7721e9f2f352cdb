// Package models holds the shared data types that flow between the pool
// registry, the cycle index, the reconciler and the ranker: assets, pools,
// events and the ranker's output.
package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AssetID is an opaque 32-byte on-chain asset identifier. It is compared by
// value, so it can be used directly as a map key inside PoolIdentity.
type AssetID [32]byte

// ParseAssetID decodes a "0x"-prefixed hex string into an AssetID. It accepts
// both the full 64-hex-char form and shorter strings, left-padding with
// zeroes the way on-chain asset IDs are conventionally rendered.
func ParseAssetID(s string) (AssetID, error) {
	var id AssetID
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("models: invalid asset id %q: %w", s, err)
	}
	if len(raw) > len(id) {
		return id, fmt.Errorf("models: asset id %q exceeds 32 bytes", s)
	}
	copy(id[len(id)-len(raw):], raw)
	return id, nil
}

// String renders the asset id as a "0x"-prefixed hex string.
func (a AssetID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IdentityKind distinguishes the two variants of the tagged-union recipient
// the event source encodes: a plain wallet address or a contract id.
type IdentityKind int

const (
	IdentityAddress IdentityKind = iota
	IdentityContract
)

// Identity is the recipient of a Mint/Burn/Swap, mirroring the AMM's
// {Address|ContractId:{bits:"0x..."}} tagged union.
type Identity struct {
	Kind IdentityKind
	Bits AssetID
}

func (i Identity) String() string {
	switch i.Kind {
	case IdentityContract:
		return "contract:" + i.Bits.String()
	default:
		return "address:" + i.Bits.String()
	}
}
