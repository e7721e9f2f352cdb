// Package eventcodec decodes the log-stream transport's wire envelope into
// the domain's Swap/Mint/Burn events. The envelope carries a hex
// discriminant (`rb`) identifying which event fired and a `decoded` field
// holding the AMM's own JSON encoding of the event body: a pool-id tuple
// plus a tagged-union recipient, neither of which map onto Go structs
// without custom unmarshaling.
package eventcodec

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/rawblock/arbengine/pkg/models"
)

// Discriminant values for the rb field, matching the AMM contract's event
// ids. These are deployment constants, not protocol-level invariants.
const (
	SwapEventID uint64 = 0x2a6a8f6f3a5a9f8c
	MintEventID uint64 = 0x8b5b1f6f0e5a9f8c
	BurnEventID uint64 = 0x1c6a8f6f3a5a9f1d
)

// Envelope is the log-stream transport's outer record: chain metadata plus
// the two fields the codec needs, `rb` (discriminant) and `decoded` (the
// event body as a raw JSON string).
type Envelope struct {
	TransactionHash string `json:"transaction_hash"`
	Rb              string `json:"rb"`
	Decoded         string `json:"decoded"`
}

// Decode parses one envelope into a models.Event. Returns an error if rb
// doesn't match a known discriminant or the decoded body fails to parse;
// the caller (the log-stream subscriber) logs and drops such records rather
// than treating them as fatal.
func Decode(raw []byte) (models.Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("eventcodec: envelope: %w", err)
	}

	rb, err := parseRb(env.Rb)
	if err != nil {
		return nil, fmt.Errorf("eventcodec: rb: %w", err)
	}

	switch rb {
	case SwapEventID:
		var body swapBody
		if err := json.Unmarshal([]byte(env.Decoded), &body); err != nil {
			return nil, fmt.Errorf("eventcodec: swap body: %w", err)
		}
		return models.SwapEvent{
			Tx:        env.TransactionHash,
			Pool:      body.PoolID.identity(),
			Recipient: body.Recipient.identity(),
			Asset0In:  body.Asset0In,
			Asset1In:  body.Asset1In,
			Asset0Out: body.Asset0Out,
			Asset1Out: body.Asset1Out,
		}, nil

	case MintEventID:
		var body mintBurnBody
		if err := json.Unmarshal([]byte(env.Decoded), &body); err != nil {
			return nil, fmt.Errorf("eventcodec: mint body: %w", err)
		}
		return models.MintEvent{
			Tx:        env.TransactionHash,
			Pool:      body.PoolID.identity(),
			Recipient: body.Recipient.identity(),
			Liquidity: body.Liquidity.Amount,
			Asset0In:  body.Asset0In,
			Asset1In:  body.Asset1In,
		}, nil

	case BurnEventID:
		var body mintBurnBody
		if err := json.Unmarshal([]byte(env.Decoded), &body); err != nil {
			return nil, fmt.Errorf("eventcodec: burn body: %w", err)
		}
		return models.BurnEvent{
			Tx:        env.TransactionHash,
			Pool:      body.PoolID.identity(),
			Recipient: body.Recipient.identity(),
			Liquidity: body.Liquidity.Amount,
			Asset0Out: body.Asset0Out,
			Asset1Out: body.Asset1Out,
		}, nil

	default:
		return nil, fmt.Errorf("eventcodec: unrecognized discriminant 0x%x", rb)
	}
}

func parseRb(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	return strconv.ParseUint(s, 16, 64)
}

// poolIDTuple mirrors the AMM's pool_id encoding: a JSON array of
// [{"bits":"0x.."}, {"bits":"0x.."}, bool], not an object, so it needs its
// own UnmarshalJSON rather than field tags.
type poolIDTuple struct {
	From     models.AssetID
	To       models.AssetID
	IsStable bool
}

func (t *poolIDTuple) UnmarshalJSON(data []byte) error {
	var raw [3]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("pool_id: expected a 3-element array: %w", err)
	}

	var from, to assetIDWrapper
	if err := json.Unmarshal(raw[0], &from); err != nil {
		return fmt.Errorf("pool_id[0]: %w", err)
	}
	if err := json.Unmarshal(raw[1], &to); err != nil {
		return fmt.Errorf("pool_id[1]: %w", err)
	}
	var isStable bool
	if err := json.Unmarshal(raw[2], &isStable); err != nil {
		return fmt.Errorf("pool_id[2]: %w", err)
	}

	t.From, t.To, t.IsStable = from.id, to.id, isStable
	return nil
}

func (t poolIDTuple) identity() models.PoolIdentity {
	return models.PoolIdentity{From: t.From, To: t.To, IsStable: t.IsStable}
}

// assetIDWrapper decodes the AMM's {"bits":"0x.."} asset encoding.
type assetIDWrapper struct {
	id models.AssetID
}

func (w *assetIDWrapper) UnmarshalJSON(data []byte) error {
	var wire struct {
		Bits string `json:"bits"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	id, err := models.ParseAssetID(wire.Bits)
	if err != nil {
		return err
	}
	w.id = id
	return nil
}

// recipientTagged decodes the AMM's {"Address":{"bits":".."}} /
// {"ContractId":{"bits":".."}} tagged union.
type recipientTagged struct {
	Address    *assetIDWrapper `json:"Address"`
	ContractID *assetIDWrapper `json:"ContractId"`
}

func (r recipientTagged) identity() models.Identity {
	if r.ContractID != nil {
		return models.Identity{Kind: models.IdentityContract, Bits: r.ContractID.id}
	}
	if r.Address != nil {
		return models.Identity{Kind: models.IdentityAddress, Bits: r.Address.id}
	}
	return models.Identity{}
}

type assetAmount struct {
	ID     assetIDWrapper `json:"id"`
	Amount uint64         `json:"amount"`
}

type swapBody struct {
	PoolID    poolIDTuple     `json:"pool_id"`
	Recipient recipientTagged `json:"recipient"`
	Asset0In  uint64          `json:"asset_0_in"`
	Asset1In  uint64          `json:"asset_1_in"`
	Asset0Out uint64          `json:"asset_0_out"`
	Asset1Out uint64          `json:"asset_1_out"`
}

type mintBurnBody struct {
	PoolID    poolIDTuple     `json:"pool_id"`
	Recipient recipientTagged `json:"recipient"`
	Liquidity assetAmount     `json:"liquidity"`
	Asset0In  uint64          `json:"asset_0_in"`
	Asset1In  uint64          `json:"asset_1_in"`
	Asset0Out uint64          `json:"asset_0_out"`
	Asset1Out uint64          `json:"asset_1_out"`
}
