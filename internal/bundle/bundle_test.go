package bundle

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"

	"github.com/rawblock/arbengine/internal/wallet"
	"github.com/rawblock/arbengine/pkg/models"
)

func asset(b byte) models.AssetID {
	var id models.AssetID
	id[31] = b
	return id
}

func TestComposeBuildsPoolPathAndDeadline(t *testing.T) {
	cyc := models.NetPositiveCycle{
		Profit:    nil,
		OptimalIn: uint256.NewInt(1_000_000),
		CycleAssets: []models.CycleLeg{
			{AssetIn: asset(1), AssetOut: asset(2), IsStable: false},
			{AssetIn: asset(2), AssetOut: asset(1), IsStable: true},
		},
	}
	recipient := models.Identity{Kind: models.IdentityAddress, Bits: asset(9)}
	selection := wallet.Selection{
		Inputs: []wallet.Coin{{ID: [32]byte{1}, Asset: asset(1), Amount: 1_500_000}},
		Change: wallet.ChangeOutput{Asset: asset(1), Amount: uint256.NewInt(500_000), To: recipient},
	}

	const deadline = 1_234_567
	b := Compose(cyc, deadline, recipient, selection)

	if b.ID == "" {
		t.Fatal("expected a generated bundle id")
	}
	if b.AssetIn != asset(1) {
		t.Fatalf("expected asset-in to be the first leg's input, got %s", b.AssetIn)
	}
	if len(b.Pools) != 2 {
		t.Fatalf("expected 2 pools in path, got %d", len(b.Pools))
	}
	if b.Pools[1].IsStable != true {
		t.Fatal("expected second leg to carry its IsStable flag through")
	}
	if b.Recipient != recipient {
		t.Fatal("expected the recipient to be carried through from Compose's argument")
	}
	if len(b.Inputs) != 1 || !b.Change.Amount.Eq(uint256.NewInt(500_000)) {
		t.Fatal("expected the wallet selection's inputs and change to be carried onto the bundle")
	}
	if b.Deadline != deadline {
		t.Fatalf("expected the caller's block-height deadline %d, got %d", deadline, b.Deadline)
	}
}

func TestAmountOutMinTracksRankedProfit(t *testing.T) {
	got := amountOutMin(big.NewInt(10_000))
	if got.Cmp(uint256.NewInt(10_000)) != 0 {
		t.Fatalf("expected the profit to become the output floor, got %s", got)
	}

	if !amountOutMin(nil).IsZero() {
		t.Fatal("expected a nil profit to floor at zero")
	}
	if !amountOutMin(big.NewInt(-5)).IsZero() {
		t.Fatal("expected a negative profit to floor at zero, not wrap")
	}
}

func TestArgvOrdersFieldsPerSpec(t *testing.T) {
	recipient := models.Identity{Kind: models.IdentityAddress, Bits: asset(9)}
	b := Bundle{
		AmountIn:     uint256.NewInt(5),
		AssetIn:      asset(1),
		AmountOutMin: uint256.NewInt(4),
		Recipient:    recipient,
		Deadline:     123,
		Pools: []models.PoolIdentity{
			{From: asset(1), To: asset(2), IsStable: false},
		},
	}
	argv := b.Argv()
	// amount_in, asset_in, amount_out_min, pool triple (3), recipient, deadline
	if len(argv) != 3+3+2 {
		t.Fatalf("expected 8 argv entries, got %d: %v", len(argv), argv)
	}
	if argv[0] != "5" || argv[2] != "4" {
		t.Fatalf("expected amount_in/amount_out_min up front, got %v", argv)
	}
	if argv[len(argv)-2] != recipient.String() {
		t.Fatalf("expected recipient second-to-last, got %v", argv)
	}
	if argv[len(argv)-1] != "123" {
		t.Fatalf("expected deadline last, got %v", argv)
	}
}

func TestParseSimResultsSkipsMalformedLines(t *testing.T) {
	lines := []string{"1000,0xabc", "garbage", "", "2000,0xdef"}
	results := parseSimResults(lines)
	if len(results) != 2 {
		t.Fatalf("expected 2 parsed results, got %d", len(results))
	}
	if results[0].Amount != "1000" || results[0].AssetID != "0xabc" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
}
