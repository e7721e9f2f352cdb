package alerting

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/rawblock/arbengine/internal/bundle"
	"github.com/rawblock/arbengine/internal/reconcile"
	"github.com/rawblock/arbengine/internal/wallet"
	"github.com/rawblock/arbengine/pkg/models"
)

func TestEmitDivergenceIsCriticalAndBroadcast(t *testing.T) {
	var got Alert
	m := NewManager(func(a Alert) { got = a })

	div := &reconcile.StateDivergence{
		Pool: models.PoolIdentity{},
		Op:   "swap.reserve0",
		Err:  errDummy{},
	}
	m.EmitDivergence(div)

	if got.Severity != "critical" {
		t.Fatalf("expected critical severity, got %q", got.Severity)
	}
	if got.AlertType != "state_divergence" {
		t.Fatalf("unexpected alert type %q", got.AlertType)
	}
	if len(m.Recent()) != 1 {
		t.Fatalf("expected 1 alert in history, got %d", len(m.Recent()))
	}
}

func TestEmitBundleSeverityReflectsDryRun(t *testing.T) {
	var alerts []Alert
	m := NewManager(func(a Alert) { alerts = append(alerts, a) })

	recipient := models.Identity{Kind: models.IdentityAddress, Bits: models.AssetID{9}}
	b := bundle.Compose(models.NetPositiveCycle{
		OptimalIn: uint256.NewInt(1),
		CycleAssets: []models.CycleLeg{
			{AssetIn: models.AssetID{1}, AssetOut: models.AssetID{2}},
		},
	}, 100, recipient, wallet.Selection{Change: wallet.ChangeOutput{Amount: uint256.NewInt(0)}})

	m.EmitBundle(b, true, "5")
	m.EmitBundle(b, false, "5")

	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Severity != "info" {
		t.Fatalf("expected dry run to be info severity, got %q", alerts[0].Severity)
	}
	if alerts[1].Severity != "high" {
		t.Fatalf("expected live submission to be high severity, got %q", alerts[1].Severity)
	}
}

type errDummy struct{}

func (errDummy) Error() string { return "dummy" }
