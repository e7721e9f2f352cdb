// Package alerting is the structured-alert emission path for the pipeline:
// state divergences and newly-composed bundles are broadcast to connected
// dashboards and, optionally, to registered webhook endpoints (Slack,
// Discord, PagerDuty-compatible receivers), with delivery gated on a
// per-endpoint minimum severity.
package alerting

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/rawblock/arbengine/internal/bundle"
	"github.com/rawblock/arbengine/internal/reconcile"
)

// Alert is a structured notification: either a state divergence (severity
// "critical", since it means local reserves have drifted from chain state)
// or a bundle outcome (severity "info" for a dry run, "high" for a live
// submission).
type Alert struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Severity    string    `json:"severity"`
	AlertType   string    `json:"alertType"` // state_divergence/bundle_composed
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Pool        string    `json:"pool,omitempty"`
	BundleID    string    `json:"bundleId,omitempty"`
}

// WebhookEndpoint is a registered webhook receiver.
type WebhookEndpoint struct {
	Name        string
	URL         string
	MinSeverity string
}

var severityRank = map[string]int{"info": 0, "medium": 1, "high": 2, "critical": 3}

// Manager handles alert emission, history and webhook delivery.
type Manager struct {
	mu          sync.RWMutex
	webhooks    []WebhookEndpoint
	recent      []Alert
	maxHistory  int
	httpClient  *http.Client
	broadcastFn func(Alert)
}

// NewManager builds a Manager that broadcasts via broadcastFn (typically
// api.Hub.Broadcast, wrapped to marshal the alert) in addition to keeping
// in-memory history.
func NewManager(broadcastFn func(Alert)) *Manager {
	return &Manager{
		maxHistory:  1000,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		broadcastFn: broadcastFn,
	}
}

// RegisterWebhook adds a webhook receiver; alerts below minSeverity are not
// sent to it.
func (m *Manager) RegisterWebhook(name, url, minSeverity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhooks = append(m.webhooks, WebhookEndpoint{Name: name, URL: url, MinSeverity: minSeverity})
	log.Printf("[Alerting] registered webhook %s → %s (min: %s)", name, url, minSeverity)
}

// EmitDivergence raises a critical alert for a reconciler StateDivergence.
func (m *Manager) EmitDivergence(div *reconcile.StateDivergence) {
	m.emit(Alert{
		Severity:    "critical",
		AlertType:   "state_divergence",
		Title:       "Reserve state divergence",
		Description: div.Error(),
		Pool:        fmt.Sprintf("%+v", div.Pool),
	})
}

// EmitBundle raises an alert for a composed bundle; severity reflects
// whether it was a dry run or a live submission.
func (m *Manager) EmitBundle(b bundle.Bundle, dryRun bool, profit string) {
	severity := "high"
	if dryRun {
		severity = "info"
	}
	m.emit(Alert{
		Severity:    severity,
		AlertType:   "bundle_composed",
		Title:       "Arbitrage bundle composed",
		Description: fmt.Sprintf("profit=%s amountIn=%s hops=%d dryRun=%v", profit, b.AmountIn, len(b.Pools), dryRun),
		BundleID:    b.ID,
	})
}

func (m *Manager) emit(alert Alert) {
	alert.Timestamp = time.Now()
	if alert.ID == "" {
		alert.ID = fmt.Sprintf("%s-%d", alert.AlertType, alert.Timestamp.UnixNano())
	}

	m.mu.Lock()
	m.recent = append(m.recent, alert)
	if len(m.recent) > m.maxHistory {
		m.recent = m.recent[len(m.recent)-m.maxHistory:]
	}
	webhooks := make([]WebhookEndpoint, len(m.webhooks))
	copy(webhooks, m.webhooks)
	m.mu.Unlock()

	if m.broadcastFn != nil {
		m.broadcastFn(alert)
	}

	for _, wh := range webhooks {
		if severityRank[alert.Severity] < severityRank[wh.MinSeverity] {
			continue
		}
		go m.deliver(wh, alert)
	}
}

func (m *Manager) deliver(wh WebhookEndpoint, alert Alert) {
	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("[Alerting] failed to marshal alert for webhook %s: %v", wh.Name, err)
		return
	}
	resp, err := m.httpClient.Post(wh.URL, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("[Alerting] webhook %s delivery failed: %v", wh.Name, err)
		return
	}
	defer resp.Body.Close()
}

// Recent returns a copy of the most recent alerts, newest last.
func (m *Manager) Recent() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Alert, len(m.recent))
	copy(out, m.recent)
	return out
}
