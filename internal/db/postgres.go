// Package db is the audit-trail persistence layer: an append-only record
// of emitted opportunities, composed bundles and state divergences, kept
// for post-hoc analysis. It never feeds back into the Pool Registry or
// Cycle Index, both of which are rebuilt from chain state on startup.
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/arbengine/pkg/models"
)

// PostgresStore wraps a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect opens the connection pool and verifies it with a ping.
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	log.Println("[DB] connected to audit-trail store")
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema applies internal/db/schema.sql, idempotently.
func (s *PostgresStore) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/db/schema.sql")
	if err != nil {
		return fmt.Errorf("db: read schema: %w", err)
	}
	if _, err := s.pool.Exec(context.Background(), string(schemaBytes)); err != nil {
		return fmt.Errorf("db: apply schema: %w", err)
	}
	log.Println("[DB] audit-trail schema initialized")
	return nil
}

func cycleAssetsJSON(legs []models.CycleLeg) ([]byte, error) {
	type wire struct {
		AssetIn  string `json:"assetIn"`
		AssetOut string `json:"assetOut"`
		IsStable bool   `json:"isStable"`
	}
	out := make([]wire, len(legs))
	for i, leg := range legs {
		out[i] = wire{AssetIn: leg.AssetIn.String(), AssetOut: leg.AssetOut.String(), IsStable: leg.IsStable}
	}
	return json.Marshal(out)
}

// SaveOpportunity records one ranked cycle. Returns the generated row id so
// the caller can link a later bundle record to it.
func (s *PostgresStore) SaveOpportunity(ctx context.Context, cyc models.NetPositiveCycle) (int64, error) {
	assetsJSON, err := cycleAssetsJSON(cyc.CycleAssets)
	if err != nil {
		return 0, fmt.Errorf("db: encode cycle assets: %w", err)
	}

	const sql = `
		INSERT INTO opportunities (profit, optimal_in, hop_count, cycle_assets)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err = s.pool.QueryRow(ctx, sql, cyc.Profit.String(), cyc.OptimalIn.ToBig().String(), len(cyc.CycleAssets), assetsJSON).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db: insert opportunity: %w", err)
	}
	return id, nil
}

// BundleOutcome is the row shape persisted for a single bundle
// composition/simulation attempt.
type BundleOutcome struct {
	ID             string
	OpportunityID  int64
	SwapScriptArgv string
	DryRun         bool
	Outcome        string
	Detail         string
}

// SaveBundle records the result of a single bundle composition/simulation.
func (s *PostgresStore) SaveBundle(ctx context.Context, b BundleOutcome) error {
	const sql = `
		INSERT INTO bundles (id, opportunity_id, swap_script_argv, dry_run, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, sql, b.ID, b.OpportunityID, b.SwapScriptArgv, b.DryRun, b.Outcome, b.Detail)
	if err != nil {
		return fmt.Errorf("db: insert bundle: %w", err)
	}
	return nil
}

// SaveDivergence records a StateDivergence for operator post-mortems.
func (s *PostgresStore) SaveDivergence(ctx context.Context, pool models.PoolIdentity, op, detail string) error {
	const sql = `
		INSERT INTO state_divergences (pool_from, pool_to, is_stable, op, detail)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, sql, pool.From.String(), pool.To.String(), pool.IsStable, op, detail)
	if err != nil {
		return fmt.Errorf("db: insert state divergence: %w", err)
	}
	return nil
}

// RecentOpportunity is the read-side projection used by the dashboard API.
type RecentOpportunity struct {
	ID         int64  `json:"id"`
	ObservedAt string `json:"observedAt"`
	Profit     string `json:"profit"`
	OptimalIn  string `json:"optimalIn"`
	HopCount   int    `json:"hopCount"`
}

// GetRecentOpportunities returns the most recently recorded opportunities,
// newest first, capped at limit. A limit outside 1..500 falls back to 50.
func (s *PostgresStore) GetRecentOpportunities(ctx context.Context, limit int) ([]RecentOpportunity, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	const sql = `
		SELECT id, observed_at, profit, optimal_in, hop_count
		FROM opportunities
		ORDER BY observed_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("db: query recent opportunities: %w", err)
	}
	defer rows.Close()

	var out []RecentOpportunity
	for rows.Next() {
		var r RecentOpportunity
		var observedAt time.Time
		if err := rows.Scan(&r.ID, &observedAt, &r.Profit, &r.OptimalIn, &r.HopCount); err != nil {
			return nil, fmt.Errorf("db: scan recent opportunity: %w", err)
		}
		r.ObservedAt = observedAt.Format(time.RFC3339)
		out = append(out, r)
	}
	if out == nil {
		out = []RecentOpportunity{}
	}
	return out, nil
}

// SaveShadowReport records a shadow-optimizer divergence: the grid search
// found a better profit than the production bisection optimizer.
func (s *PostgresStore) SaveShadowReport(ctx context.Context, optimizerProfit, gridProfit, detail string) error {
	const sql = `
		INSERT INTO shadow_reports (optimizer_profit, grid_profit, detail)
		VALUES ($1, $2, $3)
	`
	_, err := s.pool.Exec(ctx, sql, optimizerProfit, gridProfit, detail)
	if err != nil {
		return fmt.Errorf("db: insert shadow report: %w", err)
	}
	return nil
}
