package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"

	"github.com/rawblock/arbengine/internal/alerting"
	"github.com/rawblock/arbengine/internal/api"
	"github.com/rawblock/arbengine/internal/bundle"
	"github.com/rawblock/arbengine/internal/chainrpc"
	"github.com/rawblock/arbengine/internal/config"
	"github.com/rawblock/arbengine/internal/db"
	"github.com/rawblock/arbengine/internal/logstream"
	"github.com/rawblock/arbengine/internal/pipeline"
	"github.com/rawblock/arbengine/internal/rank"
	"github.com/rawblock/arbengine/internal/reconcile"
	"github.com/rawblock/arbengine/internal/registry"
	"github.com/rawblock/arbengine/internal/resync"
	"github.com/rawblock/arbengine/internal/shadow"
	"github.com/rawblock/arbengine/internal/wallet"
)

func main() {
	log.Println("Starting on-chain constant-product arbitrage engine...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: config: %v", err)
	}

	// ─── Persistence (audit trail only, never core state) ──────────────
	var dbConn *db.PostgresStore
	if cfg.DatabaseURL != "" {
		dbConn, err = db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: failed to connect to Postgres, continuing without an audit trail: %v", err)
		} else {
			defer dbConn.Close()
			if err := dbConn.InitSchema(); err != nil {
				log.Printf("Warning: DB schema init failed: %v", err)
			}
		}
	} else {
		log.Println("DATABASE_URL not set; running without an audit trail")
	}

	// ─── Pool Registry (component A) ────────────────────────────────────
	reg, err := registry.LoadDefaultPoolTable()
	if err != nil {
		log.Fatalf("FATAL: loading static pool table: %v", err)
	}
	log.Printf("Pool registry loaded: %d pools tracked", reg.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Bootstrap RPC client and reserve bootstrap ────────────────────
	rpcClient, err := chainrpc.NewClient(ctx, chainrpc.Config{URL: cfg.RPCURL, ContractID: cfg.ContractID})
	if err != nil {
		log.Fatalf("FATAL: bootstrap RPC connect: %v", err) // exit code 1: bootstrap failure
	}
	defer rpcClient.Shutdown()

	cycles, err := pipeline.Bootstrap(ctx, reg, cfg.BaseAsset, cfg.MaxHops, rpcClient)
	if err != nil {
		log.Fatalf("FATAL: bootstrap failed: %v", err) // exit code 1: bootstrap failure
	}

	// ─── Log-stream event source (component G step 2) ───────────────────
	subscriber := logstream.NewSubscriber(logstream.Config{URL: cfg.LogStreamURL, QueueDepth: cfg.EventQueueDepth})

	// ─── Ranker (components D, E, F) tuned from configuration ──────────
	ranker := rank.New(reg)
	ranker.TopK = cfg.TopK
	ranker.MinProfit = cfg.MinProfit

	// ─── Bundle composer's external swap-script collaborator (H) ───────
	executor := bundle.NewExecutor(bundle.ExecConfig{
		BinaryPath: cfg.SwapScriptPath,
		DryRun:     cfg.DryRunBundles,
	})

	// ─── Wallet: signs nothing here, only derives the change
	// recipient and selects spendable coins for AssetIn. Its coin set
	// starts empty; populating it from the chain's live UTXO/coin set is a
	// wallet-indexer collaborator's job, the same way reserve bootstrap is
	// chainrpc's, and is wired in here via wallet.SetCoins once that
	// indexer exists.
	w, err := wallet.New(cfg.WalletPrivateKey, nil)
	if err != nil {
		log.Fatalf("FATAL: wallet: %v", err)
	}
	log.Printf("Wallet address derived: %s", w.Address)

	// ─── Dashboard/API hub and alerting ──────────────────────────────────
	wsHub := api.NewHub()
	go wsHub.Run()

	alertMgr := alerting.NewManager(func(a alerting.Alert) {
		payload, err := json.Marshal(a)
		if err != nil {
			log.Printf("[Alerting] failed to marshal alert for dashboard broadcast: %v", err)
			return
		}
		wsHub.Broadcast(payload)
	})

	// ─── Resync loop (periodic re-bootstrap) ────────────────────────────
	resyncLoop := resync.New(rpcClient, reg, cfg.ResyncInterval)
	go resyncLoop.Run(ctx)

	// ─── Shadow optimizer (supplement: continuous property-6 check) ────
	shadowRunner := shadow.New(dbConn)

	apiHandler := api.NewHandler(reg, dbConn, wsHub, func() error { return resyncLoop.Once(ctx) })
	router := api.SetupRouter(apiHandler)

	coordinator := pipeline.New(pipeline.Deps{
		Registry:       reg,
		Cycles:         cycles,
		BaseAsset:      cfg.BaseAsset,
		Ranker:         ranker,
		Subscriber:     subscriber,
		Executor:       executor,
		DryRun:         cfg.DryRunBundles,
		Chain:          rpcClient,
		DeadlineBlocks: cfg.DeadlineBlocks,
		Store:          dbConn,
		Alerts:         alertMgr,
		APIHandler:     apiHandler,
		Shadow:         shadowRunner,
		Wallet:         w,
	})

	// The consumer loop runs on its own goroutine; the gin server owns the
	// blocking Run call on main.
	pipelineErrCh := make(chan error, 1)
	go func() {
		pipelineErrCh <- coordinator.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %s, shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		err := <-pipelineErrCh
		if err == nil {
			return
		}
		var divergence *reconcile.StateDivergence
		if errors.As(err, &divergence) {
			log.Printf("FATAL: unrecoverable state divergence, exiting: %v", divergence)
		} else {
			log.Printf("FATAL: pipeline coordinator exited: %v", err)
		}
		os.Exit(2) // exit code 2: unrecoverable state divergence
	}()

	log.Printf("Engine running on :%s\n", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}
}
