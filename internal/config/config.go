// Package config reads the engine's environment-variable configuration
// once at startup into a single typed struct instead of scattering
// os.Getenv calls through main.
package config

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rawblock/arbengine/internal/bundle"
	"github.com/rawblock/arbengine/internal/cycleindex"
	"github.com/rawblock/arbengine/internal/logstream"
	"github.com/rawblock/arbengine/internal/rank"
	"github.com/rawblock/arbengine/pkg/models"
)

// Config is every environment-derived setting the engine needs at startup.
// Values not provided fall back to built-in defaults; the RPC and
// log-stream URLs, the AMM contract id and the wallet key have no default
// and fail startup if missing. DATABASE_URL, SWAP_SCRIPT_PATH,
// API_AUTH_TOKEN and ALLOWED_ORIGINS may be left empty.
type Config struct {
	// Chain collaborators. EventQueueDepth bounds the decoded-event queue
	// between the log-stream subscriber and the pipeline; past it the
	// oldest queued event is dropped.
	RPCURL          string
	ContractID      string
	LogStreamURL    string
	EventQueueDepth int

	// Persistence.
	DatabaseURL string

	// API.
	Port           string
	AuthToken      string
	AllowedOrigins string

	// Bundle composer. DeadlineBlocks is the block-height horizon added
	// to the chain's current height when composing a bundle's deadline.
	SwapScriptPath string
	DryRunBundles  bool
	DeadlineBlocks uint64

	// Domain search parameters.
	BaseAsset models.AssetID
	MaxHops   int
	TopK      int
	MinProfit *big.Int

	// Resync cadence.
	ResyncInterval time.Duration

	// Wallet key, from the env var directly or a file it points at. The
	// composer draws spendable coin inputs and change recipients from the
	// wallet this key derives.
	WalletPrivateKey string
}

// Load reads and validates the engine's configuration from the process
// environment.
func Load() (Config, error) {
	baseAsset, err := models.ParseAssetID(getEnvOrDefault("BASE_ASSET", "0x0000000000000000000000000000000000000000000000000000000000000001"))
	if err != nil {
		return Config{}, fmt.Errorf("config: BASE_ASSET: %w", err)
	}

	maxHops, err := intEnvOrDefault("MAX_HOPS", cycleindex.DefaultMaxHops)
	if err != nil {
		return Config{}, err
	}
	topK, err := intEnvOrDefault("TOP_K", rank.DefaultTopK)
	if err != nil {
		return Config{}, err
	}

	minProfit := new(big.Int).Set(rank.MinProfit)
	if v := os.Getenv("MIN_PROFIT"); v != "" {
		parsed, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return Config{}, fmt.Errorf("config: MIN_PROFIT %q is not a valid integer", v)
		}
		minProfit = parsed
	}

	resyncInterval, err := durationEnvOrDefault("RESYNC_INTERVAL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}

	deadlineBlocks, err := intEnvOrDefault("DEADLINE_BLOCKS", bundle.DefaultDeadlineBlocks)
	if err != nil {
		return Config{}, err
	}
	if deadlineBlocks < 1 {
		return Config{}, fmt.Errorf("config: DEADLINE_BLOCKS must be at least 1, got %d", deadlineBlocks)
	}

	queueDepth, err := intEnvOrDefault("EVENT_QUEUE_DEPTH", logstream.DefaultQueueDepth)
	if err != nil {
		return Config{}, err
	}
	if queueDepth < 1 {
		return Config{}, fmt.Errorf("config: EVENT_QUEUE_DEPTH must be at least 1, got %d", queueDepth)
	}

	return Config{
		RPCURL:           requireEnv("RPC_URL"),
		ContractID:       requireEnv("AMM_CONTRACT_ID"),
		LogStreamURL:     requireEnv("LOG_STREAM_URL"),
		EventQueueDepth:  queueDepth,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Port:             getEnvOrDefault("PORT", "5339"),
		AuthToken:        os.Getenv("API_AUTH_TOKEN"),
		AllowedOrigins:   os.Getenv("ALLOWED_ORIGINS"),
		SwapScriptPath:   os.Getenv("SWAP_SCRIPT_PATH"),
		DryRunBundles:    getEnvOrDefault("DRY_RUN_BUNDLES", "true") == "true",
		DeadlineBlocks:   uint64(deadlineBlocks),
		BaseAsset:        baseAsset,
		MaxHops:          maxHops,
		TopK:             topK,
		MinProfit:        minProfit,
		ResyncInterval:   resyncInterval,
		WalletPrivateKey: requireEnvOrFile("WALLET_PRIVATE_KEY", "WALLET_PRIVATE_KEY_FILE"),
	}, nil
}

// requireEnv reads a required environment variable and exits if it is not
// set. This prevents the binary from starting with missing critical
// configuration.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set.", key)
	}
	return val
}

// requireEnvOrFile reads a secret from an env var, or, if unset, from the
// file a second env var points at, exiting if neither is available. The
// file form lets the key live outside process environment listings (e.g. a
// mounted Kubernetes secret).
func requireEnvOrFile(envKey, fileKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if path := os.Getenv(fileKey); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("FATAL: reading %s file %s: %v", envKey, path, err)
		}
		return strings.TrimSpace(string(data))
	}
	log.Fatalf("FATAL: Required environment variable %s (or %s pointing at a key file) is not set.", envKey, fileKey)
	return ""
}

// getEnvOrDefault returns the env var value or a safe default for
// non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func intEnvOrDefault(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	return n, nil
}

func durationEnvOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a duration (e.g. \"5m\"): %w", key, err)
	}
	return d, nil
}
