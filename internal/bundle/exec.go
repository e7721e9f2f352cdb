package bundle

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-cmd/cmd"
)

// ExecConfig points at the external swap-script executable. DryRun governs
// whether "--simulate" is appended; a live submission omits it.
type ExecConfig struct {
	BinaryPath string
	DryRun     bool
}

// SimResult is one (amount, asset_id) pair from the swap-script's stdout:
// what the simulated trade would deliver.
type SimResult struct {
	Amount  string
	AssetID string
}

// Executor shells out to the configured swap-script binary for a single
// Bundle, draining the process's stdout incrementally instead of blocking
// for combined output at exit.
type Executor struct {
	cfg ExecConfig
}

func NewExecutor(cfg ExecConfig) *Executor {
	return &Executor{cfg: cfg}
}

// Run invokes the swap-script with b's argv, streaming stdout lines as they
// arrive and returning the final parsed result sequence. Blocks until the
// process exits or ctx is cancelled.
func (e *Executor) Run(ctx context.Context, b Bundle) ([]SimResult, error) {
	if e.cfg.BinaryPath == "" {
		return nil, fmt.Errorf("bundle: no swap-script binary configured")
	}

	argv := b.Argv()
	if e.cfg.DryRun {
		argv = append(argv, "--simulate")
	}

	log.Printf("[Bundle] executing %s %s (bundle=%s dryRun=%v)", e.cfg.BinaryPath, strings.Join(argv, " "), b.ID, e.cfg.DryRun)

	c := cmd.NewCmd(e.cfg.BinaryPath, argv...)
	statusChan := c.Start()

	var lastSeen int
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.Stop()
			return nil, fmt.Errorf("bundle: cancelled: %w", ctx.Err())

		case status := <-statusChan:
			if status.Error != nil {
				return nil, fmt.Errorf("bundle: swap-script exited with error: %w", status.Error)
			}
			if status.Exit != 0 {
				return nil, fmt.Errorf("bundle: swap-script exited %d: %s", status.Exit, strings.Join(status.Stderr, "\n"))
			}
			return parseSimResults(status.Stdout), nil

		case <-ticker.C:
			status := c.Status()
			for ; lastSeen < len(status.Stdout); lastSeen++ {
				log.Printf("[Bundle] %s: %s", b.ID, status.Stdout[lastSeen])
			}
		}
	}
}

// parseSimResults parses the swap-script's stdout lines, one
// "amount,asset_id" pair per line, skipping anything that doesn't match.
func parseSimResults(lines []string) []SimResult {
	out := make([]SimResult, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(strings.TrimSpace(line), ",", 2)
		if len(parts) != 2 {
			continue
		}
		out = append(out, SimResult{Amount: parts[0], AssetID: parts[1]})
	}
	return out
}
