// Package reconciler drives ingested records from pending to predicted. One
// run scans for unscored rows, scores each against the loaded model, and
// persists both projections atomically per row.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/praevita/praevita/internal/common"
	"github.com/praevita/praevita/internal/metrics"
	"github.com/praevita/praevita/internal/oracle"
	"github.com/praevita/praevita/internal/service"
)

// Config holds configuration options for the reconciler.
type Config struct {
	BatchSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{BatchSize: 100}
}

// RunStats summarizes one reconciler run.
type RunStats struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Reconciler moves pending records to predicted, tolerating per-row failure
// without corrupting state or double-processing.
type Reconciler struct {
	store    service.Storage
	provider oracle.Provider
	config   Config
}

// New creates a reconciler with the default configuration.
func New(store service.Storage, provider oracle.Provider) *Reconciler {
	return NewWithConfig(store, provider, DefaultConfig())
}

// NewWithConfig creates a reconciler with custom configuration.
func NewWithConfig(store service.Storage, provider oracle.Provider, config Config) *Reconciler {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Reconciler{
		store:    store,
		provider: provider,
		config:   config,
	}
}

// Run performs one reconciliation pass. The whole run aborts with zero
// mutations when no model is loaded; a failure on one row is logged and the
// row stays pending for a future run while the rest of the batch proceeds.
// Running twice with no intervening ingestion is a no-op on the second run,
// because succeeded rows no longer appear in the pending scan.
func (r *Reconciler) Run(ctx context.Context) (RunStats, error) {
	start := time.Now()
	stats, err := r.run(ctx)
	metrics.ObserveReconcilerRun(time.Since(start), stats.Succeeded, stats.Failed, err)
	return stats, err
}

func (r *Reconciler) run(ctx context.Context) (RunStats, error) {
	var stats RunStats

	scorer, err := r.provider.Current()
	if err != nil {
		if errors.Is(err, common.ErrModelNotLoaded) {
			slog.Error("Reconciler aborted: no model loaded")
			return stats, err
		}
		return stats, fmt.Errorf("failed to acquire scorer: %w", err)
	}

	pending, err := r.store.GetPendingRecords(ctx, r.config.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("failed to scan pending records: %w", err)
	}

	if len(pending) == 0 {
		slog.Debug("No pending records to reconcile")
		return stats, nil
	}

	slog.Info("Starting reconciler run", "pending", len(pending))

	for _, record := range pending {
		select {
		case <-ctx.Done():
			slog.Warn("Reconciler run canceled",
				"attempted", stats.Attempted,
				"succeeded", stats.Succeeded)
			return stats, ctx.Err()
		default:
		}

		stats.Attempted++

		cholera, typhoid, scoreErr := scorer.Score(ctx, record.Features())
		if scoreErr != nil {
			stats.Failed++
			slog.Error("Failed to score record; row stays pending",
				"record_id", record.ID,
				"district", record.District,
				"error", scoreErr)
			continue
		}

		if setErr := r.store.SetPrediction(ctx, record.ID, cholera, typhoid); setErr != nil {
			stats.Failed++
			slog.Error("Failed to persist prediction; row stays pending",
				"record_id", record.ID,
				"district", record.District,
				"error", setErr)
			continue
		}

		stats.Succeeded++
	}

	slog.Info("Reconciler run complete",
		"attempted", stats.Attempted,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed)

	return stats, nil
}
