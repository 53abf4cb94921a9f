package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/praevita/praevita/internal/reconciler"
	"github.com/praevita/praevita/internal/service"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Score all pending observations",
		Long: `Run the prediction pass over every stored observation that does not
yet have projected case counts. Rows that fail to score stay pending
and are retried on the next run.`,
		RunE: runReconcile,
	}
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	return reconcilePending(ctx, store)
}

// reconcilePending drains the pending set batch by batch, showing progress.
func reconcilePending(ctx context.Context, store service.Storage) error {
	provider, err := createScorerProvider()
	if err != nil {
		return err
	}

	pending, err := store.CountPendingRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending records: %w", err)
	}
	if pending == 0 {
		slog.Info("No pending records to score")
		return nil
	}

	bar := progressbar.NewOptions(pending,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Scoring observations..."),
	)

	rec := reconciler.New(store, provider)
	var succeeded, failed int
	for {
		stats, runErr := rec.Run(ctx)
		if runErr != nil {
			_ = bar.Exit()
			return runErr
		}
		succeeded += stats.Succeeded
		failed += stats.Failed
		_ = bar.Add(stats.Attempted)

		if stats.Attempted == 0 || stats.Succeeded == 0 {
			// Nothing left, or every remaining row is failing
			break
		}
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	slog.Info("Reconciliation complete", "succeeded", succeeded, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d records failed to score and remain pending", failed)
	}
	return nil
}
