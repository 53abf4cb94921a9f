package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/praevita/praevita/internal/api"
	"github.com/praevita/praevita/internal/reconciler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background prediction worker",
		Long: `Start the forecasting service: the HTTP API for uploads, synchronous
predictions, and report synthesis, plus the background worker that
scores pending observations after each upload.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8000", "listen address for the HTTP API")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	provider, err := createScorerProvider()
	if err != nil {
		return err
	}

	synthesizer, err := createSynthesizer()
	if err != nil {
		return err
	}

	worker := reconciler.NewWorker(reconciler.New(store, provider))

	handlers := &api.Handlers{
		Store:       store,
		Provider:    provider,
		Synthesizer: synthesizer,
		Worker:      worker,
	}

	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = ":8000"
	}

	server, err := api.NewServer(addr, handlers, prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server", "addr", addr)
		return server.Start()
	})

	g.Go(func() error {
		worker.Start(gctx)
		// Score anything left pending from previous runs
		worker.Trigger()
		worker.Wait()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}

	slog.Info("Shutdown complete")
	return nil
}
