package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/praevita/praevita/internal/ingest"
	"github.com/praevita/praevita/internal/metrics"

	"github.com/spf13/cobra"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Load observation files into the database",
		Long: `Parse one or more CSV, TSV, or XLSX observation files and insert
their rows as pending records. Each file is inserted atomically: a
single malformed row rejects that whole file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().Bool("predict", false, "Score the newly ingested rows after loading")
	cmd.Flags().String("format", "", "Override format detection (csv, xlsx)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	formatOverride, _ := cmd.Flags().GetString("format")

	total := 0
	for _, path := range args {
		content, readErr := os.ReadFile(path) // #nosec G304 -- user-supplied path
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", path, readErr)
		}

		format := ingest.FormatForFilename(path)
		if formatOverride != "" {
			format = ingest.Format(formatOverride)
		}

		inputs, parseErr := ingest.Parse(content, format)
		if parseErr != nil {
			return fmt.Errorf("%s: %w", path, parseErr)
		}

		inserted, insertErr := store.InsertRecords(ctx, inputs)
		if insertErr != nil {
			return fmt.Errorf("%s: %w", path, insertErr)
		}
		metrics.ObserveIngestion(inserted)

		slog.Info("Ingested file", "path", path, "rows", inserted)
		total += inserted
	}

	slog.Info("Ingestion complete", "files", len(args), "rows", total)

	predict, _ := cmd.Flags().GetBool("predict")
	if predict {
		return reconcilePending(ctx, store)
	}

	pending, err := store.CountPendingRecords(ctx)
	if err == nil && pending > 0 {
		slog.Info("Rows awaiting prediction", "pending", pending)
	}
	return nil
}
