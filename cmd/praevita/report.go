package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/praevita/praevita/internal/common"
	"github.com/praevita/praevita/internal/report"

	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Synthesize a risk report from predicted observations",
		Long: `Aggregate every predicted observation, derive percent changes and
risk tiers, and ask the configured LLM to write the structured
report. The result is printed as JSON.`,
		RunE: runReport,
	}

	cmd.Flags().StringP("output", "o", "", "write the report JSON to a file instead of stdout")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	synthesizer, err := createSynthesizer()
	if err != nil {
		return err
	}

	payload, err := report.BuildComprehensivePrompt(ctx, store)
	if err != nil {
		if errors.Is(err, common.ErrNoData) {
			return fmt.Errorf("no predicted observations found; run 'praevita reconcile' first")
		}
		return err
	}

	result, err := synthesizer.Synthesize(ctx, payload)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if writeErr := os.WriteFile(path, append(out, '\n'), 0o600); writeErr != nil {
			return fmt.Errorf("failed to write report: %w", writeErr)
		}
		return nil
	}

	fmt.Println(string(out))
	return nil
}
