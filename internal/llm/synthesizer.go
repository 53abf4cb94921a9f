package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/praevita/praevita/internal/common"
	"github.com/praevita/praevita/internal/metrics"
	"github.com/praevita/praevita/internal/model"
	"github.com/praevita/praevita/internal/report"
	"github.com/praevita/praevita/internal/service"
)

// Synthesizer wraps a provider client with the retry policy for report
// generation: three attempts total, then the failure surfaces to the caller
// with the provider detail preserved. No fallback content is generated.
type Synthesizer struct {
	client    Client
	retryOpts service.RetryOptions
}

// NewSynthesizer creates a retrying synthesizer from the configuration.
func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis client: %w", err)
	}
	return NewSynthesizerWithClient(cfg, client), nil
}

// NewSynthesizerWithClient creates a synthesizer around an existing client.
func NewSynthesizerWithClient(cfg Config, client Client) *Synthesizer {
	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Synthesizer{
		client:    client,
		retryOpts: retryOpts,
	}
}

// Synthesize generates a structured report from an aggregated payload.
func (s *Synthesizer) Synthesize(ctx context.Context, payload report.Payload) (*model.StructuredReport, error) {
	var result *model.StructuredReport

	err := common.WithRetry(ctx, func() error {
		var synthErr error
		result, synthErr = s.client.Synthesize(ctx, payload.SystemPrompt, payload.UserPrompt)
		if synthErr != nil {
			return &common.RetryableError{Err: synthErr, Retryable: true}
		}
		return nil
	}, s.retryOpts)

	metrics.ObserveSynthesis(err)

	if err != nil {
		slog.Error("Report synthesis exhausted retries", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrSynthesisFailed, err)
	}

	if result.ReportingPeriod == "" {
		result.ReportingPeriod = payload.Period
	}

	return result, nil
}
