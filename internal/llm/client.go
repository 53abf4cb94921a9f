// Package llm provides the narrative synthesis boundary: provider-agnostic
// clients that turn an aggregated report payload into a validated
// structured report, with retry on transient failure.
package llm

import (
	"context"
	"time"

	"github.com/praevita/praevita/internal/model"
)

// Client defines the interface for structured report generation providers.
type Client interface {
	Synthesize(ctx context.Context, systemPrompt, userPrompt string) (*model.StructuredReport, error)
}

// Config holds configuration for synthesis clients.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	Temperature float64
	MaxTokens   int
}
