package llm

import (
	"fmt"
	"strings"
)

// NewClient creates a raw synthesis client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported synthesis provider: %s", cfg.Provider)
	}
}
