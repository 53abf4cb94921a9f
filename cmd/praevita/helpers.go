package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/praevita/praevita/internal/llm"
	"github.com/praevita/praevita/internal/oracle"
	"github.com/praevita/praevita/internal/service"
	"github.com/praevita/praevita/internal/storage"

	"github.com/spf13/viper"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func databasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "praevita.db"
		}
		dbPath = filepath.Join(home, ".local", "share", "praevita", "praevita.db")
	}
	return os.ExpandEnv(dbPath)
}

// createScorerProvider builds the model provider from configuration. The
// provider starts unloaded when no model URL is configured; scoring then
// fails until one is set.
func createScorerProvider() (*oracle.StaticProvider, error) {
	modelURL := viper.GetString("model.url")
	if modelURL == "" {
		modelURL = os.Getenv("PRAEVITA_MODEL_URL")
	}
	if modelURL == "" {
		return oracle.NewStaticProvider(nil), nil
	}

	scorer, err := oracle.NewHTTPScorer(modelURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	return oracle.NewStaticProvider(scorer), nil
}

// createSynthesizer creates the report synthesizer based on configuration.
// This function is shared by the serve and report commands.
func createSynthesizer() (*llm.Synthesizer, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = "openai" // default provider
	}

	config := llm.Config{
		Provider:    provider,
		Model:       viper.GetString("llm.model"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RetryDelay:  viper.GetDuration("llm.retry_delay"),
	}

	// Set defaults if not specified
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}

	// Get API key based on provider
	switch provider {
	case "openai":
		apiKey := viper.GetString("llm.openai_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key not found in config or OPENAI_API_KEY environment variable")
		}
		config.APIKey = apiKey

	case "anthropic":
		apiKey := viper.GetString("llm.anthropic_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic API key not found in config or ANTHROPIC_API_KEY environment variable")
		}
		config.APIKey = apiKey

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	return llm.NewSynthesizer(config)
}
