// Package annotator provides the external NLP adapters that extract semantic
// annotations and sentiment from entry text. The provider is selected via
// ANNOTATOR_PROVIDER; every provider satisfies the same two-call contract.
package annotator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entryhub/internal/domain/entity"
	"entryhub/pkg/config"
)

// Annotator is the two-call NLP contract: entity annotations and a sentiment
// score, both computed from the same plain text.
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]entity.Annotation, error)
	Sentiment(ctx context.Context, text string) (*entity.Sentiment, error)
}

// Config selects and parameterizes the annotator provider.
type Config struct {
	// Provider is one of "dandelion", "openai", "claude", "noop".
	Provider string

	// APIKey authenticates against the selected provider.
	APIKey string

	// BaseURL overrides the provider endpoint, used for the dandelion
	// provider and in tests.
	BaseURL string

	// Timeout bounds a single API call.
	Timeout time.Duration
}

// LoadConfig reads the annotator configuration from the environment.
//
// Environment variables:
//   - ANNOTATOR_PROVIDER: provider name (default: noop)
//   - ANNOTATOR_API_KEY: provider API key
//   - ANNOTATOR_BASE_URL: endpoint override (default: dandelion public API)
//   - ANNOTATOR_TIMEOUT: per-call timeout (default: 15s)
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Provider: config.GetEnvString("ANNOTATOR_PROVIDER", "noop"),
		APIKey:   config.GetEnvString("ANNOTATOR_API_KEY", ""),
		BaseURL:  config.GetEnvString("ANNOTATOR_BASE_URL", "https://api.dandelion.eu/datatxt"),
		Timeout:  config.GetEnvDuration("ANNOTATOR_TIMEOUT", 15*time.Second),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Provider {
	case "dandelion", "openai", "claude", "noop":
	default:
		return fmt.Errorf("unknown annotator provider: %q", c.Provider)
	}
	if c.Provider != "noop" && c.APIKey == "" {
		return fmt.Errorf("annotator provider %q requires ANNOTATOR_API_KEY", c.Provider)
	}
	if err := config.ValidatePositiveDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid annotator timeout: %w", err)
	}
	return nil
}

// New builds the annotator for the configured provider.
func New(cfg *Config) (Annotator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("initializing annotator",
		slog.String("provider", cfg.Provider),
		slog.Duration("timeout", cfg.Timeout))

	switch cfg.Provider {
	case "dandelion":
		return NewDandelion(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	case "claude":
		return NewClaude(cfg), nil
	default:
		return NewNoOp(), nil
	}
}
