package annotator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"entryhub/internal/domain/entity"
	"entryhub/internal/observability/metrics"
	"entryhub/internal/resilience/circuitbreaker"
	"entryhub/internal/resilience/retry"
)

// Claude implements Annotator on the Anthropic Messages API, sharing the
// prompt and JSON contract with the OpenAI provider.
type Claude struct {
	client         anthropic.Client
	model          anthropic.Model
	timeout        time.Duration
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func NewClaude(cfg *Config) *Claude {
	return &Claude{
		client:         anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:          anthropic.ModelClaudeSonnet4_5_20250929,
		timeout:        cfg.Timeout,
		circuitBreaker: circuitbreaker.New(circuitbreaker.NLPAPIConfig()),
		retryConfig:    retry.NLPAPIConfig(),
	}
}

func (c *Claude) Annotate(ctx context.Context, text string) ([]entity.Annotation, error) {
	raw, err := c.complete(ctx, "annotate", fmt.Sprintf(annotatePrompt, truncate(text)))
	if err != nil {
		return nil, err
	}

	var annotations []entity.Annotation
	if err := json.Unmarshal([]byte(raw), &annotations); err != nil {
		return nil, fmt.Errorf("claude annotate: decode: %w", err)
	}
	return annotations, nil
}

func (c *Claude) Sentiment(ctx context.Context, text string) (*entity.Sentiment, error) {
	raw, err := c.complete(ctx, "sentiment", fmt.Sprintf(sentimentPrompt, truncate(text)))
	if err != nil {
		return nil, err
	}

	var sentiment entity.Sentiment
	if err := json.Unmarshal([]byte(raw), &sentiment); err != nil {
		return nil, fmt.Errorf("claude sentiment: decode: %w", err)
	}
	return &sentiment, nil
}

func (c *Claude) complete(ctx context.Context, operation, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result string

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doComplete(ctx, operation, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("nlp api circuit breaker open, request rejected",
					slog.String("provider", "claude"),
					slog.String("operation", operation),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("nlp api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("claude %s failed after retries: %w", operation, retryErr)
	}
	return result, nil
}

func (c *Claude) doComplete(ctx context.Context, operation, prompt string) (string, error) {
	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	duration := time.Since(start)
	metrics.RecordAnnotatorRequest("claude", operation, duration)

	if err != nil {
		slog.ErrorContext(ctx, "nlp api request failed",
			slog.String("provider", "claude"),
			slog.String("operation", operation),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return "", fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude api returned empty response")
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}
	return textBlock.Text, nil
}
