package annotator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"entryhub/internal/domain/entity"
	"entryhub/internal/observability/metrics"
	"entryhub/internal/resilience/circuitbreaker"
	"entryhub/internal/resilience/retry"
)

// Truncation limit for LLM-backed providers, kept well under the context
// window so the instruction and response always fit.
const maxLLMInputChars = 10000

const annotatePrompt = `Extract the named entities and topics from the text below.
Respond with a JSON array only, no prose. Each element:
{"id": <stable numeric id>, "uri": "<reference url>", "spot": "<matched text span>", "label": "<canonical name>", "confidence": <0..1>, "categories": ["<category>", ...]}

Text:
%s`

const sentimentPrompt = `Rate the sentiment of the text below.
Respond with a JSON object only, no prose: {"score": <-1..1>, "type": "positive"|"negative"|"neutral"}

Text:
%s`

// OpenAI implements Annotator with chat-completion calls that return strict
// JSON, parsed into the same annotation shape as the dandelion provider.
type OpenAI struct {
	client         *openai.Client
	model          string
	timeout        time.Duration
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func NewOpenAI(cfg *Config) *OpenAI {
	return &OpenAI{
		client:         openai.NewClient(cfg.APIKey),
		model:          "gpt-4o-mini",
		timeout:        cfg.Timeout,
		circuitBreaker: circuitbreaker.New(circuitbreaker.NLPAPIConfig()),
		retryConfig:    retry.NLPAPIConfig(),
	}
}

func (o *OpenAI) Annotate(ctx context.Context, text string) ([]entity.Annotation, error) {
	raw, err := o.complete(ctx, "annotate", fmt.Sprintf(annotatePrompt, truncate(text)))
	if err != nil {
		return nil, err
	}

	var annotations []entity.Annotation
	if err := json.Unmarshal([]byte(raw), &annotations); err != nil {
		return nil, fmt.Errorf("openai annotate: decode: %w", err)
	}
	return annotations, nil
}

func (o *OpenAI) Sentiment(ctx context.Context, text string) (*entity.Sentiment, error) {
	raw, err := o.complete(ctx, "sentiment", fmt.Sprintf(sentimentPrompt, truncate(text)))
	if err != nil {
		return nil, err
	}

	var sentiment entity.Sentiment
	if err := json.Unmarshal([]byte(raw), &sentiment); err != nil {
		return nil, fmt.Errorf("openai sentiment: decode: %w", err)
	}
	return &sentiment, nil
}

func (o *OpenAI) complete(ctx context.Context, operation, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var result string

	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doComplete(ctx, operation, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("nlp api circuit breaker open, request rejected",
					slog.String("provider", "openai"),
					slog.String("operation", operation),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("nlp api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("openai %s failed after retries: %w", operation, retryErr)
	}
	return result, nil
}

func (o *OpenAI) doComplete(ctx context.Context, operation, prompt string) (string, error) {
	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    "user",
			Content: prompt,
		}},
	})
	duration := time.Since(start)
	metrics.RecordAnnotatorRequest("openai", operation, duration)

	if err != nil {
		slog.ErrorContext(ctx, "nlp api request failed",
			slog.String("provider", "openai"),
			slog.String("operation", operation),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api returned empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func truncate(text string) string {
	if len(text) <= maxLLMInputChars {
		return text
	}
	return text[:maxLLMInputChars]
}
