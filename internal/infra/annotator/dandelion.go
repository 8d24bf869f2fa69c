package annotator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"entryhub/internal/domain/entity"
	"entryhub/internal/observability/metrics"
	"entryhub/internal/resilience/circuitbreaker"
	"entryhub/internal/resilience/retry"
)

// Dandelion implements Annotator against a Dandelion-style HTTP API:
// POST {base}/nex for entity extraction and POST {base}/sent for sentiment,
// both form-encoded with token authentication. Calls run through the shared
// retry and circuit breaker policies for external NLP services.
type Dandelion struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func NewDandelion(cfg *Config) *Dandelion {
	return &Dandelion{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.APIKey,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		circuitBreaker: circuitbreaker.New(circuitbreaker.NLPAPIConfig()),
		retryConfig:    retry.NLPAPIConfig(),
	}
}

type nexResponse struct {
	Annotations []struct {
		ID         int64    `json:"id"`
		URI        string   `json:"uri"`
		Spot       string   `json:"spot"`
		Label      string   `json:"label"`
		Confidence float64  `json:"confidence"`
		Categories []string `json:"categories"`
	} `json:"annotations"`
}

type sentResponse struct {
	Sentiment struct {
		Score float64 `json:"score"`
		Type  string  `json:"type"`
	} `json:"sentiment"`
}

func (d *Dandelion) Annotate(ctx context.Context, text string) ([]entity.Annotation, error) {
	body, err := d.call(ctx, "annotate", "/nex", url.Values{
		"text":    {text},
		"token":   {d.token},
		"include": {"categories"},
	})
	if err != nil {
		return nil, err
	}

	var parsed nexResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("dandelion nex: decode: %w", err)
	}

	annotations := make([]entity.Annotation, 0, len(parsed.Annotations))
	for _, a := range parsed.Annotations {
		annotations = append(annotations, entity.Annotation{
			ID:         a.ID,
			URI:        a.URI,
			Spot:       a.Spot,
			Label:      a.Label,
			Confidence: a.Confidence,
			Categories: a.Categories,
		})
	}
	return annotations, nil
}

func (d *Dandelion) Sentiment(ctx context.Context, text string) (*entity.Sentiment, error) {
	body, err := d.call(ctx, "sentiment", "/sent", url.Values{
		"text":  {text},
		"token": {d.token},
	})
	if err != nil {
		return nil, err
	}

	var parsed sentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("dandelion sent: decode: %w", err)
	}
	return &entity.Sentiment{
		Score: parsed.Sentiment.Score,
		Type:  parsed.Sentiment.Type,
	}, nil
}

// call runs one form-encoded POST through retry and circuit breaker, returning
// the raw response body.
func (d *Dandelion) call(ctx context.Context, operation, path string, form url.Values) ([]byte, error) {
	var body []byte

	retryErr := retry.WithBackoff(ctx, d.retryConfig, func() error {
		result, err := d.circuitBreaker.Execute(func() (interface{}, error) {
			return d.doCall(ctx, operation, path, form)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("nlp api circuit breaker open, request rejected",
					slog.String("operation", operation),
					slog.String("state", d.circuitBreaker.State().String()))
				return fmt.Errorf("nlp api unavailable: circuit breaker open")
			}
			return err
		}
		body = result.([]byte)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("dandelion %s failed after retries: %w", operation, retryErr)
	}
	return body, nil
}

func (d *Dandelion) doCall(ctx context.Context, operation, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("dandelion %s: build request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	duration := time.Since(start)
	metrics.RecordAnnotatorRequest("dandelion", operation, duration)

	if err != nil {
		slog.ErrorContext(ctx, "nlp api request failed",
			slog.String("operation", operation),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return nil, fmt.Errorf("dandelion %s: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dandelion %s: read body: %w", operation, err)
	}
	return body, nil
}
