package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"entryhub/internal/domain/entity"
	"entryhub/internal/observability/metrics"
)

// WebhookConfig contains configuration for per-feed webhook delivery.
type WebhookConfig struct {
	// Enabled indicates whether webhook notifications are enabled.
	Enabled bool

	// Timeout is the HTTP request timeout for a single delivery attempt.
	Timeout time.Duration

	// RequestsPerSecond and Burst parameterize the shared rate limiter.
	RequestsPerSecond float64
	Burst             int
}

// WebhookNotifier POSTs entry lifecycle events to the owning feed's
// configured webhook URL. Feeds without a webhook URL are skipped silently.
type WebhookNotifier struct {
	config      WebhookConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

func NewWebhookNotifier(config WebhookConfig) *WebhookNotifier {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 2.0
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}
	return &WebhookNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(config.RequestsPerSecond, config.Burst),
	}
}

// webhookPayload is the wire format delivered to subscriber endpoints.
type webhookPayload struct {
	Event string        `json:"event"`
	Entry *entity.Entry `json:"entry"`
}

// Notify delivers one event to feed.WebhookURL with rate limiting and a
// bounded retry. Implements the Notifier interface.
func (w *WebhookNotifier) Notify(ctx context.Context, eventType string, entry *entity.Entry, feed *entity.Feed) error {
	if feed.WebhookURL == "" {
		slog.DebugContext(ctx, "feed has no webhook url, skipping",
			slog.Int64("feed_id", feed.ID),
			slog.Int64("entry_id", entry.ID))
		return nil
	}

	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.InfoContext(ctx, "starting webhook delivery",
		slog.String("request_id", requestID),
		slog.String("event", eventType),
		slog.Int64("entry_id", entry.ID),
		slog.Int64("feed_id", feed.ID))

	if err := w.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("webhook rate limiter: %w", err)
	}

	return w.sendWithRetry(ctx, eventType, entry, feed)
}

// sendWithRetry makes at most two attempts. 429 waits for Retry-After; 5xx
// and network errors back off linearly; other 4xx fail immediately.
func (w *WebhookNotifier) sendWithRetry(ctx context.Context, eventType string, entry *entity.Entry, feed *entity.Feed) error {
	const (
		maxAttempts = 2
		baseDelay   = 5 * time.Second
	)

	requestID, _ := ctx.Value(requestIDKey).(string)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		err := w.send(ctx, eventType, entry, feed)
		if err == nil {
			metrics.RecordNotificationSuccess("webhook", time.Since(start))
			slog.InfoContext(ctx, "webhook delivery successful",
				slog.String("request_id", requestID),
				slog.Int64("entry_id", entry.ID),
				slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err
		metrics.RecordNotificationFailure("webhook", time.Since(start))

		if rateLimitErr, ok := is429Error(err); ok {
			slog.WarnContext(ctx, "webhook rate limited by subscriber, backing off",
				slog.String("request_id", requestID),
				slog.Int64("entry_id", entry.ID),
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))
			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryableError(err) {
			slog.ErrorContext(ctx, "webhook delivery failed with non-retryable error",
				slog.String("request_id", requestID),
				slog.Int64("entry_id", entry.ID),
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		}

		if attempt < maxAttempts {
			delay := baseDelay * time.Duration(attempt)
			slog.WarnContext(ctx, "webhook delivery failed, retrying",
				slog.String("request_id", requestID),
				slog.Int64("entry_id", entry.ID),
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
			}
		}
	}

	slog.ErrorContext(ctx, "webhook delivery failed after all retries",
		slog.String("request_id", requestID),
		slog.Int64("entry_id", entry.ID),
		slog.Any("error", lastErr),
		slog.Int("max_attempts", maxAttempts))
	return fmt.Errorf("webhook delivery failed after %d attempts: %w", maxAttempts, lastErr)
}

func (w *WebhookNotifier) send(ctx context.Context, eventType string, entry *entity.Entry, feed *entity.Feed) error {
	jsonData, err := json.Marshal(webhookPayload{Event: eventType, Entry: entry})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, feed.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    "subscriber rate limit exceeded",
			RetryAfter: extractRetryAfter(resp),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("webhook client error %d: %s", resp.StatusCode, string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("webhook server error %d: %s", resp.StatusCode, string(body)),
		}
	default:
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
}
