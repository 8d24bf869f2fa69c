package notify

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"entryhub/internal/observability/metrics"
)

type contextKey string

const requestIDKey contextKey = "request_id"

const (
	circuitBreakerThreshold = 5                // consecutive failures before opening
	circuitBreakerTimeout   = 5 * time.Minute  // how long the breaker stays open
	workerPoolTimeout       = 5 * time.Second  // max wait for a worker slot
	deliveryTimeout         = 30 * time.Second // per-delivery timeout
)

// Service dispatches lifecycle events to all enabled channels.
type Service interface {
	// Dispatch fans an event out to every enabled channel on background
	// goroutines. It is non-blocking and always returns nil for a valid
	// event; delivery failures are logged and metriced, never surfaced.
	Dispatch(ctx context.Context, event Event) error

	// GetChannelHealth reports per-channel circuit breaker state for
	// health endpoints.
	GetChannelHealth() []ChannelHealthStatus

	// Shutdown stops accepting new work and waits for in-flight
	// deliveries until the context expires.
	Shutdown(ctx context.Context) error
}

// ChannelHealthStatus is the monitoring view of one channel.
type ChannelHealthStatus struct {
	Name               string
	Enabled            bool
	CircuitBreakerOpen bool
	DisabledUntil      *time.Time
}

type service struct {
	channels      []Channel
	workerPool    chan struct{}
	channelHealth map[string]*channelHealth
	healthMu      sync.RWMutex
	wg            sync.WaitGroup

	// shutdownMu orders Dispatch's wg.Add against Shutdown's wait: Dispatch
	// holds the read side while registering deliveries, Shutdown takes the
	// write side to flip shutdownCtx before waiting.
	shutdownMu     sync.RWMutex
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// channelHealth tracks the consecutive-failure circuit breaker per channel.
type channelHealth struct {
	consecutiveFailures int
	disabledUntil       time.Time
	mu                  sync.Mutex
}

func NewService(channels []Channel, maxConcurrent int) Service {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	svc := &service{
		channels:       channels,
		workerPool:     make(chan struct{}, maxConcurrent),
		channelHealth:  make(map[string]*channelHealth),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}
	for _, ch := range channels {
		svc.channelHealth[ch.Name()] = &channelHealth{}
	}
	return svc
}

func (s *service) Dispatch(ctx context.Context, event Event) error {
	if !event.Valid() {
		slog.Warn("invalid notification event",
			slog.String("type", string(event.Type)),
			slog.Bool("nil_entry", event.Entry == nil),
			slog.Bool("nil_feed", event.Feed == nil))
		return ErrInvalidEvent
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		requestID = uuid.New().String()
	}

	enabledCount := 0
	for _, ch := range s.channels {
		if ch.IsEnabled() {
			enabledCount++
		}
	}
	if enabledCount == 0 {
		slog.Debug("no notification channels enabled",
			slog.String("request_id", requestID),
			slog.Int64("entry_id", event.Entry.ID))
		return nil
	}

	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()

	select {
	case <-s.shutdownCtx.Done():
		slog.Warn("notification dropped: service shutting down",
			slog.String("request_id", requestID),
			slog.String("event", string(event.Type)),
			slog.Int64("entry_id", event.Entry.ID))
		for _, ch := range s.channels {
			if ch.IsEnabled() {
				metrics.RecordNotificationDropped(ch.Name(), "shutdown")
			}
		}
		return nil
	default:
	}

	slog.Info("dispatching entry event",
		slog.String("request_id", requestID),
		slog.String("event", string(event.Type)),
		slog.Int64("entry_id", event.Entry.ID),
		slog.Int64("feed_id", event.Feed.ID),
		slog.Int("enabled_channels", enabledCount))

	for _, ch := range s.channels {
		if ch.IsEnabled() {
			channel := ch
			s.wg.Add(1)
			go s.deliver(requestID, channel, event)
		}
	}
	return nil
}

// deliver sends one event to one channel on its own goroutine.
func (s *service) deliver(requestID string, channel Channel, event Event) {
	defer s.wg.Done()

	metrics.IncrementNotificationGoroutines()
	defer metrics.DecrementNotificationGoroutines()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in notification channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	// Acquire a worker slot; drop rather than queue unboundedly.
	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-time.After(workerPoolTimeout):
		slog.Warn("notification dropped: worker pool full",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		metrics.RecordNotificationDropped(channel.Name(), "pool_full")
		return
	}

	health := s.getChannelHealth(channel.Name())
	health.mu.Lock()
	if time.Now().Before(health.disabledUntil) {
		health.mu.Unlock()
		slog.Warn("channel temporarily disabled by circuit breaker",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		metrics.RecordNotificationDropped(channel.Name(), "circuit_open")
		return
	}
	health.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.shutdownCtx, deliveryTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	start := time.Now()
	metrics.RecordNotificationDispatch(channel.Name())

	err := channel.Send(ctx, event)
	duration := time.Since(start)

	health.mu.Lock()
	if err != nil {
		health.consecutiveFailures++
		if health.consecutiveFailures >= circuitBreakerThreshold {
			health.disabledUntil = time.Now().Add(circuitBreakerTimeout)
			slog.Error("circuit breaker opened for channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Int("consecutive_failures", health.consecutiveFailures))
		}
	} else {
		health.consecutiveFailures = 0
	}
	health.mu.Unlock()

	if err != nil {
		metrics.RecordNotificationFailure(channel.Name(), duration)
		slog.Warn("channel delivery failed",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.String("event", string(event.Type)),
			slog.Int64("entry_id", event.Entry.ID),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
	} else {
		metrics.RecordNotificationSuccess(channel.Name(), duration)
		slog.Info("channel delivery succeeded",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.String("event", string(event.Type)),
			slog.Int64("entry_id", event.Entry.ID),
			slog.Duration("send_duration", duration))
	}
}

func (s *service) getChannelHealth(channelName string) *channelHealth {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	return s.channelHealth[channelName]
}

func (s *service) GetChannelHealth() []ChannelHealthStatus {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()

	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		health := s.channelHealth[ch.Name()]

		health.mu.Lock()
		var disabledUntil *time.Time
		open := false
		if time.Now().Before(health.disabledUntil) {
			open = true
			until := health.disabledUntil
			disabledUntil = &until
		}
		health.mu.Unlock()

		statuses = append(statuses, ChannelHealthStatus{
			Name:               ch.Name(),
			Enabled:            ch.IsEnabled(),
			CircuitBreakerOpen: open,
			DisabledUntil:      disabledUntil,
		})
	}
	return statuses
}

func (s *service) Shutdown(ctx context.Context) error {
	slog.Info("shutting down notification service")
	s.shutdownMu.Lock()
	s.shutdownCancel()
	s.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("notification service shutdown complete")
		return nil
	case <-ctx.Done():
		slog.Warn("notification service shutdown timeout")
		return ctx.Err()
	}
}
