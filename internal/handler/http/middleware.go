// Package http wires the API surface: routing, middleware, and health.
package http

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"entryhub/internal/handler/http/requestid"
	"entryhub/internal/handler/http/respond"
	"entryhub/internal/observability/logging"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging logs one line per request with method, path, status, duration and
// the request ID assigned by the requestid middleware.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			reqLogger := logger.With(
				slog.String("request_id", requestid.FromContext(r.Context())),
			)
			ctx := logging.WithLogger(r.Context(), reqLogger)

			next.ServeHTTP(rec, r.WithContext(ctx))

			reqLogger.Info("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recover converts panics into 500 responses so a single bad request cannot
// take the server down.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)
					respond.SafeError(w, http.StatusInternalServerError,
						fmt.Errorf("panic: %v", rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LimitRequestBody caps request body size. Oversized bodies fail inside the
// handler's read with a *http.MaxBytesError.
func LimitRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter applies a per-IP sliding-window limit.
type RateLimiter struct {
	windows  sync.Map // ip -> *requestWindow
	limit    int
	interval time.Duration
}

type requestWindow struct {
	mu         sync.Mutex
	timestamps []time.Time
}

func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{limit: limit, interval: interval}
	go rl.periodicCleanup()
	return rl
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !rl.allow(ip) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.interval.Seconds())))
			respond.JSON(w, http.StatusTooManyRequests,
				map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	v, _ := rl.windows.LoadOrStore(ip, &requestWindow{})
	window := v.(*requestWindow)

	window.mu.Lock()
	defer window.mu.Unlock()

	cutoff := time.Now().Add(-rl.interval)
	kept := window.timestamps[:0]
	for _, ts := range window.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	window.timestamps = kept

	if len(window.timestamps) >= rl.limit {
		return false
	}
	window.timestamps = append(window.timestamps, time.Now())
	return true
}

// periodicCleanup drops windows that have gone quiet so the map does not
// grow with every IP ever seen.
func (rl *RateLimiter) periodicCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-rl.interval)
		rl.windows.Range(func(key, value any) bool {
			window := value.(*requestWindow)
			window.mu.Lock()
			stale := len(window.timestamps) == 0 ||
				window.timestamps[len(window.timestamps)-1].Before(cutoff)
			window.mu.Unlock()
			if stale {
				rl.windows.Delete(key)
			}
			return true
		})
	}
}

// extractIP prefers proxy headers over the raw remote address.
func extractIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Chain applies middlewares right to left so the first listed runs outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
