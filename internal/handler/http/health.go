package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"entryhub/internal/handler/http/respond"
	"entryhub/internal/usecase/notify"
)

// HealthHandler reports liveness plus dependency detail for /healthz.
type HealthHandler struct {
	db     *sql.DB
	notify notify.Service
}

func NewHealthHandler(db *sql.DB, notifyService notify.Service) *HealthHandler {
	return &HealthHandler{db: db, notify: notifyService}
}

type healthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]checkResult `json:"checks"`
}

type checkResult struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ServeHTTP returns 200 when all checks pass and 503 otherwise. A degraded
// connection pool still reports 200 so load balancers keep routing.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := healthStatus{
		Status: "ok",
		Checks: map[string]checkResult{},
	}

	dbCheck := h.checkDatabase(ctx)
	status.Checks["database"] = dbCheck
	if dbCheck.Status == "down" {
		status.Status = "down"
	}

	if h.notify != nil {
		status.Checks["notifications"] = h.checkNotifications()
	}

	code := http.StatusOK
	if status.Status == "down" {
		code = http.StatusServiceUnavailable
	}
	respond.JSON(w, code, status)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) checkResult {
	if err := h.db.PingContext(ctx); err != nil {
		return checkResult{
			Status:  "down",
			Details: map[string]any{"error": "connection failed"},
		}
	}

	stats := h.db.Stats()
	result := checkResult{
		Status: "ok",
		Details: map[string]any{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
			"max_open":         stats.MaxOpenConnections,
		},
	}

	if stats.MaxOpenConnections == 0 ||
		float64(stats.OpenConnections) >= 0.8*float64(stats.MaxOpenConnections) {
		result.Status = "degraded"
	}
	return result
}

func (h *HealthHandler) checkNotifications() checkResult {
	channels := h.notify.GetChannelHealth()
	details := make(map[string]any, len(channels))
	status := "ok"

	for _, ch := range channels {
		state := "ok"
		switch {
		case !ch.Enabled:
			state = "disabled"
		case ch.CircuitBreakerOpen:
			state = "circuit open"
			status = "degraded"
		}
		details[ch.Name] = state
	}
	return checkResult{Status: status, Details: details}
}

// ReadyHandler reports whether the server can take traffic.
func ReadyHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
}

// LiveHandler answers as long as the process is serving.
func LiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
}
