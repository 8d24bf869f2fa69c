package worker

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks scheduled job execution. The job label separates the crawl
// job from the enrichment pass.
type Metrics struct {
	JobRunsTotal         *prometheus.CounterVec
	JobDurationSeconds   *prometheus.HistogramVec
	JobLastSuccess       *prometheus.GaugeVec
	FeedsProcessedTotal  prometheus.Counter
	EntriesEnrichedTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of scheduled job runs by job and status.",
		}, []string{"job", "status"}),

		JobDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of scheduled job execution in seconds.",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}, []string{"job"}),

		JobLastSuccess: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run per job.",
		}, []string{"job"}),

		FeedsProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_feeds_processed_total",
			Help: "Total number of feeds processed across all crawl runs.",
		}),

		EntriesEnrichedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_entries_enriched_total",
			Help: "Total number of entries enriched across all passes.",
		}),
	}
}

func (m *Metrics) RecordJobRun(job, status string) {
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
}

func (m *Metrics) RecordJobDuration(job string, d time.Duration) {
	m.JobDurationSeconds.WithLabelValues(job).Observe(d.Seconds())
}

func (m *Metrics) RecordLastSuccess(job string) {
	m.JobLastSuccess.WithLabelValues(job).SetToCurrentTime()
}

func (m *Metrics) RecordFeedsProcessed(count int) {
	m.FeedsProcessedTotal.Add(float64(count))
}

func (m *Metrics) RecordEntriesEnriched(count int64) {
	m.EntriesEnrichedTotal.Add(float64(count))
}

// MetricsServer exposes the Prometheus scrape endpoint on its own port so
// the worker can be scraped without an API server.
type MetricsServer struct {
	addr   string
	logger *slog.Logger
	server *http.Server
}

func NewMetricsServer(addr string, logger *slog.Logger) *MetricsServer {
	return &MetricsServer{addr: addr, logger: logger}
}

// Start runs the server until the context is cancelled.
func (s *MetricsServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("metrics server starting", slog.String("addr", s.addr))
		if err := s.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("metrics server shutting down")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return http.ErrServerClosed

	case err := <-errChan:
		return err
	}
}
