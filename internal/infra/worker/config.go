// Package worker holds the operational shell of the background worker:
// configuration, health endpoints, metrics, and the metrics server.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"entryhub/pkg/config"
)

// Config controls the worker's cron schedules and operational limits.
type Config struct {
	// CrawlSchedule is the five-field cron expression for the feed crawl job.
	CrawlSchedule string

	// EnrichSchedule is the cron expression for the enrichment backlog pass.
	EnrichSchedule string

	// Timezone is the IANA timezone the schedules are evaluated in.
	Timezone string

	// NotifyMaxConcurrent bounds concurrent notification deliveries.
	NotifyMaxConcurrent int

	// CrawlTimeout cancels a crawl run that takes too long.
	CrawlTimeout time.Duration

	// EnrichTimeout cancels an enrichment pass that takes too long.
	EnrichTimeout time.Duration

	// HealthPort serves the liveness/readiness endpoints.
	HealthPort int

	// MetricsPort serves the Prometheus scrape endpoint.
	MetricsPort int
}

func DefaultConfig() Config {
	return Config{
		CrawlSchedule:       "30 5 * * *",
		EnrichSchedule:      "*/15 * * * *",
		Timezone:            "UTC",
		NotifyMaxConcurrent: 10,
		CrawlTimeout:        30 * time.Minute,
		EnrichTimeout:       15 * time.Minute,
		HealthPort:          9091,
		MetricsPort:         9092,
	}
}

// Validate collects every violation rather than stopping at the first.
func (c *Config) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CrawlSchedule); err != nil {
		errs = append(errs, fmt.Errorf("crawl schedule: %w", err))
	}
	if err := config.ValidateCronSchedule(c.EnrichSchedule); err != nil {
		errs = append(errs, fmt.Errorf("enrich schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.CrawlTimeout); err != nil {
		errs = append(errs, fmt.Errorf("crawl timeout: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.EnrichTimeout); err != nil {
		errs = append(errs, fmt.Errorf("enrich timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfig reads the worker configuration from the environment. The
// strategy is fail-open: a field that does not validate falls back to its
// default with a warning, so a typo in one variable never keeps the worker
// down.
func LoadConfig(logger *slog.Logger) Config {
	defaults := DefaultConfig()
	cfg := Config{
		CrawlSchedule:       config.GetEnvString("CRAWL_SCHEDULE", defaults.CrawlSchedule),
		EnrichSchedule:      config.GetEnvString("ENRICH_SCHEDULE", defaults.EnrichSchedule),
		Timezone:            config.GetEnvString("WORKER_TIMEZONE", defaults.Timezone),
		NotifyMaxConcurrent: config.GetEnvInt("NOTIFY_MAX_CONCURRENT", defaults.NotifyMaxConcurrent),
		CrawlTimeout:        config.GetEnvDuration("CRAWL_TIMEOUT", defaults.CrawlTimeout),
		EnrichTimeout:       config.GetEnvDuration("ENRICH_TIMEOUT", defaults.EnrichTimeout),
		HealthPort:          config.GetEnvInt("WORKER_HEALTH_PORT", defaults.HealthPort),
		MetricsPort:         config.GetEnvInt("WORKER_METRICS_PORT", defaults.MetricsPort),
	}

	fallback := func(field string, err error, reset func()) {
		if err == nil {
			return
		}
		reset()
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.Any("error", err))
	}

	fallback("crawl_schedule", config.ValidateCronSchedule(cfg.CrawlSchedule),
		func() { cfg.CrawlSchedule = defaults.CrawlSchedule })
	fallback("enrich_schedule", config.ValidateCronSchedule(cfg.EnrichSchedule),
		func() { cfg.EnrichSchedule = defaults.EnrichSchedule })
	fallback("timezone", config.ValidateTimezone(cfg.Timezone),
		func() { cfg.Timezone = defaults.Timezone })
	fallback("notify_max_concurrent", config.ValidateIntRange(cfg.NotifyMaxConcurrent, 1, 50),
		func() { cfg.NotifyMaxConcurrent = defaults.NotifyMaxConcurrent })
	fallback("crawl_timeout", config.ValidatePositiveDuration(cfg.CrawlTimeout),
		func() { cfg.CrawlTimeout = defaults.CrawlTimeout })
	fallback("enrich_timeout", config.ValidatePositiveDuration(cfg.EnrichTimeout),
		func() { cfg.EnrichTimeout = defaults.EnrichTimeout })
	fallback("health_port", config.ValidateIntRange(cfg.HealthPort, 1024, 65535),
		func() { cfg.HealthPort = defaults.HealthPort })
	fallback("metrics_port", config.ValidateIntRange(cfg.MetricsPort, 1024, 65535),
		func() { cfg.MetricsPort = defaults.MetricsPort })

	return cfg
}
