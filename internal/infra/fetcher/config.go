package fetcher

import (
	"fmt"
	"time"

	"entryhub/pkg/config"
)

// Config controls content fetching: security limits, timeouts, and the
// threshold below which a feed body is considered too thin.
type Config struct {
	// Enabled toggles content fetching without a redeploy. When false the
	// feed body is always used directly.
	Enabled bool

	// Threshold is the minimum feed body length in characters. Bodies at or
	// above it skip the fetch.
	Threshold int

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// Parallelism caps concurrent fetches during a crawl.
	Parallelism int

	// MaxBodySize rejects responses larger than this many bytes. Enforced
	// while reading, not from the Content-Length header.
	MaxBodySize int64

	// MaxRedirects bounds the redirect chain. Every redirect target is
	// re-validated.
	MaxRedirects int

	// DenyPrivateIPs blocks URLs resolving to private, loopback, or
	// link-local addresses. Keep enabled outside of tests.
	DenyPrivateIPs bool
}

func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Threshold:      1500,
		Timeout:        10 * time.Second,
		Parallelism:    10,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// Validate rejects configurations that would be unsafe or useless.
func (c *Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.Parallelism < 1 || c.Parallelism > 50 {
		return fmt.Errorf("parallelism must be between 1 and 50, got %d", c.Parallelism)
	}
	minBody, maxBody := int64(1024), int64(100*1024*1024)
	if c.MaxBodySize < minBody || c.MaxBodySize > maxBody {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBody, maxBody, c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}

// LoadConfig reads the configuration from CONTENT_FETCH_* environment
// variables, falling back to defaults, and validates the result.
func LoadConfig() (Config, error) {
	defaults := DefaultConfig()

	cfg := Config{
		Enabled:        config.GetEnvBool("CONTENT_FETCH_ENABLED", defaults.Enabled),
		Threshold:      config.GetEnvInt("CONTENT_FETCH_THRESHOLD", defaults.Threshold),
		Timeout:        config.GetEnvDuration("CONTENT_FETCH_TIMEOUT", defaults.Timeout),
		Parallelism:    config.GetEnvInt("CONTENT_FETCH_PARALLELISM", defaults.Parallelism),
		MaxBodySize:    int64(config.GetEnvInt("CONTENT_FETCH_MAX_BODY_SIZE", int(defaults.MaxBodySize))),
		MaxRedirects:   config.GetEnvInt("CONTENT_FETCH_MAX_REDIRECTS", defaults.MaxRedirects),
		DenyPrivateIPs: config.GetEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", defaults.DenyPrivateIPs),
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("content fetch configuration: %w", err)
	}
	return cfg, nil
}
