package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1500, cfg.Threshold)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.Parallelism)
	assert.True(t, cfg.DenyPrivateIPs)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero threshold always fetches", func(c *Config) { c.Threshold = 0 }, true},
		{"negative threshold", func(c *Config) { c.Threshold = -1 }, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, false},
		{"parallelism too high", func(c *Config) { c.Parallelism = 51 }, false},
		{"parallelism zero", func(c *Config) { c.Parallelism = 0 }, false},
		{"body size too small", func(c *Config) { c.MaxBodySize = 512 }, false},
		{"redirects too many", func(c *Config) { c.MaxRedirects = 11 }, false},
		{"no redirects allowed", func(c *Config) { c.MaxRedirects = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("CONTENT_FETCH_ENABLED", "false")
	t.Setenv("CONTENT_FETCH_THRESHOLD", "2000")
	t.Setenv("CONTENT_FETCH_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 2000, cfg.Threshold)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	// Unset variables keep their defaults.
	assert.Equal(t, 10, cfg.Parallelism)
}

func TestLoadConfig_InvalidValuesFailValidation(t *testing.T) {
	t.Setenv("CONTENT_FETCH_PARALLELISM", "100")

	_, err := LoadConfig()
	assert.Error(t, err)
}
