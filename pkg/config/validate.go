package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidatePositiveDuration validates that a duration is greater than zero.
// Commonly used for timeouts, intervals, and windows where a non-zero value is
// required.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

// ValidateIntRange validates that v is within [min, max] inclusive.
func ValidateIntRange(v, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if v < min || v > max {
		return fmt.Errorf("value %d out of range [%d, %d]", v, min, max)
	}
	return nil
}

// ValidateCronSchedule validates a standard five-field cron expression.
func ValidateCronSchedule(expr string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	return nil
}

// ValidateTimezone validates that name is a recognized IANA timezone.
func ValidateTimezone(name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return nil
}
