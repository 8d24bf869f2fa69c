package notify

import (
	"context"

	"entryhub/internal/infra/notifier"
)

// Channel is one delivery channel for lifecycle events. Implementations
// handle their own rate limiting and bounded retries; all methods must be
// safe for concurrent use.
type Channel interface {
	// Name returns the channel identifier used for logging and metrics.
	Name() string

	// IsEnabled reports whether the channel should receive events.
	IsEnabled() bool

	// Send delivers one event. A non-nil error means delivery failed after
	// the channel's own retry policy was exhausted.
	Send(ctx context.Context, event Event) error
}

// notifierChannel adapts an infra notifier into a Channel.
type notifierChannel struct {
	name     string
	enabled  bool
	notifier notifier.Notifier
}

// NewChannel wraps a notifier as a named dispatch channel.
func NewChannel(name string, enabled bool, n notifier.Notifier) Channel {
	return &notifierChannel{name: name, enabled: enabled, notifier: n}
}

func (c *notifierChannel) Name() string    { return c.name }
func (c *notifierChannel) IsEnabled() bool { return c.enabled }

func (c *notifierChannel) Send(ctx context.Context, event Event) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	return c.notifier.Notify(ctx, string(event.Type), event.Entry, event.Feed)
}
