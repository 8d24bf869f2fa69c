// Package notifier provides the delivery channels for entry lifecycle
// events. The webhook channel posts to the owning feed's configured endpoint;
// the AMQP channel publishes to a message exchange for fan-out consumers.
// A no-op channel exists for when notifications are disabled.
package notifier

import (
	"context"

	"entryhub/internal/domain/entity"
)

// Notifier is a single delivery channel for entry lifecycle events.
// Implementations handle rate limiting, bounded retries, and error logging
// internally; a returned error means delivery failed for good.
type Notifier interface {
	// Notify delivers one event. eventType is "created", "updated", or
	// "deleted"; feed is the entry's owning feed and scopes the delivery
	// target.
	Notify(ctx context.Context, eventType string, entry *entity.Entry, feed *entity.Feed) error
}
