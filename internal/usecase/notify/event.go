// Package notify dispatches entry lifecycle events to the configured
// delivery channels. Dispatch is fire-and-forget: delivery runs on
// background goroutines through a bounded worker pool, failures are logged
// and metriced, and the triggering mutation never observes them.
package notify

import (
	"time"

	"entryhub/internal/domain/entity"
)

// EventType identifies the lifecycle transition that triggered an event.
type EventType string

const (
	EntryCreated EventType = "created"
	EntryUpdated EventType = "updated"
	EntryDeleted EventType = "deleted"
)

// Event is one observed lifecycle transition. Entry carries the full current
// state; Feed is the owning feed and scopes delivery.
type Event struct {
	Type       EventType
	Entry      *entity.Entry
	Feed       *entity.Feed
	OccurredAt time.Time
}

func (e Event) Valid() bool {
	switch e.Type {
	case EntryCreated, EntryUpdated, EntryDeleted:
	default:
		return false
	}
	return e.Entry != nil && e.Feed != nil
}
