package notify

import "errors"

var (
	// ErrChannelDisabled indicates Send was called on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidEvent indicates the event is missing its type, entry, or feed.
	ErrInvalidEvent = errors.New("invalid notification event")
)
