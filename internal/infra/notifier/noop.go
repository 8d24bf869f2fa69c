package notifier

import (
	"context"

	"entryhub/internal/domain/entity"
)

// NoOp discards all events. Used when notifications are disabled.
type NoOp struct{}

func NewNoOp() *NoOp {
	return &NoOp{}
}

func (n *NoOp) Notify(_ context.Context, _ string, _ *entity.Entry, _ *entity.Feed) error {
	return nil
}
