package annotator

import (
	"context"

	"entryhub/internal/domain/entity"
)

// NoOp returns empty annotations and neutral sentiment. Useful for
// development and tests when no NLP provider is configured.
type NoOp struct{}

func NewNoOp() *NoOp {
	return &NoOp{}
}

func (n *NoOp) Annotate(_ context.Context, _ string) ([]entity.Annotation, error) {
	return []entity.Annotation{}, nil
}

func (n *NoOp) Sentiment(_ context.Context, _ string) (*entity.Sentiment, error) {
	return &entity.Sentiment{Score: 0, Type: "neutral"}, nil
}
