package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"entryhub/internal/domain/entity"
	"entryhub/internal/observability/metrics"
)

// AMQPConfig contains configuration for queue-based event publishing.
type AMQPConfig struct {
	Enabled  bool
	URL      string
	Exchange string
}

// amqpEnvelope is the message body published to the exchange. It carries the
// feed alongside the entry so consumers do not need a lookup.
type amqpEnvelope struct {
	Event      string        `json:"event"`
	Entry      *entity.Entry `json:"entry"`
	Feed       *entity.Feed  `json:"feed"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// AMQPNotifier publishes lifecycle events to a durable direct exchange,
// routing key per event type, so consumers can bind to just the transitions
// they care about.
type AMQPNotifier struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPNotifier(config AMQPConfig) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		config.Exchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}

	slog.Info("initialized amqp notifier",
		slog.String("exchange", config.Exchange))

	return &AMQPNotifier{
		conn:     conn,
		channel:  channel,
		exchange: config.Exchange,
	}, nil
}

// Notify publishes one persistent message. Implements the Notifier interface.
func (a *AMQPNotifier) Notify(ctx context.Context, eventType string, entry *entity.Entry, feed *entity.Feed) error {
	body, err := json.Marshal(amqpEnvelope{
		Event:      eventType,
		Entry:      entry,
		Feed:       feed,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal amqp envelope: %w", err)
	}

	start := time.Now()
	err = a.channel.PublishWithContext(ctx,
		a.exchange,
		eventType, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		metrics.RecordNotificationFailure("amqp", time.Since(start))
		slog.ErrorContext(ctx, "amqp publish failed",
			slog.String("event", eventType),
			slog.Int64("entry_id", entry.ID),
			slog.Any("error", err))
		return fmt.Errorf("amqp publish: %w", err)
	}

	metrics.RecordNotificationSuccess("amqp", time.Since(start))
	return nil
}

// Close releases the channel and connection.
func (a *AMQPNotifier) Close() error {
	if err := a.channel.Close(); err != nil {
		return fmt.Errorf("amqp channel close: %w", err)
	}
	return a.conn.Close()
}
