package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys published by the booking core. UI layers subscribe instead of
// holding authoritative state.
const (
	KeyBookingCreated   = "booking.created"
	KeyBookingConfirmed = "booking.confirmed"
	KeyBookingExpired   = "booking.expired"
	KeyBookingRejected  = "booking.rejected"
	KeyCancelRequested  = "booking.cancel_requested"
	KeyBookingCancelled = "booking.cancelled"
	KeyCancelRejected   = "booking.cancel_rejected"
)

// Envelope wraps every published event.
type Envelope struct {
	EventID    string      `json:"event_id"`
	Key        string      `json:"key"`
	OccurredAt string      `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// Publisher pushes booking/cancellation state changes to subscribers.
type Publisher interface {
	Publish(ctx context.Context, key string, data interface{}) error
	Close() error
}

// AMQPPublisher publishes JSON envelopes to a topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, key string, data interface{}) error {
	b, err := json.Marshal(Envelope{
		EventID:    uuid.NewString(),
		Key:        key,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		Data:       data,
	})
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher drops events. Used when no broker is configured and in tests.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, key string, data interface{}) error { return nil }
func (NoopPublisher) Close() error                                                    { return nil }
