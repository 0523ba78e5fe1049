// internal/events/rabbitmq.publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitPublisher struct {
	conn   *amqp.Connection // nil when built around a test channel
	chn    Channel
	queue  string
	logger *slog.Logger
}

// NewRabbitPublisher dials the broker, opens a channel and declares the
// durable queue events are routed to.
func NewRabbitPublisher(url, queue string, logger *slog.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	p, err := NewRabbitPublisherWithChannel(chn, queue, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewRabbitPublisherWithChannel allows injecting a test channel.
func NewRabbitPublisherWithChannel(chn Channel, queue string, logger *slog.Logger) (*RabbitPublisher, error) {
	_, err := chn.QueueDeclare(
		queue, //name of queue
		true,  //durable
		false, //delete when unused
		false, //exclusive
		false, //no-wait
		nil,   //arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &RabbitPublisher{chn: chn, queue: queue, logger: logger}, nil
}

// Publish sends the JSON encoded value to the queue through the default exchange.
func (r *RabbitPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal rabbitmq body: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: key,
		Body:          body,
	}
	if evt, ok := value.(Event); ok {
		msg.MessageId = evt.ID.String()
		msg.Type = evt.Type
		msg.Timestamp = evt.OccurredAt
	}
	if err := r.chn.PublishWithContext(ctx, "", r.queue, false, false, msg); err != nil {
		r.logger.Error("rabbitmq publish failed", "queue", r.queue, "key", key, "error", err)
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Close cleans up the channel, then the connection.
func (r *RabbitPublisher) Close() error {
	if err := r.chn.Close(); err != nil {
		return err
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
