// internal/events/publisher.go
package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Tanmoy095/pagos-api/internal/config"
)

// Publisher is the interface used by services to publish events.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// Noop drops every event. Used when EVENTS_BACKEND=none.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close() error                                       { return nil }

// NewPublisher builds the backend selected by cfg.Backend.
func NewPublisher(cfg config.EventsConfig, logger *slog.Logger) (Publisher, error) {
	switch cfg.Backend {
	case "", config.EventsBackendNone:
		return Noop{}, nil
	case config.EventsBackendKafka:
		if cfg.KafkaBroker == "" || cfg.KafkaTopic == "" {
			return nil, fmt.Errorf("kafka backend requires KAFKA_BROKER and KAFKA_TOPIC")
		}
		logger.Info("publishing events to kafka", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
		return NewKafkaProducer(cfg.KafkaBroker, cfg.KafkaTopic, logger), nil
	case config.EventsBackendRabbitMQ:
		logger.Info("publishing events to rabbitmq", "host", cfg.RabbitMQ.Host, "queue", cfg.RabbitMQ.Queue)
		return NewRabbitPublisher(cfg.RabbitMQ.URL(), cfg.RabbitMQ.Queue, logger)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}
