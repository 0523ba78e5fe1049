package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	skafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanmoy095/pagos-api/internal/config"
	"github.com/Tanmoy095/pagos-api/internal/logging"
)

type fakeWriter struct {
	msgs   []skafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...skafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaProducerPublishesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaProducerWithWriter(w, logging.Discard())

	evt := New(PreferenceCreated, PreferenceCreatedPayload{PreferenceID: 7, ClientID: 3})
	require.NoError(t, p.Publish(context.Background(), "7", evt))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "7", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, PreferenceCreated, string(msg.Headers[0].Value))

	var decoded struct {
		ID      string         `json:"id"`
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt.ID.String(), decoded.ID)
	assert.Equal(t, PreferenceCreated, decoded.Type)
	assert.EqualValues(t, 7, decoded.Payload["id_preferencia"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaProducerWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewKafkaProducerWithWriter(w, logging.Discard())

	err := p.Publish(context.Background(), "k", map[string]string{"a": "b"})
	assert.ErrorIs(t, err, w.err)
}

type fakeChannel struct {
	declared  string
	durable   bool
	published []amqp.Publishing
	routing   []string
	closed    bool
}

func (c *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.declared, c.durable = name, durable
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	c.routing = append(c.routing, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestRabbitPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewRabbitPublisherWithChannel(ch, "pagos_events", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "pagos_events", ch.declared)
	assert.True(t, ch.durable)

	evt := New(PreferencePaid, PreferencePaidPayload{PreferenceID: 9})
	require.NoError(t, p.Publish(context.Background(), "9", evt))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, []string{"pagos_events"}, ch.routing)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "9", msg.CorrelationId)
	assert.Equal(t, evt.ID.String(), msg.MessageId)
	assert.Equal(t, PreferencePaid, msg.Type)
	assert.Equal(t, "application/json", msg.ContentType)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher(config.EventsConfig{Backend: config.EventsBackendNone}, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)

	_, err = NewPublisher(config.EventsConfig{Backend: config.EventsBackendKafka}, logging.Discard())
	assert.Error(t, err, "kafka without broker")

	_, err = NewPublisher(config.EventsConfig{Backend: "sns"}, logging.Discard())
	assert.Error(t, err)

	p, err = NewPublisher(config.EventsConfig{Backend: config.EventsBackendKafka, KafkaBroker: "localhost:9092", KafkaTopic: "t"}, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &KafkaProducer{}, p)
}
