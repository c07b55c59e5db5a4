// Package events publishes domain events about reservations and payments.
package events

import (
	"context"
	"fmt"
	"time"

	"smartparking/pkg/kafka"
	kafka_config "smartparking/pkg/kafka/config"
	kafka_middleware "smartparking/pkg/kafka/middleware"
	"smartparking/pkg/logger"
	"smartparking/pkg/middleware"
)

const (
	TypeReservationCreated = "reservation.created"
	TypePaymentInitiated   = "payment.initiated"
	TypePaymentConfirmed   = "payment.confirmed"

	SchemaVersion = "1"
)

type Event struct {
	Type       string
	Key        string
	Payload    any
	OccurredAt time.Time
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops every event.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
func (nopPublisher) Close() error                         { return nil }

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

// NewKafkaPublisher publishes events to producer's topic, keyed by Event.Key.
func NewKafkaPublisher(producer *kafka.Producer, source string) Publisher {
	return &kafkaPublisher{producer: producer, source: source}
}

// NewPublisher builds a Kafka-backed publisher for topic, or a no-op one when
// cfg is nil.
func NewPublisher(cfg *kafka_config.Config, topic, source string, log *logger.Logger) (Publisher, error) {
	if cfg == nil {
		log.Info("Kafka disabled, domain events will not be published", "topic", topic)
		return NewNopPublisher(), nil
	}

	producer, err := kafka.NewProducer(cfg, topic, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer for %s: %w", topic, err)
	}
	if cfg.LogMessages {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
	}

	log.Info("Kafka publisher configured", "topic", topic, "brokers", cfg.Brokers)
	return NewKafkaPublisher(producer, source), nil
}

// Publish stamps the event with the request id found on ctx, so events can
// be traced back to the HTTP call that caused them.
func (p *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := kafka.Encode(kafka.Envelope{
		Type:          event.Type,
		Key:           event.Key,
		Source:        p.source,
		SchemaVersion: SchemaVersion,
		CorrelationID: middleware.RequestIDFromContext(ctx),
		OccurredAt:    event.OccurredAt,
		Payload:       event.Payload,
	})
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// Recorder is an in-memory Publisher for tests.
type Recorder struct {
	events chan Event
	Err    error
}

func NewRecorder(capacity int) *Recorder {
	return &Recorder{events: make(chan Event, capacity)}
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	select {
	case r.events <- event:
	default:
	}
	return r.Err
}

func (r *Recorder) Close() error { return nil }

// Events returns the channel published events are delivered on.
func (r *Recorder) Events() <-chan Event {
	return r.events
}
