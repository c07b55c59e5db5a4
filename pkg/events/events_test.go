package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"smartparking/pkg/kafka"
	"smartparking/pkg/logger"

	kafkago "github.com/segmentio/kafka-go"
)

type captureWriter struct {
	mu       sync.Mutex
	messages []kafkago.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	writer := &captureWriter{}
	producer := kafka.NewProducerWithWriters("parking.payments", writer, "", nil)
	publisher := NewKafkaPublisher(producer, "parking")

	occurred := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	err := publisher.Publish(context.Background(), Event{
		Type:       TypePaymentConfirmed,
		Key:        "u1",
		Payload:    map[string]any{"paymentId": "abc"},
		OccurredAt: occurred,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(writer.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(writer.messages))
	}
	headers := map[string]string{}
	for _, h := range writer.messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers[kafka.HeaderEventType] != TypePaymentConfirmed {
		t.Errorf("expected event type %s, got %s", TypePaymentConfirmed, headers[kafka.HeaderEventType])
	}
	if headers[kafka.HeaderSource] != "parking" {
		t.Errorf("expected source parking, got %s", headers[kafka.HeaderSource])
	}
	if headers[kafka.HeaderOccurredAt] != "2026-10-19T12:00:00Z" {
		t.Errorf("expected occurred-at timestamp, got %s", headers[kafka.HeaderOccurredAt])
	}
	if string(writer.messages[0].Value) != `{"paymentId":"abc"}` {
		t.Errorf("unexpected payload %s", writer.messages[0].Value)
	}
}

func TestKafkaPublisher_CarriesRequestID(t *testing.T) {
	writer := &captureWriter{}
	publisher := NewKafkaPublisher(kafka.NewProducerWithWriters("parking.reservations", writer, "", nil), "parking")

	ctx := logger.ContextWithRequestID(context.Background(), "req-42")
	if err := publisher.Publish(ctx, Event{Type: TypeReservationCreated, Key: "u1", Payload: map[string]int{"slotNumber": 3}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, h := range writer.messages[0].Headers {
		if h.Key == kafka.HeaderCorrelationID {
			if string(h.Value) != "req-42" {
				t.Errorf("expected correlation id req-42, got %s", h.Value)
			}
			return
		}
	}
	t.Error("expected correlation id header")
}

func TestNewPublisher_NilConfigIsNop(t *testing.T) {
	publisher, err := NewPublisher(nil, "parking.payments", "parking", logger.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := publisher.Publish(context.Background(), Event{Type: TypePaymentInitiated}); err != nil {
		t.Errorf("nop publisher should never fail, got %v", err)
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder(1)
	_ = rec.Publish(context.Background(), Event{Type: TypeReservationCreated, Key: "u1"})

	select {
	case ev := <-rec.Events():
		if ev.Type != TypeReservationCreated {
			t.Errorf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected recorded event")
	}
}
