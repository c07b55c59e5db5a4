package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
	HeaderOccurredAt    = "occurred-at"

	HeaderOriginalTopic = "dlq-original-topic"
	HeaderDLQError      = "dlq-error"
	HeaderDLQFailedAt   = "dlq-failed-at"
)

// Message is a keyed JSON record. Key selects the partition, so every event
// for one user lands on the same partition in order.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Topic     string
	Timestamp time.Time
}

func (m Message) Header(name string) string {
	return m.Headers[name]
}

func (m Message) DecodeValue(v any) error {
	return json.Unmarshal(m.Value, v)
}

// Envelope describes a domain event before it is encoded onto the wire.
// ID and OccurredAt are filled in when left empty.
type Envelope struct {
	ID            string
	Type          string
	Key           string
	Source        string
	SchemaVersion string
	CorrelationID string
	OccurredAt    time.Time
	Payload       any
}

// Encode renders e as a Message with the payload JSON-encoded and the
// envelope fields carried as headers.
func Encode(e Envelope) (Message, error) {
	value, err := json.Marshal(e.Payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", e.Type, err)
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	occurredAt := e.OccurredAt.UTC()
	if e.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	headers := map[string]string{
		HeaderEventID:    e.ID,
		HeaderEventType:  e.Type,
		HeaderOccurredAt: occurredAt.Format(time.RFC3339),
	}
	if e.Source != "" {
		headers[HeaderSource] = e.Source
	}
	if e.SchemaVersion != "" {
		headers[HeaderSchemaVersion] = e.SchemaVersion
	}
	if e.CorrelationID != "" {
		headers[HeaderCorrelationID] = e.CorrelationID
	}

	return Message{
		Key:       e.Key,
		Value:     value,
		Headers:   headers,
		Timestamp: occurredAt,
	}, nil
}
