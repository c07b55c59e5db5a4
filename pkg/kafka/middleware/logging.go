package kafka_middleware

import (
	"context"
	"time"

	"smartparking/pkg/kafka"
	"smartparking/pkg/logger"
)

// LoggingProducerMiddleware logs the outcome of every publish with its
// event identity and latency.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.PublishFunc) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.Header(kafka.HeaderEventID),
			"event_type", msg.Header(kafka.HeaderEventType),
			"correlation_id", msg.Header(kafka.HeaderCorrelationID),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			log.ErrorContext(ctx, "Failed to publish event", append(attrs, "error", err)...)
			return err
		}

		log.InfoContext(ctx, "Published event", attrs...)
		return nil
	}
}
