package kafka

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	kafka_config "smartparking/pkg/kafka/config"
	"smartparking/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

var (
	ErrProducerClosed = errors.New("kafka producer is closed")
	ErrEmptyKey       = errors.New("kafka message key is empty")
	ErrEmptyValue     = errors.New("kafka message value is empty")
)

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type PublishFunc func(ctx context.Context, msg Message) error

// ProducerMiddleware wraps every publish. Middleware registered first runs
// outermost.
type ProducerMiddleware func(ctx context.Context, msg Message, next PublishFunc) error

// Producer writes messages to a single topic. Messages that fail to write
// are copied to the dead letter topic when one is configured.
type Producer struct {
	topic     string
	writer    MessageWriter
	dlqTopic  string
	dlqWriter MessageWriter

	mu         sync.RWMutex
	middleware []ProducerMiddleware
	closed     bool
}

func NewProducer(cfg *kafka_config.Config, topic string, log *logger.Logger) (*Producer, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("kafka config is required")
	case len(cfg.Brokers) == 0:
		return nil, errors.New("at least one kafka broker is required")
	case topic == "":
		return nil, errors.New("kafka topic is required")
	}

	errorLogger := kafka.LoggerFunc(func(msg string, args ...any) {
		log.Error(fmt.Sprintf(msg, args...), "component", "kafka", "topic", topic)
	})
	newWriter := func(topic string, acks kafka.RequiredAcks) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: acks,
			Compression:  compression(cfg.Compression),
			MaxAttempts:  cfg.MaxAttempts,
			BatchTimeout: cfg.BatchTimeout,
			WriteTimeout: cfg.WriteTimeout,
			ErrorLogger:  errorLogger,
		}
	}

	var dlqWriter MessageWriter
	if cfg.DLQTopic != "" {
		dlqWriter = newWriter(cfg.DLQTopic, kafka.RequireAll)
	}

	return NewProducerWithWriters(topic, newWriter(topic, requiredAcks(cfg.RequiredAcks)), cfg.DLQTopic, dlqWriter), nil
}

func NewProducerWithWriters(topic string, writer MessageWriter, dlqTopic string, dlqWriter MessageWriter) *Producer {
	return &Producer{
		topic:     topic,
		writer:    writer,
		dlqTopic:  dlqTopic,
		dlqWriter: dlqWriter,
	}
}

func compression(name string) compress.Compression {
	switch name {
	case "none":
		return compress.None
	case "gzip":
		return compress.Gzip
	case "lz4":
		return compress.Lz4
	case "zstd":
		return compress.Zstd
	default:
		return compress.Snappy
	}
}

func requiredAcks(acks int) kafka.RequiredAcks {
	switch acks {
	case 0:
		return kafka.RequireNone
	case 1:
		return kafka.RequireOne
	default:
		return kafka.RequireAll
	}
}

func (p *Producer) Topic() string {
	return p.topic
}

func (p *Producer) Use(mw ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, mw)
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	closed := p.closed
	chain := p.middleware
	p.mu.RUnlock()

	switch {
	case closed:
		return ErrProducerClosed
	case msg.Key == "":
		return ErrEmptyKey
	case len(msg.Value) == 0:
		return ErrEmptyValue
	}
	if msg.Topic == "" {
		msg.Topic = p.topic
	}

	publish := PublishFunc(p.write)
	for i := len(chain) - 1; i >= 0; i-- {
		mw, next := chain[i], publish
		publish = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}
	return publish(ctx, msg)
}

func (p *Producer) write(ctx context.Context, msg Message) error {
	err := p.writer.WriteMessages(ctx, toKafkaMessage(msg))
	if err == nil || p.dlqWriter == nil {
		return err
	}

	dead := msg
	dead.Headers = maps.Clone(msg.Headers)
	if dead.Headers == nil {
		dead.Headers = make(map[string]string, 3)
	}
	dead.Headers[HeaderOriginalTopic] = p.topic
	dead.Headers[HeaderDLQError] = err.Error()
	dead.Headers[HeaderDLQFailedAt] = time.Now().UTC().Format(time.RFC3339)
	dead.Timestamp = time.Now()

	if dlqErr := p.dlqWriter.WriteMessages(ctx, toKafkaMessage(dead)); dlqErr != nil {
		return fmt.Errorf("dead letter write to %s failed: %v (original error: %w)", p.dlqTopic, dlqErr, err)
	}
	return err
}

func toKafkaMessage(msg Message) kafka.Message {
	out := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  msg.Timestamp,
	}
	for k, v := range msg.Headers {
		out.Headers = append(out.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

// Close flushes pending writes. Calling it more than once is a no-op.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.writer != nil {
		errs = append(errs, p.writer.Close())
	}
	if p.dlqWriter != nil {
		errs = append(errs, p.dlqWriter.Close())
	}
	return errors.Join(errs...)
}
