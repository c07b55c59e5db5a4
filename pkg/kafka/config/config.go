// Package kafka_config loads the event producer settings from the
// environment.
package kafka_config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

var compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}

type Config struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`

	MaxAttempts  int           `envconfig:"KAFKA_MAX_ATTEMPTS" default:"3"`
	BatchTimeout time.Duration `envconfig:"KAFKA_BATCH_TIMEOUT" default:"10ms"`
	WriteTimeout time.Duration `envconfig:"KAFKA_WRITE_TIMEOUT" default:"10s"`
	RequiredAcks int           `envconfig:"KAFKA_REQUIRED_ACKS" default:"-1"` // -1 all replicas, 0 none, 1 leader
	Compression  string        `envconfig:"KAFKA_COMPRESSION" default:"snappy"`

	// DLQTopic receives events that could not be written to their topic.
	DLQTopic string `envconfig:"KAFKA_DLQ_TOPIC"`

	LogMessages bool `envconfig:"KAFKA_LOG_MESSAGES" default:"true"`
}

// Load returns a nil config when KAFKA_BROKERS lists no broker.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("load kafka config: %w", err)
	}

	cfg.Brokers = ParseBrokers(strings.Join(cfg.Brokers, ","))
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	cfg.Compression = strings.ToLower(cfg.Compression)

	return cfg, nil
}

func ParseBrokers(raw string) []string {
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func (cfg *Config) Validate() error {
	var errs []error

	if len(cfg.Brokers) == 0 {
		errs = append(errs, errors.New("at least one Kafka broker is required"))
	}
	if cfg.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("MaxAttempts must be positive, got: %d", cfg.MaxAttempts))
	}
	if cfg.BatchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("BatchTimeout must be positive, got: %s", cfg.BatchTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if !validCompression(cfg.Compression) {
		errs = append(errs, fmt.Errorf("Compression must be one of %v, got: %s", compressions, cfg.Compression))
	}
	if cfg.RequiredAcks < -1 || cfg.RequiredAcks > 1 {
		errs = append(errs, fmt.Errorf("RequiredAcks must be -1, 0 or 1, got: %d", cfg.RequiredAcks))
	}

	if len(errs) > 0 {
		return fmt.Errorf("kafka configuration invalid: %w", errors.Join(errs...))
	}
	return nil
}

func validCompression(name string) bool {
	for _, c := range compressions {
		if c == name {
			return true
		}
	}
	return false
}
