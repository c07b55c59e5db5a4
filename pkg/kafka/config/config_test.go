package kafka_config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantNil bool
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "disabled without brokers",
			env:     map[string]string{"KAFKA_BROKERS": " , "},
			wantNil: true,
		},
		{
			name: "defaults",
			env:  map[string]string{"KAFKA_BROKERS": "kafka-1:9092, kafka-2:9092"},
			check: func(t *testing.T, cfg *Config) {
				if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "kafka-2:9092" {
					t.Errorf("unexpected brokers %v", cfg.Brokers)
				}
				if cfg.Compression != "snappy" || cfg.RequiredAcks != -1 || cfg.MaxAttempts != 3 || !cfg.LogMessages {
					t.Errorf("expected defaults, got %+v", cfg)
				}
				if err := cfg.Validate(); err != nil {
					t.Errorf("expected defaults to validate, got %v", err)
				}
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"KAFKA_BROKERS":       "kafka:9092",
				"KAFKA_COMPRESSION":   "ZSTD",
				"KAFKA_WRITE_TIMEOUT": "2s",
				"KAFKA_LOG_MESSAGES":  "false",
				"KAFKA_DLQ_TOPIC":     "parking.dlq",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Compression != "zstd" {
					t.Errorf("expected zstd, got %s", cfg.Compression)
				}
				if cfg.WriteTimeout != 2*time.Second {
					t.Errorf("expected 2s write timeout, got %s", cfg.WriteTimeout)
				}
				if cfg.LogMessages {
					t.Error("expected message logging disabled")
				}
				if cfg.DLQTopic != "parking.dlq" {
					t.Errorf("expected dlq topic, got %q", cfg.DLQTopic)
				}
			},
		},
		{
			name:    "malformed duration",
			env:     map[string]string{"KAFKA_BROKERS": "kafka:9092", "KAFKA_WRITE_TIMEOUT": "10"},
			wantErr: true,
		},
		{
			name:    "malformed acks",
			env:     map[string]string{"KAFKA_BROKERS": "kafka:9092", "KAFKA_REQUIRED_ACKS": "all"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got config %+v", cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if cfg != nil {
					t.Errorf("expected nil config, got %+v", cfg)
				}
				return
			}
			if cfg == nil {
				t.Fatal("expected config")
			}
			tt.check(t, cfg)
		})
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := &Config{
		Brokers:      []string{"localhost:9092"},
		Compression:  "brotli",
		RequiredAcks: 2,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"MaxAttempts", "BatchTimeout", "WriteTimeout", "Compression", "RequiredAcks"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}
