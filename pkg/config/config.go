package config

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"smartparking/pkg/client"
	kafka_config "smartparking/pkg/kafka/config"
	"smartparking/pkg/logger"

	"github.com/kelseyhightower/envconfig"
)

// SMTPConfig holds outbound mail settings. An empty Host disables SMTP
// delivery and notifications are only logged.
type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     string `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM"`
	FromName string `envconfig:"SMTP_FROM_NAME" default:"Smart Parking"`
	TLSMode  string `envconfig:"SMTP_TLS_MODE" default:"starttls"` // "none", "starttls", "tls"
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type Config struct {
	MongoURI          string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabaseName string        `envconfig:"MONGO_DATABASE_NAME" default:"smart_parking"`
	MongoConnTimeout  time.Duration `envconfig:"MONGO_CONN_TIMEOUT" default:"10s"`
	MongoOpTimeout    time.Duration `envconfig:"MONGO_OP_TIMEOUT" default:"5s"`
	MongoMaxPoolSize  int           `envconfig:"MONGO_MAX_POOL_SIZE" default:"50"`
	MongoRetries      int           `envconfig:"MONGO_CONNECT_RETRIES" default:"5"`
	MongoRetryBackoff time.Duration `envconfig:"MONGO_RETRY_BACKOFF" default:"2s"`

	Port      string `envconfig:"PORT" default:"3000"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"60"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// RequestTimeout must stay below WriteTimeout so the timeout response
	// still reaches the client.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	MaxRequestSize int           `envconfig:"MAX_REQUEST_SIZE" default:"1048576"`

	// RedisURL moves idempotency keys into Redis so replicas share them.
	RedisURL       string `envconfig:"REDIS_URL"`
	RedisKeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"parking:idempotency:"`

	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"45s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	BackgroundTimeout time.Duration `envconfig:"BACKGROUND_TIMEOUT" default:"30s"`

	SMTP SMTPConfig `ignored:"true"`

	QRCodeSize          int    `envconfig:"QRCODE_SIZE" default:"256"`
	QRCodeRecoveryLevel string `envconfig:"QRCODE_RECOVERY_LEVEL" default:"medium"`
	PayeeName           string `envconfig:"PAYEE_NAME" default:"SmartParking"`

	// Kafka is nil when KAFKA_BROKERS is unset; domain events are then dropped.
	Kafka                  *kafka_config.Config `ignored:"true"`
	KafkaReservationsTopic string               `envconfig:"KAFKA_RESERVATIONS_TOPIC" default:"parking.reservations"`
	KafkaPaymentsTopic     string               `envconfig:"KAFKA_PAYMENTS_TOPIC" default:"parking.payments"`

	Log    *logger.Logger `ignored:"true"`
	Client *client.Client `ignored:"true"`

	serviceName string
}

// Load reads the environment. Malformed values, such as a duration without a
// unit, are reported instead of silently replaced by defaults.
func Load(serviceName string) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	// SMTP is processed on its own so its keys never fall back to the
	// unprefixed names (SMTP_PORT must not pick up PORT).
	if err := envconfig.Process("", &cfg.SMTP); err != nil {
		return nil, fmt.Errorf("load smtp config: %w", err)
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Kafka = kafkaCfg

	cfg.Client = client.NewClient()
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.serviceName = serviceName

	return cfg, nil
}

// SetMongo connects the shared Mongo client and exits the process when the
// database stays unreachable after the configured retries.
func (cfg *Config) SetMongo() {
	err := cfg.Client.ConnectMongo(context.Background(), cfg.Log, client.MongoOptions{
		URI:            cfg.MongoURI,
		AppName:        cfg.serviceName,
		ConnectTimeout: cfg.MongoConnTimeout,
		MaxPoolSize:    uint64(cfg.MongoMaxPoolSize),
		ConnectRetries: cfg.MongoRetries,
		RetryBackoff:   cfg.MongoRetryBackoff,
	})
	if err != nil {
		cfg.Log.Fatal("Failed to connect to MongoDB", "error", err)
	}
}

// SetRedis connects Redis when REDIS_URL is set and is a no-op otherwise.
func (cfg *Config) SetRedis() {
	if cfg.RedisURL == "" {
		return
	}
	if err := cfg.Client.ConnectRedis(context.Background(), cfg.Log, cfg.RedisURL, cfg.MongoConnTimeout); err != nil {
		cfg.Log.Fatal("Failed to connect to Redis", "error", err)
	}
}

var (
	mongoURIRegex = regexp.MustCompile(`^mongodb(\+srv)?://`)
	redisURLRegex = regexp.MustCompile(`^rediss?://`)
)

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoMaxPoolSize < 0 {
		errors = append(errors, fmt.Sprintf("MongoMaxPoolSize cannot be negative, got: %d", cfg.MongoMaxPoolSize))
	}
	if cfg.MongoRetries < 0 {
		errors = append(errors, fmt.Sprintf("MongoRetries cannot be negative, got: %d", cfg.MongoRetries))
	}

	if cfg.RedisURL != "" && !redisURLRegex.MatchString(cfg.RedisURL) {
		errors = append(errors, "RedisURL must start with 'redis://' or 'rediss://'")
	}

	switch strings.ToLower(cfg.LogFormat) {
	case logger.JSON, logger.TEXT:
	default:
		errors = append(errors, fmt.Sprintf("LogFormat must be one of [json, text], got: %s", cfg.LogFormat))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"MongoOpTimeout", cfg.MongoOpTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"BackgroundTimeout", cfg.BackgroundTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RequestTimeout > 0 && cfg.WriteTimeout > 0 && cfg.RequestTimeout >= cfg.WriteTimeout {
		errors = append(errors, fmt.Sprintf("RequestTimeout (%s) must be shorter than WriteTimeout (%s)", cfg.RequestTimeout, cfg.WriteTimeout))
	}
	if cfg.MongoOpTimeout > 0 && cfg.RequestTimeout > 0 && cfg.MongoOpTimeout >= cfg.RequestTimeout {
		errors = append(errors, fmt.Sprintf("MongoOpTimeout (%s) must be shorter than RequestTimeout (%s)", cfg.MongoOpTimeout, cfg.RequestTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.SMTP.Enabled() {
		if cfg.SMTP.From == "" {
			errors = append(errors, "SMTP From address cannot be empty when SMTP host is set")
		}
		switch cfg.SMTP.TLSMode {
		case "none", "starttls", "tls":
		default:
			errors = append(errors, fmt.Sprintf("SMTP TLS mode must be one of [none, starttls, tls], got: %s", cfg.SMTP.TLSMode))
		}
	}

	if cfg.QRCodeSize < 21 || cfg.QRCodeSize > 2048 {
		errors = append(errors, fmt.Sprintf("QRCodeSize must be between 21 and 2048, got: %d", cfg.QRCodeSize))
	}
	switch cfg.QRCodeRecoveryLevel {
	case "low", "medium", "high", "highest":
	default:
		errors = append(errors, fmt.Sprintf("QRCodeRecoveryLevel must be one of [low, medium, high, highest], got: %s", cfg.QRCodeRecoveryLevel))
	}
	if cfg.PayeeName == "" {
		errors = append(errors, "PayeeName cannot be empty")
	}

	if cfg.Kafka != nil {
		if err := cfg.Kafka.Validate(); err != nil {
			errors = append(errors, err.Error())
		}
		if cfg.KafkaReservationsTopic == "" || cfg.KafkaPaymentsTopic == "" {
			errors = append(errors, "Kafka topics cannot be empty when brokers are set")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"mongo_op_timeout", cfg.MongoOpTimeout,
		"mongo_max_pool_size", cfg.MongoMaxPoolSize,
		"mongo_retries", cfg.MongoRetries,
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"redis_enabled", cfg.RedisURL != "",
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"background_timeout", cfg.BackgroundTimeout,
		"smtp_enabled", cfg.SMTP.Enabled(),
		"smtp_host", cfg.SMTP.Host,
		"smtp_password_set", cfg.SMTP.Password != "",
		"qrcode_size", cfg.QRCodeSize,
		"qrcode_recovery_level", cfg.QRCodeRecoveryLevel,
		"payee_name", cfg.PayeeName,
		"kafka_enabled", cfg.Kafka != nil,
		"kafka_reservations_topic", cfg.KafkaReservationsTopic,
		"kafka_payments_topic", cfg.KafkaPaymentsTopic,
	)
}

var credentialRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)

func redactMongoURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}
