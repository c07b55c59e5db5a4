package client

import (
	"context"
	"fmt"
	"time"

	"smartparking/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoOptions controls how the shared Mongo client is dialed.
type MongoOptions struct {
	URI            string
	AppName        string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	ConnectRetries int
	RetryBackoff   time.Duration
}

// Client bundles the long-lived connections a process shares.
type Client struct {
	Mongo *mongo.Client
	// Redis is nil unless REDIS_URL is configured.
	Redis *redis.Client
}

func NewClient() *Client {
	return &Client{}
}

// ConnectMongo dials Mongo and pings the primary, retrying up to
// ConnectRetries extra times so the service survives a database that is
// still starting.
func (c *Client) ConnectMongo(ctx context.Context, log *logger.Logger, opts MongoOptions) error {
	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.ConnectTimeout).
		SetServerSelectionTimeout(opts.ConnectTimeout)
	if opts.AppName != "" {
		clientOpts.SetAppName(opts.AppName)
	}
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}

	var lastErr error
	for attempt := 0; attempt <= opts.ConnectRetries; attempt++ {
		if attempt > 0 {
			log.Warn("Retrying MongoDB connection", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return fmt.Errorf("mongo connect cancelled: %w", ctx.Err())
			case <-time.After(opts.RetryBackoff * time.Duration(attempt)):
			}
		}

		mc, err := dialMongo(ctx, clientOpts, opts.ConnectTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		c.Mongo = mc
		log.Info("Successfully connected to MongoDB", "attempts", attempt+1)
		return nil
	}
	return fmt.Errorf("mongo unreachable after %d attempts: %w", opts.ConnectRetries+1, lastErr)
}

func dialMongo(ctx context.Context, clientOpts *options.ClientOptions, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mc, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}
	return mc, nil
}

// ConnectRedis parses a redis:// URL and verifies the server answers PING.
func (c *Client) ConnectRedis(ctx context.Context, log *logger.Logger, redisURL string, timeout time.Duration) error {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = timeout

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("ping redis: %w", err)
	}

	c.Redis = rdb
	log.Info("Successfully connected to Redis", "addr", opts.Addr, "db", opts.DB)
	return nil
}

func (c *Client) GracefulShutdown(log *logger.Logger, timeout time.Duration) {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
		c.Redis = nil
	}
	if c.Mongo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := c.Mongo.Disconnect(ctx); err != nil {
		log.Error("Failed to disconnect from MongoDB", "error", err)
		return
	}
	c.Mongo = nil
	log.Info("Disconnected from MongoDB")
}
