package kafka

import (
	"context"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
)

// BrokerCheck returns a probe that succeeds once any broker accepts a
// connection and answers a metadata request.
func BrokerCheck(brokers []string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return errors.New("no kafka brokers configured")
		}
		var errs []error
		for _, broker := range brokers {
			conn, err := kafkago.DialContext(ctx, "tcp", broker)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", broker, err))
				continue
			}
			_, err = conn.Brokers()
			_ = conn.Close()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", broker, err))
				continue
			}
			return nil
		}
		return errors.Join(errs...)
	}
}
