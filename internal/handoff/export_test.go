package handoff

import (
	"io"
	"log/slog"
)

// AMQPChannel exposes the channel seam to tests.
type AMQPChannel = amqpChannel

// NewAMQPWithDialer builds a publisher that uses dial instead of the network.
func NewAMQPWithDialer(url, exchange, routingKey string, dial func(string) (AMQPChannel, io.Closer, error), logger *slog.Logger) *AMQPPublisher {
	return newAMQP(url, exchange, routingKey, dial, logger)
}
