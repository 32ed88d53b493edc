package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"clipstudio/internal/logging"
	"clipstudio/internal/services"
)

// amqpChannel is the subset of *amqp.Channel the publisher uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type dialFunc func(url string) (amqpChannel, io.Closer, error)

// AMQPPublisher publishes persistent JSON messages to a topic exchange. The
// connection is opened on first use and reopened after a failed publish.
type AMQPPublisher struct {
	url        string
	exchange   string
	routingKey string
	dial       dialFunc
	logger     *slog.Logger

	mu      sync.Mutex
	channel amqpChannel
	conn    io.Closer
}

// NewAMQP builds a publisher for url.
func NewAMQP(url, exchange, routingKey string, logger *slog.Logger) *AMQPPublisher {
	return newAMQP(url, exchange, routingKey, dialAMQP, logger)
}

func newAMQP(url, exchange, routingKey string, dial dialFunc, logger *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:        strings.TrimSpace(url),
		exchange:   exchange,
		routingKey: routingKey,
		dial:       dial,
		logger:     logging.NewComponentLogger(logger, "handoff"),
	}
}

func dialAMQP(url string) (amqpChannel, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, conn, nil
}

// Publish sends msg with the configured routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.VideoID) == "" {
		return services.Wrap(services.ErrValidation, "handoff", "publish", "video id required", nil)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode handoff message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return services.Wrap(services.ErrNetwork, "handoff", "connect", "", err)
	}
	err = ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		MessageId:    msg.VideoID,
	})
	if err != nil {
		p.resetLocked()
		return services.Wrap(services.ErrNetwork, "handoff", "publish", "", err)
	}
	logging.WithContext(ctx, p.logger).Info("video handed off",
		logging.String("video_id", msg.VideoID),
		logging.String("exchange", p.exchange),
		logging.String("routing_key", p.routingKey),
		logging.String(logging.FieldEventType, "handoff_published"),
	)
	return nil
}

func (p *AMQPPublisher) channelLocked() (amqpChannel, error) {
	if p.channel != nil {
		return p.channel, nil
	}
	ch, conn, err := p.dial(p.url)
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		if conn != nil {
			_ = conn.Close()
		}
		return nil, fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	p.channel = ch
	p.conn = conn
	return ch, nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
