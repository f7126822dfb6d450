package messagequeue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// RabbitMQService implements the MessageQueue interface using RabbitMQ.
type RabbitMQService struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger

	mu       sync.Mutex
	declared map[string]bool
}

// NewRabbitMQServiceConfig contains options for creating a new RabbitMQService.
type NewRabbitMQServiceConfig struct {
	URL string
	// Prefetch bounds unacknowledged deliveries per consumer. Zero means 10.
	Prefetch int
}

// NewRabbitMQService dials the broker and opens a channel.
func NewRabbitMQService(cfg NewRabbitMQServiceConfig, logger *zap.Logger) (*RabbitMQService, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 10
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	logger.Info("Connected to RabbitMQ")
	return &RabbitMQService{conn: conn, channel: ch, logger: logger, declared: map[string]bool{}}, nil
}

// declare makes sure a durable queue exists. Caller holds s.mu.
func (s *RabbitMQService) declare(queueName string) error {
	if s.declared[queueName] {
		return nil
	}
	_, err := s.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	s.declared[queueName] = true
	return nil
}

// Publish sends a persistent JSON message to a queue.
func (s *RabbitMQService) Publish(ctx context.Context, queueName string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.declare(queueName); err != nil {
		return err
	}
	err := s.channel.Publish(
		"",        // exchange
		queueName, // routing key (queue name)
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queueName, err)
	}
	s.logger.Debug("Published message", zap.String("queue", queueName), zap.Int("bytes", len(body)))
	return nil
}

// Consume acknowledges each message after handler succeeds and rejects it
// without requeue when handler fails.
func (s *RabbitMQService) Consume(ctx context.Context, queueName string, handler Handler) error {
	msgs, err := s.subscribe(queueName)
	if err != nil {
		return err
	}
	return s.deliver(ctx, queueName, msgs, handler)
}

func (s *RabbitMQService) subscribe(queueName string) (<-chan amqp.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.declare(queueName); err != nil {
		return nil, err
	}
	msgs, err := s.channel.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register a consumer for queue %s: %w", queueName, err)
	}
	return msgs, nil
}

func (s *RabbitMQService) deliver(ctx context.Context, queueName string, msgs <-chan amqp.Delivery, handler Handler) error {
	s.logger.Info("Waiting for messages", zap.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if err := handler(ctx, d.Body); err != nil {
				s.logger.Error("Message handler failed", zap.String("queue", queueName), zap.Error(err))
				if nackErr := d.Nack(false, false); nackErr != nil {
					s.logger.Error("Failed to reject message", zap.Error(nackErr))
				}
				continue
			}
			if err := d.Ack(false); err != nil {
				s.logger.Error("Failed to acknowledge message", zap.Error(err))
			}
		}
	}
}

// Close closes the RabbitMQ channel and connection.
func (s *RabbitMQService) Close() error {
	var lastErr error
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			s.logger.Warn("Error closing RabbitMQ channel", zap.Error(err))
			lastErr = err
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("Error closing RabbitMQ connection", zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}
