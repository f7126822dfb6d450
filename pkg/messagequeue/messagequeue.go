package messagequeue

import "context"

// Handler processes one message body. Returning an error rejects the message.
type Handler func(ctx context.Context, body []byte) error

// MessageQueue defines the interface for message queue services.
type MessageQueue interface {
	Publish(ctx context.Context, queueName string, body []byte) error
	// Consume delivers messages to handler until ctx is cancelled or the
	// delivery channel closes.
	Consume(ctx context.Context, queueName string, handler Handler) error
	Close() error
}
