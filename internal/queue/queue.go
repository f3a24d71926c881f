package queue

import "context"

const (
	// AcksQueueName is the work queue carrying acknowledgment callbacks from
	// the messenger gateway.
	AcksQueueName = "acks"

	// AcksDLQName receives ack messages rejected as malformed.
	AcksDLQName = "dlq.acks"
)

// Publisher publishes acknowledgment messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg AckMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg AckMessage) error

// Consumer consumes acknowledgment messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}
