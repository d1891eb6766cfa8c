package ports

import (
	"context"
	"time"
)

// KafkaMessage represents a raw notification received from Kafka along with
// a mechanism to commit its offset once processing has completed.
type KafkaMessage struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Time      time.Time

	// Attempt counts earlier deliveries that ended in a retriable result;
	// zero for a first delivery.
	Attempt int

	// Commit commits the underlying Kafka message offset.
	Commit func(ctx context.Context) error
}

// NotificationConsumer exposes a streaming interface for consuming storage
// notifications. Implementations must be goroutine-safe and compatible with
// select-based loops.
type NotificationConsumer interface {
	// Consume returns a read-only channel of KafkaMessage instances and a channel
	// for terminal errors from the consumer loop. Both channels must be closed
	// when the provided context is cancelled or the consumer shuts down.
	Consume(ctx context.Context) (<-chan KafkaMessage, <-chan error)
}

// RetryPublisher hands a notification back to Kafka for a later attempt.
type RetryPublisher interface {
	Republish(ctx context.Context, msg KafkaMessage) error
}
