package kafka

import (
	"context"
	"fmt"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nimafallahian/go-rdfload/internal/ports"
)

// AttemptHeader carries the number of retriable deliveries so far.
const AttemptHeader = "rdfload-attempt"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// RetryPublisher implements ports.RetryPublisher by writing the notification,
// unchanged, to a retry topic.
type RetryPublisher struct {
	writer messageWriter
	topic  string
}

// NewRetryPublisher constructs a RetryPublisher writing to topic.
func NewRetryPublisher(brokers []string, topic string) (*RetryPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("brokers must not be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("retry topic must not be empty")
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}

	return &RetryPublisher{writer: writer, topic: topic}, nil
}

// Republish writes msg with its attempt counter increased by one.
func (p *RetryPublisher) Republish(ctx context.Context, msg ports.KafkaMessage) error {
	err := p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: []kafkago.Header{
			{Key: AttemptHeader, Value: []byte(strconv.Itoa(msg.Attempt + 1))},
		},
	})
	if err != nil {
		return fmt.Errorf("republish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and releases the writer.
func (p *RetryPublisher) Close() error {
	return p.writer.Close()
}
