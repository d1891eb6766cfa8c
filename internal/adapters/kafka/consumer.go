package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nimafallahian/go-rdfload/internal/ports"
)

// Consumer implements ports.NotificationConsumer using segmentio/kafka-go.
// Message values are handed over undecoded; the notification decoder owns
// their format.
type Consumer struct {
	reader *kafkago.Reader
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*kafkago.ReaderConfig)

// WithRetryTopic subscribes the group to the retry topic as well, so
// republished notifications are consumed again.
func WithRetryTopic(topic string) ConsumerOption {
	return func(cfg *kafkago.ReaderConfig) {
		if topic == "" || topic == cfg.Topic {
			return
		}
		cfg.GroupTopics = []string{cfg.Topic, topic}
		cfg.Topic = ""
	}
}

// NewConsumer constructs a new Consumer configured for manual offset commits.
func NewConsumer(brokers []string, topic, groupID string, opts ...ConsumerOption) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("brokers must not be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic must not be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("groupID must not be empty")
	}

	cfg := kafkago.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		CommitInterval: 0, // manual commits only
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	reader := kafkago.NewReader(cfg)

	return &Consumer{reader: reader}, nil
}

// Stream starts a goroutine that continuously reads from Kafka and pushes
// messages onto a channel until the context is cancelled.
func (c *Consumer) Stream(ctx context.Context) (<-chan ports.KafkaMessage, <-chan error) {
	msgCh := make(chan ports.KafkaMessage)
	errCh := make(chan error, 1)

	go func() {
		defer close(msgCh)
		defer close(errCh)

		for {
			m, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
					return
				}
				errCh <- fmt.Errorf("fetch message: %w", err)
				return
			}

			kmsg := ports.KafkaMessage{
				Key:       m.Key,
				Value:     m.Value,
				Topic:     m.Topic,
				Partition: m.Partition,
				Offset:    m.Offset,
				Time:      m.Time,
				Attempt:   attempt(m.Headers),
				Commit: func(commitCtx context.Context) error {
					return c.reader.CommitMessages(commitCtx, m)
				},
			}

			select {
			case <-ctx.Done():
				return
			case msgCh <- kmsg:
			}
		}
	}()

	return msgCh, errCh
}

// Consume satisfies the ports.NotificationConsumer interface by delegating to Stream.
func (c *Consumer) Consume(ctx context.Context) (<-chan ports.KafkaMessage, <-chan error) {
	return c.Stream(ctx)
}

// Close releases the underlying reader resources.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func attempt(headers []kafkago.Header) int {
	for _, h := range headers {
		if h.Key != AttemptHeader {
			continue
		}
		if n, err := strconv.Atoi(string(h.Value)); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
