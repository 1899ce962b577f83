package publisher

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

type DefaultKafkaSubscriber struct {
	brokers []string
	logger  zerolog.Logger
}

func NewDefaultKafkaSubscriber(brokers []string, logger zerolog.Logger) *DefaultKafkaSubscriber {
	return &DefaultKafkaSubscriber{
		brokers: brokers,
		logger:  logger.With().Str("component", "kafka_subscriber").Logger(),
	}
}

// Subscribe streams messages of topic until ctx is cancelled or the reader
// fails, then closes the channel. Offsets advance only when the receiver
// commits a message.
func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			m, err := reader.FetchMessage(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					k.logger.Error().Err(err).Str("topic", topic).Msg("kafka read failed")
				}
				return
			}
			select {
			case out <- domain.Message{Key: m.Key, Value: m.Value, Ack: commitFunc(reader, m)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func commitFunc(reader *kafka.Reader, m kafka.Message) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return reader.CommitMessages(ctx, m)
	}
}
