package publisher

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

// EventPublisher serialises ledger events onto one topic, keyed by campaign.
type EventPublisher struct {
	pub     domain.PublisherPort
	topic   string
	timeout time.Duration
	logger  zerolog.Logger
}

func NewEventPublisher(pub domain.PublisherPort, topic string, logger zerolog.Logger) *EventPublisher {
	return &EventPublisher{
		pub:     pub,
		topic:   topic,
		timeout: 5 * time.Second,
		logger:  logger.With().Str("component", "event_publisher").Str("topic", topic).Logger(),
	}
}

func (p *EventPublisher) PublishEvent(ctx context.Context, ev domain.Event) error {
	msg, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.pub.Publish(ctx, p.topic, msg)
}

// BatchPublishEvents publishes events in chunks of batchSize, retrying each
// chunk up to maxRetries times. It fails only when no chunk got through.
func (p *EventPublisher) BatchPublishEvents(ctx context.Context, events []domain.Event, batchSize, maxRetries int) error {
	if len(events) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var lastErr error
	published := 0
	for i := 0; i < len(events); i += batchSize {
		end := min(i+batchSize, len(events))

		msgs := make([]domain.Message, 0, end-i)
		for _, ev := range events[i:end] {
			msg, err := encodeEvent(ev)
			if err != nil {
				p.logger.Warn().Err(err).Str("event", string(ev.Type)).Msg("skipping unencodable event")
				continue
			}
			msgs = append(msgs, msg)
		}

		var err error
		for attempt := 1; attempt <= maxRetries; attempt++ {
			if err = p.pub.Publish(ctx, p.topic, msgs...); err == nil {
				published += len(msgs)
				break
			}
			p.logger.Warn().Err(err).Int("attempt", attempt).Msg("batch publish failed")
			if attempt < maxRetries {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
				}
			}
		}
		if err != nil {
			lastErr = fmt.Errorf("batch %d-%d failed after %d attempts: %w", i, end, maxRetries, err)
		}
	}

	if published == 0 && lastErr != nil {
		return lastErr
	}
	p.logger.Debug().Int("published", published).Int("total", len(events)).Msg("batch publish completed")
	return nil
}

func encodeEvent(ev domain.Event) (domain.Message, error) {
	v, err := json.Marshal(ev)
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	return domain.Message{Key: ev.Key(), Value: v}, nil
}
