package domain

import "context"

type Message struct {
	Key   []byte
	Value []byte
	// Ack marks the message consumed. Nil for messages that need no commit.
	Ack func(ctx context.Context) error
}

// Commit acknowledges the message. Unacknowledged messages are redelivered.
func (m Message) Commit(ctx context.Context) error {
	if m.Ack == nil {
		return nil
	}
	return m.Ack(ctx)
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
}
