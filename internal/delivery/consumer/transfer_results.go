package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
)

const (
	defaultRetryBase = 500 * time.Millisecond
	defaultRetryMax  = 30 * time.Second
)

type SettlementResolver interface {
	ResolveSettlement(ctx context.Context, in *campaigndto.TransferResultInput, now time.Time) (*campaigndto.SettlementOutput, error)
}

// TransferResultConsumer resolves settlements from the transfer service's
// result stream. A message is committed only once its result is applied or
// can never apply; transient failures are retried with backoff.
type TransferResultConsumer struct {
	sub       domain.SubscriberPort
	resolver  SettlementResolver
	topic     string
	groupID   string
	logger    zerolog.Logger
	now       func() time.Time
	retryBase time.Duration
	retryMax  time.Duration
}

func NewTransferResultConsumer(sub domain.SubscriberPort, resolver SettlementResolver, topic, groupID string, logger zerolog.Logger) *TransferResultConsumer {
	return &TransferResultConsumer{
		sub:       sub,
		resolver:  resolver,
		topic:     topic,
		groupID:   groupID,
		logger:    logger.With().Str("component", "transfer_result_consumer").Str("topic", topic).Logger(),
		now:       time.Now,
		retryBase: defaultRetryBase,
		retryMax:  defaultRetryMax,
	}
}

// Run consumes until ctx is cancelled or the subscription ends.
func (c *TransferResultConsumer) Run(ctx context.Context) error {
	msgs, err := c.sub.Subscribe(ctx, c.topic, c.groupID)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}
	c.logger.Info().Msg("consuming transfer results")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("transfer result subscription closed")
			}
			if !c.handle(ctx, msg) {
				return nil
			}
			if err := msg.Commit(ctx); err != nil {
				c.logger.Error().Err(err).Bytes("key", msg.Key).Msg("failed to commit transfer result")
			}
		}
	}
}

// handle applies one result, retrying transient failures. It returns false
// when ctx ends first; the message then stays uncommitted.
func (c *TransferResultConsumer) handle(ctx context.Context, msg domain.Message) bool {
	var in campaigndto.TransferResultInput
	if err := json.Unmarshal(msg.Value, &in); err != nil {
		c.logger.Error().Err(err).Bytes("key", msg.Key).Msg("malformed transfer result")
		return true
	}

	backoff := c.retryBase
	for attempt := 1; ; attempt++ {
		out, err := c.resolver.ResolveSettlement(ctx, &in, c.now())
		switch {
		case err == nil:
			c.logger.Info().
				Str("settlement_id", out.ID).
				Str("status", out.Status).
				Uint32("campaign_id", out.CampaignID).
				Msg("settlement resolved")
			return true
		case errors.Is(err, domain.ErrSettlementResolved):
			c.logger.Debug().Str("transfer_id", in.TransferID).Msg("duplicate transfer result")
			return true
		case isTerminal(err):
			c.logger.Warn().Err(err).Str("transfer_id", in.TransferID).Msg("transfer result skipped")
			return true
		}

		c.logger.Error().Err(err).
			Str("transfer_id", in.TransferID).
			Int("attempt", attempt).
			Dur("retry_in", backoff).
			Msg("failed to resolve settlement")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.retryMax)
	}
}

// isTerminal reports errors a retry cannot fix.
func isTerminal(err error) bool {
	return errors.Is(err, domain.ErrSettlementNotFound) || errors.Is(err, domain.ErrInvalidInput)
}
