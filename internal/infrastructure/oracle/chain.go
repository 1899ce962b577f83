package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

const orderBookPrefix = "orderbook+"

// Chain asks each provider in turn and returns the first usable rate.
type Chain struct {
	providers []Provider
	logger    zerolog.Logger
}

func NewChain(logger zerolog.Logger, providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		logger:    logger.With().Str("component", "price_oracle").Logger(),
	}
}

// NewChainFromURLs builds the primary HTTP provider followed by fallbacks.
// A fallback prefixed with "orderbook+" is read as an exchange order book.
func NewChainFromURLs(primary string, fallbacks []string, timeout time.Duration, logger zerolog.Logger) *Chain {
	providers := []Provider{NewHTTPProvider("primary", primary, timeout)}
	for i, u := range fallbacks {
		if book, ok := strings.CutPrefix(u, orderBookPrefix); ok {
			providers = append(providers, NewOrderBookProvider(book, timeout))
			continue
		}
		providers = append(providers, NewHTTPProvider(fmt.Sprintf("fallback-%d", i+1), u, timeout))
	}
	return NewChain(logger, providers...)
}

func (c *Chain) CurrentExchangeRate(ctx context.Context, source string) (amount.Balance, error) {
	var errs []error
	for _, p := range c.providers {
		rate, err := p.CurrentExchangeRate(ctx, source)
		if err == nil {
			return rate, nil
		}
		if ctx.Err() != nil {
			return amount.Balance{}, ctx.Err()
		}
		c.logger.Warn().Err(err).Str("provider", p.Name()).Str("source", source).Msg("rate provider failed")
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return amount.Balance{}, ErrNoRate
	}
	return amount.Balance{}, errors.Join(errs...)
}
