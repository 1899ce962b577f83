// Package testutil holds in-process stand-ins for the service's outbound
// ports.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

// Transfers records every transfer request. Set Err to make the next
// requests fail synchronously.
type Transfers struct {
	mu       sync.Mutex
	Requests []domain.TransferRequest
	Err      error
}

func (t *Transfers) RequestTransfer(_ context.Context, req domain.TransferRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return t.Err
	}
	t.Requests = append(t.Requests, req)
	return nil
}

func (t *Transfers) Last() (domain.TransferRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Requests) == 0 {
		return domain.TransferRequest{}, false
	}
	return t.Requests[len(t.Requests)-1], true
}

var ErrOracleDown = errors.New("oracle down")

// Oracle serves fixed prices per source. A missing source fails.
type Oracle struct {
	mu     sync.Mutex
	Prices map[string]amount.Balance
	Calls  int
}

func NewOracle() *Oracle {
	return &Oracle{Prices: make(map[string]amount.Balance)}
}

func (o *Oracle) Set(source string, price amount.Balance) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Prices[source] = price
}

func (o *Oracle) Clear(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.Prices, source)
}

func (o *Oracle) CurrentExchangeRate(_ context.Context, source string) (amount.Balance, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Calls++
	p, ok := o.Prices[source]
	if !ok {
		return amount.Zero(), ErrOracleDown
	}
	return p, nil
}

type Events struct {
	mu     sync.Mutex
	Events []domain.Event
}

func (e *Events) PublishEvent(_ context.Context, ev domain.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Events = append(e.Events, ev)
	return nil
}

func (e *Events) Types() []domain.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.EventType, 0, len(e.Events))
	for _, ev := range e.Events {
		out = append(out, ev.Type)
	}
	return out
}

// Messages is a PublisherPort that keeps messages per topic.
type Messages struct {
	mu     sync.Mutex
	Topics map[string][]domain.Message
}

func (m *Messages) Publish(_ context.Context, topic string, msgs ...domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Topics == nil {
		m.Topics = make(map[string][]domain.Message)
	}
	m.Topics[topic] = append(m.Topics[topic], msgs...)
	return nil
}
