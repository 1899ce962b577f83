package domain

import (
	"context"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

// TransferRequest asks the asset transfer service to move Amount of Token to
// Receiver. The service reports the outcome later, referencing TransferID.
type TransferRequest struct {
	TransferID string
	Token      AccountID
	Receiver   AccountID
	Amount     amount.Balance
	Memo       string
}

type TransferPort interface {
	RequestTransfer(ctx context.Context, req TransferRequest) error
}

// PriceOracle returns the deposit asset exchange rate for source, in deposit
// base units per share.
type PriceOracle interface {
	CurrentExchangeRate(ctx context.Context, source string) (amount.Balance, error)
}

// Locker serialises mutations of one campaign across processes.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, ev Event) error
}
