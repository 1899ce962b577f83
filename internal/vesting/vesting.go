package vesting

import (
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

// Vested returns the part of total released at now under a linear schedule
// that starts at cliff and completes at end. Nothing is released before the
// cliff and everything is released from end onwards. The result never
// decreases as now advances.
func Vested(total amount.Balance, cliff, end, now time.Time) (amount.Balance, error) {
	if now.Before(cliff) {
		return amount.Zero(), nil
	}
	if !now.Before(end) {
		return total, nil
	}
	elapsed := now.Sub(cliff).Milliseconds()
	span := end.Sub(cliff).Milliseconds()
	if span <= 0 {
		return total, nil
	}
	return amount.Proportional(total, amount.New(uint64(elapsed)), amount.New(uint64(span)))
}
