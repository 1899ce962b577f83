package domain

import (
	"errors"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

var (
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrSupporterNotFound  = errors.New("supporter not found")
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrGoalNotFound       = errors.New("goal not found")
	ErrSlugTaken          = errors.New("campaign slug already taken")

	ErrUnauthorized    = errors.New("caller is not allowed to perform this action")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidMemo     = errors.New("transfer message does not reference a campaign")
	ErrUnknownToken    = errors.New("token is not accepted by this campaign")
	ErrNoGoals         = errors.New("campaign has no goals")
	ErrTooManyGoals    = errors.New("campaign has the maximum number of goals")
	ErrGoalOrder       = errors.New("goal breaks tier ordering")
	ErrCampaignStarted = errors.New("campaign funding window already opened")

	ErrFundingWindowClosed   = errors.New("funding window is not open")
	ErrFundingWindowOpen     = errors.New("funding window is still open")
	ErrNotEnoughRewardTokens = errors.New("not enough reward tokens")
	ErrBelowMinDeposit       = errors.New("deposit below minimum")
	ErrHardCapExceeded       = errors.New("deposit exceeds campaign hard cap")

	ErrAlreadyEvaluated      = errors.New("campaign already evaluated")
	ErrAwaitingEvaluation    = errors.New("campaign awaits evaluation")
	ErrCampaignSuccessful    = errors.New("campaign succeeded, deposits are locked until unfreeze")
	ErrCampaignNotSuccessful = errors.New("campaign is not successful")
	ErrBeforeCliff           = errors.New("rewards are still before cliff")
	ErrBeforeUnfreeze        = errors.New("winning goal is not unfrozen yet")
	ErrAlreadyUnfrozen       = errors.New("campaign already unfrozen")
	ErrNotUnfrozen           = errors.New("campaign not unfrozen yet")
	ErrPriceNotIncreased     = errors.New("price at unfreeze does not exceed price at freeze")
	ErrPriceUnavailable      = errors.New("price oracle unavailable")

	ErrSettlementInFlight = errors.New("another transfer is pending for this position")
	ErrSettlementResolved = errors.New("settlement already resolved")
	ErrRefundsPending     = errors.New("deposit refunds that moved the total are still pending")

	// ErrInvariant marks a ledger state that should be impossible; it is never clamped.
	ErrInvariant = errors.New("ledger invariant violated")

	ErrInsufficientBalance = amount.ErrInsufficientBalance
	ErrNothingAvailable    = amount.ErrNothingAvailable
)
