package domain

import (
	"fmt"
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

// NeedsEvaluation reports whether the scheduler should process the campaign.
func (c *Campaign) NeedsEvaluation(now time.Time) bool {
	return !c.IsEvaluated() && !now.Before(c.CloseAt)
}

// NeedsUnfreeze reports whether the unfreeze price can be captured.
func (c *Campaign) NeedsUnfreeze(now time.Time) bool {
	return c.IsSuccessful() && !c.IsUnfrozen() && c.UnfreezeAt != nil && !now.Before(*c.UnfreezeAt)
}

// BeginEvaluation checks that the campaign can be evaluated and returns the
// goal it reached, or nil when it reached none.
func (c *Campaign) BeginEvaluation(now time.Time) (*Goal, error) {
	if c.IsEvaluated() {
		return nil, fmt.Errorf("%w: campaign %d", ErrAlreadyEvaluated, c.ID)
	}
	if now.Before(c.CloseAt) {
		return nil, fmt.Errorf("%w: campaign %d closes at %s", ErrFundingWindowOpen, c.ID, c.CloseAt.UTC().Format(time.RFC3339))
	}
	return c.AchievedGoal(), nil
}

func (c *Campaign) MarkFailed(now time.Time) error {
	goal, err := c.BeginEvaluation(now)
	if err != nil {
		return err
	}
	if goal != nil {
		return fmt.Errorf("%w: campaign %d reached goal %d", ErrInvariant, c.ID, goal.ID)
	}
	failed := false
	c.Successful = &failed
	c.Active = false
	c.UpdatedAt = now
	return nil
}

// MarkSucceeded freezes the outcome of a campaign that reached goalID. The
// release owed to supporters moves into locked inventory and the platform fee
// is reserved next to it. Nothing changes when the inventory cannot cover both.
func (c *Campaign) MarkSucceeded(goalID GoalID, priceAtFreeze amount.Balance, now time.Time) error {
	goal, err := c.BeginEvaluation(now)
	if err != nil {
		return err
	}
	if goal == nil || goal.ID != goalID {
		return fmt.Errorf("%w: campaign %d did not reach goal %d", ErrInvariant, c.ID, goalID)
	}
	if priceAtFreeze.IsZero() {
		return fmt.Errorf("%w: zero price at freeze", ErrPriceUnavailable)
	}
	release, err := amount.Proportional(c.TotalDeposited, goal.RewardRate, amount.OneUnit(DepositDecimals))
	if err != nil {
		return fmt.Errorf("%w: release for campaign %d: %v", ErrInvariant, c.ID, err)
	}
	fee, err := c.platformFeeOn(release)
	if err != nil {
		return fmt.Errorf("%w: fee for campaign %d: %v", ErrInvariant, c.ID, err)
	}
	reserved, err := release.Add(fee)
	if err != nil {
		return fmt.Errorf("%w: reserve for campaign %d: %v", ErrInvariant, c.ID, err)
	}
	available, err := c.AvailableRewardTokens.Sub(reserved)
	if err != nil {
		return fmt.Errorf("%w: need %s, have %s", ErrNotEnoughRewardTokens, reserved, c.AvailableRewardTokens)
	}
	locked, err := c.LockedRewardTokens.Add(release)
	if err != nil {
		return fmt.Errorf("%w: locking rewards: %v", ErrInvariant, err)
	}

	succeeded := true
	id := goal.ID
	unfreezeAt := goal.UnfreezeAt
	c.Successful = &succeeded
	c.WinnerGoalID = &id
	c.AvailableRewardTokens = available
	c.LockedRewardTokens = locked
	c.TotalTokensToRelease = &release
	c.PlatformFee = &fee
	c.PriceAtFreeze = &priceAtFreeze
	c.UnfreezeAt = &unfreezeAt
	c.Active = false
	c.UpdatedAt = now
	return nil
}

// BeginUnfreeze checks that the winning goal has unlocked and the unfreeze
// price is still missing.
func (c *Campaign) BeginUnfreeze(now time.Time) error {
	goal, err := c.WinnerGoal()
	if err != nil {
		return err
	}
	if c.IsUnfrozen() {
		return fmt.Errorf("%w: campaign %d", ErrAlreadyUnfrozen, c.ID)
	}
	if now.Before(goal.UnfreezeAt) {
		return fmt.Errorf("%w: campaign %d unfreezes at %s", ErrBeforeUnfreeze, c.ID, goal.UnfreezeAt.UTC().Format(time.RFC3339))
	}
	return nil
}

func (c *Campaign) SetUnfreezePrice(price amount.Balance, now time.Time) error {
	if err := c.BeginUnfreeze(now); err != nil {
		return err
	}
	if price.IsZero() {
		return fmt.Errorf("%w: zero price at unfreeze", ErrPriceUnavailable)
	}
	c.PriceAtUnfreeze = &price
	c.UpdatedAt = now
	return nil
}
