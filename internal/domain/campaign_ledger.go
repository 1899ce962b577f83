package domain

import (
	"fmt"
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/vesting"
)

func (c *Campaign) RecordDeposit(supporter AccountID, v amount.Balance, now time.Time) error {
	if !c.IsWithinFundingWindow(now) {
		return fmt.Errorf("%w: campaign %d accepts deposits from %s until %s", ErrFundingWindowClosed,
			c.ID, c.OpenAt.UTC().Format(time.RFC3339), c.CloseAt.UTC().Format(time.RFC3339))
	}
	if !c.EnoughRewardTokens {
		return fmt.Errorf("%w: campaign %d is not funded for its hard cap", ErrNotEnoughRewardTokens, c.ID)
	}
	if v.Lt(c.MinDeposit) {
		return fmt.Errorf("%w: %s < %s", ErrBelowMinDeposit, v, c.MinDeposit)
	}
	total, err := c.TotalDeposited.Add(v)
	if err != nil || total.Gt(c.HardCap) {
		return fmt.Errorf("%w: remaining capacity %s", ErrHardCapExceeded, c.HardCap.SaturatingSub(c.TotalDeposited))
	}
	deposit, err := c.Deposits[supporter].Add(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	c.Deposits[supporter] = deposit
	c.TotalDeposited = total
	c.UpdatedAt = now
	return nil
}

// RecordRewardFunding credits reward inventory sent by the reward token
// itself. Funding is accepted until the funding window closes.
func (c *Campaign) RecordRewardFunding(token AccountID, v amount.Balance, now time.Time) error {
	if token != c.RewardToken {
		return fmt.Errorf("%w: %s funds campaign %d, expected %s", ErrUnknownToken, token, c.ID, c.RewardToken)
	}
	if c.IsEvaluated() {
		return fmt.Errorf("%w: campaign %d", ErrAlreadyEvaluated, c.ID)
	}
	if !now.Before(c.CloseAt) {
		return fmt.Errorf("%w: reward funding closed at %s", ErrFundingWindowClosed, c.CloseAt.UTC().Format(time.RFC3339))
	}
	if v.IsZero() {
		return fmt.Errorf("%w: zero funding", ErrInvalidInput)
	}
	available, err := c.AvailableRewardTokens.Add(v)
	if err != nil {
		return fmt.Errorf("%w: reward inventory %v", ErrInvalidInput, err)
	}
	prev := c.AvailableRewardTokens
	c.AvailableRewardTokens = available
	if err := c.refreshRewardGate(); err != nil {
		c.AvailableRewardTokens = prev
		return err
	}
	c.UpdatedAt = now
	return nil
}

// RequiredRewardTokens is what the campaign must hold before it can accept
// deposits: the release at hard cap under the richest goal plus the fee on it.
func (c *Campaign) RequiredRewardTokens() (amount.Balance, error) {
	if len(c.Goals) == 0 {
		return amount.Zero(), ErrNoGoals
	}
	maxRate := c.Goals[len(c.Goals)-1].RewardRate
	release, err := amount.Proportional(c.HardCap, maxRate, amount.OneUnit(DepositDecimals))
	if err != nil {
		return amount.Zero(), fmt.Errorf("%w: release at hard cap: %v", ErrInvalidInput, err)
	}
	fee, err := c.platformFeeOn(release)
	if err != nil {
		return amount.Zero(), fmt.Errorf("%w: fee at hard cap: %v", ErrInvalidInput, err)
	}
	need, err := release.Add(fee)
	if err != nil {
		return amount.Zero(), fmt.Errorf("%w: required reward tokens: %v", ErrInvalidInput, err)
	}
	return need, nil
}

func (c *Campaign) refreshRewardGate() error {
	if len(c.Goals) == 0 {
		c.EnoughRewardTokens = false
		return nil
	}
	need, err := c.RequiredRewardTokens()
	if err != nil {
		return err
	}
	c.EnoughRewardTokens = c.AvailableRewardTokens.Cmp(need) >= 0
	return nil
}

// AfterUnfreezeDeposit reprices a supporter's frozen deposit at the unfreeze
// rate. The result is capped at the original deposit: a falling rate never
// pays out more than the campaign holds for the supporter.
func (c *Campaign) AfterUnfreezeDeposit(supporter AccountID) (amount.Balance, error) {
	if c.PriceAtFreeze == nil || c.PriceAtUnfreeze == nil {
		return amount.Zero(), fmt.Errorf("%w: campaign %d", ErrNotUnfrozen, c.ID)
	}
	deposit := c.Deposits[supporter]
	repriced, err := amount.Proportional(deposit, *c.PriceAtFreeze, *c.PriceAtUnfreeze)
	if err != nil {
		return amount.Zero(), fmt.Errorf("%w: repricing deposit: %v", ErrInvariant, err)
	}
	return amount.Min(repriced, deposit), nil
}

// TotalRewardFor is the full reward a supporter earns once vesting completes.
func (c *Campaign) TotalRewardFor(supporter AccountID) (amount.Balance, error) {
	goal, err := c.WinnerGoal()
	if err != nil {
		return amount.Zero(), err
	}
	total, err := amount.Proportional(c.Deposits[supporter], goal.RewardRate, amount.OneUnit(DepositDecimals))
	if err != nil {
		return amount.Zero(), fmt.Errorf("%w: reward for %s: %v", ErrInvariant, supporter, err)
	}
	return total, nil
}

// AvailableRewardFor is the vested reward not yet claimed.
func (c *Campaign) AvailableRewardFor(supporter AccountID, now time.Time) (amount.Balance, error) {
	goal, err := c.WinnerGoal()
	if err != nil {
		return amount.Zero(), err
	}
	total, err := c.TotalRewardFor(supporter)
	if err != nil {
		return amount.Zero(), err
	}
	vested, err := vesting.Vested(total, goal.CliffAt, goal.EndAt, now)
	if err != nil {
		return amount.Zero(), fmt.Errorf("%w: vesting: %v", ErrInvariant, err)
	}
	return vested.SaturatingSub(c.RewardWithdrawn[SupporterOwner(supporter)]), nil
}

// AvailablePrincipalFor is the repriced deposit a supporter has not yet withdrawn.
func (c *Campaign) AvailablePrincipalFor(supporter AccountID) (amount.Balance, error) {
	repriced, err := c.AfterUnfreezeDeposit(supporter)
	if err != nil {
		return amount.Zero(), err
	}
	return repriced.SaturatingSub(c.AssetWithdrawn[SupporterOwner(supporter)]), nil
}

// AvailableInterest is the price spread on the frozen total owed to the owner.
func (c *Campaign) AvailableInterest() (amount.Balance, error) {
	if !c.IsSuccessful() {
		return amount.Zero(), fmt.Errorf("%w: campaign %d", ErrCampaignNotSuccessful, c.ID)
	}
	if c.PriceAtFreeze == nil || c.PriceAtUnfreeze == nil {
		return amount.Zero(), fmt.Errorf("%w: campaign %d", ErrNotUnfrozen, c.ID)
	}
	if c.PriceAtUnfreeze.Cmp(*c.PriceAtFreeze) <= 0 {
		return amount.Zero(), fmt.Errorf("%w: freeze %s, unfreeze %s", ErrPriceNotIncreased, c.PriceAtFreeze, c.PriceAtUnfreeze)
	}
	supportersShare, err := amount.Proportional(c.TotalDeposited, *c.PriceAtFreeze, *c.PriceAtUnfreeze)
	if err != nil {
		return amount.Zero(), fmt.Errorf("%w: supporters share: %v", ErrInvariant, err)
	}
	interest := c.TotalDeposited.SaturatingSub(supportersShare)
	return interest.SaturatingSub(c.AssetWithdrawn[CampaignOwner()]), nil
}

// HasOpenPosition reports whether the supporter still has anything to take
// out of the campaign: a deposit to refund, principal to withdraw or reward
// to claim.
func (c *Campaign) HasOpenPosition(supporter AccountID) (bool, error) {
	if c.Deposits[supporter].IsZero() {
		return false, nil
	}
	if !c.IsSuccessful() {
		return true, nil
	}
	owner := SupporterOwner(supporter)
	total, err := c.TotalRewardFor(supporter)
	if err != nil {
		return false, err
	}
	if c.RewardWithdrawn[owner].Lt(total) {
		return true, nil
	}
	if !c.IsUnfrozen() {
		return true, nil
	}
	repriced, err := c.AfterUnfreezeDeposit(supporter)
	if err != nil {
		return false, err
	}
	return c.AssetWithdrawn[owner].Lt(repriced), nil
}
