package domain

import (
	"fmt"
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

type SettlementKind string

const (
	KindDepositRefund       SettlementKind = "deposit_refund"
	KindPrincipalWithdrawal SettlementKind = "principal_withdrawal"
	KindRewardClaim         SettlementKind = "reward_claim"
	KindInterestWithdrawal  SettlementKind = "interest_withdrawal"
	KindRewardRefund        SettlementKind = "reward_refund"
	KindFeeCollection       SettlementKind = "fee_collection"
)

var SettlementKinds = []SettlementKind{
	KindDepositRefund,
	KindPrincipalWithdrawal,
	KindRewardClaim,
	KindInterestWithdrawal,
	KindRewardRefund,
	KindFeeCollection,
}

type Asset string

const (
	AssetDeposit Asset = "deposit"
	AssetReward  Asset = "reward"
)

func (k SettlementKind) Asset() Asset {
	switch k {
	case KindRewardClaim, KindRewardRefund, KindFeeCollection:
		return AssetReward
	default:
		return AssetDeposit
	}
}

func (k SettlementKind) Valid() bool {
	for _, known := range SettlementKinds {
		if k == known {
			return true
		}
	}
	return false
}

type SettlementStatus string

const (
	SettlementPending     SettlementStatus = "pending"
	SettlementCommitted   SettlementStatus = "committed"
	SettlementCompensated SettlementStatus = "compensated"
)

// Settlement is one outbound transfer together with everything needed to undo
// its ledger mutation if the transfer fails.
type Settlement struct {
	ID              string
	CampaignID      CampaignID
	Kind            SettlementKind
	Beneficiary     WithdrawalOwner
	Receiver        AccountID
	Token           AccountID
	Amount          amount.Balance
	AdjustedTotal   bool
	RemovedPosition bool
	Memo            string
	Status          SettlementStatus
	FailureReason   string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}

func (s *Settlement) IsPending() bool { return s.Status == SettlementPending }

func (s *Settlement) Commit(now time.Time) error {
	if !s.IsPending() {
		return fmt.Errorf("%w: settlement %s is %s", ErrSettlementResolved, s.ID, s.Status)
	}
	s.Status = SettlementCommitted
	s.ResolvedAt = &now
	return nil
}

func (s *Settlement) Compensate(reason string, now time.Time) error {
	if !s.IsPending() {
		return fmt.Errorf("%w: settlement %s is %s", ErrSettlementResolved, s.ID, s.Status)
	}
	s.Status = SettlementCompensated
	s.FailureReason = reason
	s.ResolvedAt = &now
	return nil
}

// Withdrawable returns how much of the asset behind kind the owner may move
// out of the campaign right now.
func (c *Campaign) Withdrawable(kind SettlementKind, owner WithdrawalOwner, now time.Time) (amount.Balance, error) {
	switch kind {
	case KindDepositRefund, KindPrincipalWithdrawal, KindRewardClaim:
		if !owner.IsSupporter() {
			return amount.Zero(), fmt.Errorf("%w: %s needs a supporter, got %s", ErrInvalidInput, kind, owner)
		}
	case KindInterestWithdrawal, KindRewardRefund:
		if owner != CampaignOwner() {
			return amount.Zero(), fmt.Errorf("%w: %s belongs to the campaign, got %s", ErrInvalidInput, kind, owner)
		}
	case KindFeeCollection:
		if owner != PlatformOwner() {
			return amount.Zero(), fmt.Errorf("%w: %s belongs to the platform, got %s", ErrInvalidInput, kind, owner)
		}
	default:
		return amount.Zero(), fmt.Errorf("%w: settlement kind %q", ErrInvalidInput, kind)
	}

	switch kind {
	case KindDepositRefund:
		switch {
		case c.IsSuccessful():
			return amount.Zero(), fmt.Errorf("%w: campaign %d", ErrCampaignSuccessful, c.ID)
		case c.IsFailed(), c.IsWithinFundingWindow(now):
		case now.Before(c.OpenAt):
			return amount.Zero(), fmt.Errorf("%w: campaign %d opens at %s", ErrFundingWindowClosed, c.ID, c.OpenAt.UTC().Format(time.RFC3339))
		default:
			return amount.Zero(), fmt.Errorf("%w: campaign %d", ErrAwaitingEvaluation, c.ID)
		}
		return c.Deposits[owner.Account], nil

	case KindPrincipalWithdrawal:
		if !c.IsSuccessful() {
			return amount.Zero(), fmt.Errorf("%w: campaign %d", ErrCampaignNotSuccessful, c.ID)
		}
		return c.AvailablePrincipalFor(owner.Account)

	case KindRewardClaim:
		goal, err := c.WinnerGoal()
		if err != nil {
			return amount.Zero(), err
		}
		if now.Before(goal.CliffAt) {
			return amount.Zero(), fmt.Errorf("%w: cliff at %s", ErrBeforeCliff, goal.CliffAt.UTC().Format(time.RFC3339))
		}
		return c.AvailableRewardFor(owner.Account, now)

	case KindInterestWithdrawal:
		return c.AvailableInterest()

	case KindRewardRefund:
		if !c.IsEvaluated() {
			return amount.Zero(), fmt.Errorf("%w: campaign %d", ErrAwaitingEvaluation, c.ID)
		}
		return c.AvailableRewardTokens, nil

	default:
		if !c.IsSuccessful() || c.PlatformFee == nil {
			return amount.Zero(), fmt.Errorf("%w: campaign %d", ErrCampaignNotSuccessful, c.ID)
		}
		return c.PlatformFee.SaturatingSub(c.RewardWithdrawn[PlatformOwner()]), nil
	}
}

// PlanWithdrawal resolves a requested amount into the amount that will
// actually move, sweeping dust below one thousandth of the asset's unit.
func (c *Campaign) PlanWithdrawal(kind SettlementKind, owner WithdrawalOwner, requested amount.Balance, now time.Time) (amount.Balance, error) {
	available, err := c.Withdrawable(kind, owner, now)
	if err != nil {
		return amount.Zero(), err
	}
	v, err := amount.SweepDust(requested, available, amount.DustThreshold(c.decimalsOf(kind.Asset())))
	if err != nil {
		return amount.Zero(), fmt.Errorf("%s for %s: %w", kind, owner, err)
	}
	return v, nil
}

func (c *Campaign) decimalsOf(a Asset) uint8 {
	if a == AssetReward {
		return c.RewardDecimals
	}
	return DepositDecimals
}

// ApplyWithdrawal performs the optimistic ledger mutation of a settlement. It
// reports whether the live deposit total was reduced so the exact inverse can
// be applied later. On error the campaign is left untouched.
func (c *Campaign) ApplyWithdrawal(kind SettlementKind, owner WithdrawalOwner, v amount.Balance, now time.Time) (bool, error) {
	if v.IsZero() {
		return false, fmt.Errorf("%w: zero withdrawal", ErrInvalidInput)
	}
	adjusted := false
	switch kind {
	case KindDepositRefund:
		deposit, err := c.Deposits[owner.Account].Sub(v)
		if err != nil {
			return false, fmt.Errorf("%w: refunding %s: %v", ErrInvariant, owner, err)
		}
		total := c.TotalDeposited
		if c.IsWithinFundingWindow(now) {
			if total, err = total.Sub(v); err != nil {
				return false, fmt.Errorf("%w: total deposited: %v", ErrInvariant, err)
			}
			adjusted = true
		}
		if deposit.IsZero() {
			delete(c.Deposits, owner.Account)
		} else {
			c.Deposits[owner.Account] = deposit
		}
		c.TotalDeposited = total

	case KindPrincipalWithdrawal, KindInterestWithdrawal:
		if err := credit(c.AssetWithdrawn, owner, v); err != nil {
			return false, err
		}

	case KindRewardClaim:
		locked, err := c.LockedRewardTokens.Sub(v)
		if err != nil {
			return false, fmt.Errorf("%w: locked rewards: %v", ErrInvariant, err)
		}
		if err := credit(c.RewardWithdrawn, owner, v); err != nil {
			return false, err
		}
		c.LockedRewardTokens = locked

	case KindRewardRefund:
		available, err := c.AvailableRewardTokens.Sub(v)
		if err != nil {
			return false, fmt.Errorf("%w: reward inventory: %v", ErrInvariant, err)
		}
		if err := credit(c.RewardWithdrawn, owner, v); err != nil {
			return false, err
		}
		c.AvailableRewardTokens = available

	case KindFeeCollection:
		if err := credit(c.RewardWithdrawn, owner, v); err != nil {
			return false, err
		}

	default:
		return false, fmt.Errorf("%w: settlement kind %q", ErrInvalidInput, kind)
	}
	c.UpdatedAt = now
	return adjusted, nil
}

// RevertWithdrawal undoes exactly the mutation ApplyWithdrawal made for s.
func (c *Campaign) RevertWithdrawal(s *Settlement, now time.Time) error {
	switch s.Kind {
	case KindDepositRefund:
		if s.AdjustedTotal && c.IsEvaluated() {
			return fmt.Errorf("%w: restoring total of evaluated campaign %d", ErrInvariant, c.ID)
		}
		deposit, err := c.Deposits[s.Beneficiary.Account].Add(s.Amount)
		if err != nil {
			return fmt.Errorf("%w: restoring deposit: %v", ErrInvariant, err)
		}
		total := c.TotalDeposited
		if s.AdjustedTotal {
			if total, err = total.Add(s.Amount); err != nil {
				return fmt.Errorf("%w: restoring total: %v", ErrInvariant, err)
			}
		}
		c.Deposits[s.Beneficiary.Account] = deposit
		c.TotalDeposited = total

	case KindPrincipalWithdrawal, KindInterestWithdrawal:
		if err := debit(c.AssetWithdrawn, s.Beneficiary, s.Amount); err != nil {
			return err
		}

	case KindRewardClaim:
		locked, err := c.LockedRewardTokens.Add(s.Amount)
		if err != nil {
			return fmt.Errorf("%w: restoring locked rewards: %v", ErrInvariant, err)
		}
		if err := debit(c.RewardWithdrawn, s.Beneficiary, s.Amount); err != nil {
			return err
		}
		c.LockedRewardTokens = locked

	case KindRewardRefund:
		available, err := c.AvailableRewardTokens.Add(s.Amount)
		if err != nil {
			return fmt.Errorf("%w: restoring reward inventory: %v", ErrInvariant, err)
		}
		if err := debit(c.RewardWithdrawn, s.Beneficiary, s.Amount); err != nil {
			return err
		}
		c.AvailableRewardTokens = available

	case KindFeeCollection:
		if err := debit(c.RewardWithdrawn, s.Beneficiary, s.Amount); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: settlement kind %q", ErrInvariant, s.Kind)
	}
	c.UpdatedAt = now
	return nil
}
