package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

func unfrozenCampaign(t *testing.T) *Campaign {
	t.Helper()
	c := succeededCampaign(t)
	require.NoError(t, c.SetUnfreezePrice(units(2), at(10)))
	return c
}

func failedCampaign(t *testing.T) *Campaign {
	t.Helper()
	c := fundedCampaign(t)
	require.NoError(t, c.RecordDeposit(alice, units(50), at(1.5)))
	require.NoError(t, c.MarkFailed(at(2)))
	return c
}

func TestWithdrawable_Gates(t *testing.T) {
	funded := fundedCampaign(t)
	require.NoError(t, funded.RecordDeposit(alice, units(50), at(1.5)))

	_, err := funded.Withdrawable(KindDepositRefund, SupporterOwner(alice), at(2.5))
	assert.ErrorIs(t, err, ErrAwaitingEvaluation)
	v, err := funded.Withdrawable(KindDepositRefund, SupporterOwner(alice), at(1.6))
	require.NoError(t, err)
	assert.Equal(t, units(50), v)
	_, err = funded.Withdrawable(KindDepositRefund, CampaignOwner(), at(1.6))
	assert.ErrorIs(t, err, ErrInvalidInput)

	succeeded := succeededCampaign(t)
	_, err = succeeded.Withdrawable(KindDepositRefund, SupporterOwner(alice), at(3))
	assert.ErrorIs(t, err, ErrCampaignSuccessful)
	_, err = succeeded.Withdrawable(KindRewardClaim, SupporterOwner(alice), at(2.5))
	assert.ErrorIs(t, err, ErrBeforeCliff)
	_, err = succeeded.Withdrawable(KindPrincipalWithdrawal, SupporterOwner(alice), at(3))
	assert.ErrorIs(t, err, ErrNotUnfrozen)
	fee, err := succeeded.Withdrawable(KindFeeCollection, PlatformOwner(), at(3))
	require.NoError(t, err)
	assert.Equal(t, "3", fee.String())

	failed := failedCampaign(t)
	_, err = failed.Withdrawable(KindRewardClaim, SupporterOwner(alice), at(6))
	assert.ErrorIs(t, err, ErrCampaignNotSuccessful)
	refund, err := failed.Withdrawable(KindRewardRefund, CampaignOwner(), at(3))
	require.NoError(t, err)
	assert.Equal(t, "3030", refund.String())
}

func TestPlanWithdrawal_SweepsDust(t *testing.T) {
	c := failedCampaign(t)
	almost, err := units(50).Sub(amount.New(5))
	require.NoError(t, err)

	v, err := c.PlanWithdrawal(KindDepositRefund, SupporterOwner(alice), almost, at(3))
	require.NoError(t, err)
	assert.Equal(t, units(50), v)

	_, err = c.PlanWithdrawal(KindDepositRefund, SupporterOwner(alice), units(51), at(3))
	var insufficient *amount.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, units(50), insufficient.Available)
}

func TestDepositRefund_WithinWindowAdjustsTotal(t *testing.T) {
	c := fundedCampaign(t)
	require.NoError(t, c.RecordDeposit(alice, units(50), at(1.5)))

	adjusted, err := c.ApplyWithdrawal(KindDepositRefund, SupporterOwner(alice), units(20), at(1.6))
	require.NoError(t, err)
	assert.True(t, adjusted)
	assert.Equal(t, units(30), c.TotalDeposited)
	assert.Equal(t, units(30), c.DepositOf(alice))

	open, err := c.HasOpenPosition(alice)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestDepositRefund_AfterFailureKeepsTotal(t *testing.T) {
	c := failedCampaign(t)

	adjusted, err := c.ApplyWithdrawal(KindDepositRefund, SupporterOwner(alice), units(50), at(3))
	require.NoError(t, err)
	assert.False(t, adjusted)
	assert.Equal(t, units(50), c.TotalDeposited)
	_, present := c.Deposits[alice]
	assert.False(t, present)

	open, err := c.HasOpenPosition(alice)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestRewardClaim_CannotExceedVested(t *testing.T) {
	c := succeededCampaign(t)

	v, err := c.PlanWithdrawal(KindRewardClaim, SupporterOwner(alice), amount.New(60), at(4))
	require.NoError(t, err)
	_, err = c.ApplyWithdrawal(KindRewardClaim, SupporterOwner(alice), v, at(4))
	require.NoError(t, err)

	_, err = c.PlanWithdrawal(KindRewardClaim, SupporterOwner(alice), amount.New(1), at(4))
	assert.ErrorIs(t, err, ErrNothingAvailable)

	rest, err := c.Withdrawable(KindRewardClaim, SupporterOwner(alice), at(5))
	require.NoError(t, err)
	assert.Equal(t, "60", rest.String())
	assert.Equal(t, "240", c.LockedRewardTokens.String())
}

func TestCompensation_RestoresEveryKindExactly(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T) *Campaign
		kind  SettlementKind
		owner WithdrawalOwner
		at    time.Time
	}{
		{"refund within window", func(t *testing.T) *Campaign {
			c := fundedCampaign(t)
			require.NoError(t, c.RecordDeposit(alice, units(50), at(1.5)))
			return c
		}, KindDepositRefund, SupporterOwner(alice), at(1.6)},
		{"refund after failure", failedCampaign, KindDepositRefund, SupporterOwner(alice), at(3)},
		{"principal", unfrozenCampaign, KindPrincipalWithdrawal, SupporterOwner(bob), at(11)},
		{"reward claim", unfrozenCampaign, KindRewardClaim, SupporterOwner(bob), at(11)},
		{"interest", unfrozenCampaign, KindInterestWithdrawal, CampaignOwner(), at(11)},
		{"reward refund", unfrozenCampaign, KindRewardRefund, CampaignOwner(), at(11)},
		{"fee", unfrozenCampaign, KindFeeCollection, PlatformOwner(), at(11)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.setup(t)
			before := c.Clone()

			available, err := c.Withdrawable(tc.kind, tc.owner, tc.at)
			require.NoError(t, err)
			require.False(t, available.IsZero())

			adjusted, err := c.ApplyWithdrawal(tc.kind, tc.owner, available, tc.at)
			require.NoError(t, err)
			assert.NotEqual(t, before, c)

			s := &Settlement{Kind: tc.kind, Beneficiary: tc.owner, Amount: available, AdjustedTotal: adjusted}
			require.NoError(t, c.RevertWithdrawal(s, before.UpdatedAt))
			assert.Equal(t, before, c)
		})
	}
}

func TestRevertWithdrawal_RejectsUntrackedAmounts(t *testing.T) {
	c := unfrozenCampaign(t)
	s := &Settlement{Kind: KindPrincipalWithdrawal, Beneficiary: SupporterOwner(bob), Amount: units(1)}
	err := c.RevertWithdrawal(s, at(11))
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestHasOpenPosition_ClosesAfterEverythingIsTaken(t *testing.T) {
	c := unfrozenCampaign(t)
	now := at(11)

	for _, kind := range []SettlementKind{KindRewardClaim, KindPrincipalWithdrawal} {
		open, err := c.HasOpenPosition(alice)
		require.NoError(t, err)
		assert.True(t, open)

		v, err := c.Withdrawable(kind, SupporterOwner(alice), now)
		require.NoError(t, err)
		_, err = c.ApplyWithdrawal(kind, SupporterOwner(alice), v, now)
		require.NoError(t, err)
	}

	open, err := c.HasOpenPosition(alice)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestSettlement_ResolvesOnce(t *testing.T) {
	s := &Settlement{ID: "s1", Status: SettlementPending}
	require.NoError(t, s.Commit(at(1)))
	assert.ErrorIs(t, s.Commit(at(2)), ErrSettlementResolved)
	assert.ErrorIs(t, s.Compensate("late", at(2)), ErrSettlementResolved)
	assert.Equal(t, SettlementCommitted, s.Status)
}
