package kickstarter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

func TestProcessCampaign_OracleFailureLeavesCampaignUntouched(t *testing.T) {
	f := newFixture(t)
	id := f.fundedCampaign(t)
	f.deposit(t, id, alice, 150)
	before := f.campaign(t, id)

	_, err := f.uc.ProcessCampaign(f.ctx, id, at(2))
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
	assert.Equal(t, before, f.campaign(t, id))
	assert.Equal(t, 1, f.oracle.Calls)

	f.oracle.Set(priceSource, units(1))
	state, err := f.uc.ProcessCampaign(f.ctx, id, at(2.5))
	require.NoError(t, err)
	assert.Equal(t, domain.StateFrozen, state)

	c := f.campaign(t, id)
	require.NotNil(t, c.WinnerGoalID)
	assert.Equal(t, domain.GoalID(0), *c.WinnerGoalID)
	assert.Equal(t, "300", c.TotalTokensToRelease.String())
	assert.Equal(t, "3", c.PlatformFee.String())
	assert.Equal(t, "300", c.LockedRewardTokens.String())
	assert.Equal(t, "2727", c.AvailableRewardTokens.String())
	assert.Equal(t, at(10), *c.UnfreezeAt)
	assert.False(t, c.Active)

	_, err = f.uc.ProcessCampaign(f.ctx, id, at(3))
	assert.ErrorIs(t, err, domain.ErrAlreadyEvaluated)
}

func TestProcessCampaign_ZeroPriceIsUnavailable(t *testing.T) {
	f := newFixture(t)
	id := f.fundedCampaign(t)
	f.deposit(t, id, alice, 150)
	f.oracle.Set(priceSource, amount.Zero())

	_, err := f.uc.ProcessCampaign(f.ctx, id, at(2))
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
	assert.False(t, f.campaign(t, id).IsEvaluated())
}

func TestProcessCampaign_FailureNeedsNoPrice(t *testing.T) {
	f := newFixture(t)
	id := f.failedCampaign(t)

	assert.Zero(t, f.oracle.Calls)
	c := f.campaign(t, id)
	assert.True(t, c.IsFailed())
	assert.Contains(t, f.events.Types(), domain.EventCampaignFailed)
}

func TestProcessCampaign_WindowStillOpen(t *testing.T) {
	f := newFixture(t)
	id := f.fundedCampaign(t)

	_, err := f.uc.ProcessCampaign(f.ctx, id, at(1.5))
	assert.ErrorIs(t, err, domain.ErrFundingWindowOpen)
}

func TestUnfreezeCampaign(t *testing.T) {
	f := newFixture(t)
	id := f.succeededCampaign(t)

	err := f.uc.UnfreezeCampaign(f.ctx, id, at(9))
	assert.ErrorIs(t, err, domain.ErrBeforeUnfreeze)

	f.oracle.Clear(priceSource)
	err = f.uc.UnfreezeCampaign(f.ctx, id, at(10))
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
	assert.False(t, f.campaign(t, id).IsUnfrozen())

	f.oracle.Set(priceSource, units(2))
	require.NoError(t, f.uc.UnfreezeCampaign(f.ctx, id, at(10)))
	c := f.campaign(t, id)
	assert.Equal(t, units(2), *c.PriceAtUnfreeze)

	err = f.uc.UnfreezeCampaign(f.ctx, id, at(11))
	assert.ErrorIs(t, err, domain.ErrAlreadyUnfrozen)

	out, err := f.uc.GetCampaign(f.ctx, id, at(11))
	require.NoError(t, err)
	assert.Equal(t, string(domain.StateUnfrozen), out.State)
}

func TestDueCampaignBatches(t *testing.T) {
	f := newFixture(t)
	failed := f.fundedCampaign(t)
	f.deposit(t, failed, alice, 10)
	frozen := f.fundedCampaign(t)
	f.deposit(t, frozen, bob, 150)
	f.oracle.Set(priceSource, units(1))

	work, err := f.uc.Worklist(f.ctx, at(2), 0)
	require.NoError(t, err)
	assert.Equal(t, []uint32{uint32(failed), uint32(frozen)}, work.ToEvaluate)
	assert.Empty(t, work.ToUnfreeze)

	res, err := f.uc.ProcessDueCampaigns(f.ctx, at(2), 10)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Processed: 2}, res)
	assert.True(t, f.campaign(t, failed).IsFailed())
	assert.True(t, f.campaign(t, frozen).IsSuccessful())

	work, err = f.uc.Worklist(f.ctx, at(10), 0)
	require.NoError(t, err)
	assert.Empty(t, work.ToEvaluate)
	assert.Equal(t, []uint32{uint32(frozen)}, work.ToUnfreeze)

	f.oracle.Clear(priceSource)
	res, err = f.uc.UnfreezeDueCampaigns(f.ctx, at(10), 10)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Failed: 1}, res)

	f.oracle.Set(priceSource, units(2))
	res, err = f.uc.UnfreezeDueCampaigns(f.ctx, at(10), 10)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Processed: 1}, res)
	assert.True(t, f.campaign(t, frozen).IsUnfrozen())
}

func TestProcessCampaign_WaitsForRefundsThatMovedTheTotal(t *testing.T) {
	f := newFixture(t)
	id := f.fundedCampaign(t)
	f.deposit(t, id, alice, 60)
	f.deposit(t, id, bob, 90)
	f.oracle.Set(priceSource, units(1))

	refund, err := f.uc.RefundDeposit(f.ctx, bob, withdrawIn(id, unitsStr(40)), at(1.6))
	require.NoError(t, err)
	assert.Equal(t, units(110), f.campaign(t, id).TotalDeposited)

	_, err = f.uc.ProcessCampaign(f.ctx, id, at(2))
	assert.ErrorIs(t, err, domain.ErrRefundsPending)
	assert.False(t, f.campaign(t, id).IsEvaluated())

	res, err := f.uc.ProcessDueCampaigns(f.ctx, at(2), 10)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Failed: 1}, res)

	// The failed refund lands before the total freezes.
	f.resolve(t, refund.ID, false, at(2.1))
	c := f.campaign(t, id)
	assert.Equal(t, units(150), c.TotalDeposited)
	assert.Equal(t, units(90), c.DepositOf(bob))

	state, err := f.uc.ProcessCampaign(f.ctx, id, at(2.2))
	require.NoError(t, err)
	assert.Equal(t, domain.StateFrozen, state)
	assert.Equal(t, "300", f.campaign(t, id).TotalTokensToRelease.String())

	// Every supporter can claim in full; nothing is left locked.
	for who, reward := range map[domain.AccountID]string{alice: "120", bob: "180"} {
		s, err := f.uc.ClaimReward(f.ctx, who, withdrawIn(id, reward), at(6))
		require.NoError(t, err, who)
		f.resolve(t, s.ID, true, at(6))
	}
	assert.True(t, f.campaign(t, id).LockedRewardTokens.IsZero())
}

func TestRevertWithdrawal_RefusesToMoveFrozenTotal(t *testing.T) {
	f := newFixture(t)
	id := f.succeededCampaign(t)
	c := f.campaign(t, id)

	err := c.RevertWithdrawal(&domain.Settlement{
		ID:            "late",
		CampaignID:    id,
		Kind:          domain.KindDepositRefund,
		Beneficiary:   domain.SupporterOwner(bob),
		Amount:        units(40),
		AdjustedTotal: true,
	}, at(3))
	assert.ErrorIs(t, err, domain.ErrInvariant)
	assert.Equal(t, units(150), c.TotalDeposited)
}
