package kickstarter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
)

func (f *fixture) resolve(t *testing.T, id string, success bool, now time.Time) *campaigndto.SettlementOutput {
	t.Helper()
	out, err := f.uc.ResolveSettlement(f.ctx, &campaigndto.TransferResultInput{
		TransferID: id,
		Success:    success,
		Reason:     "receiver not registered",
	}, now)
	require.NoError(t, err)
	return out
}

func TestRefundAfterFailure_CommitDropsSupporter(t *testing.T) {
	f := newFixture(t)
	id := f.failedCampaign(t)

	s, err := f.uc.RefundDeposit(f.ctx, alice, withdrawIn(id, unitsStr(50)), at(3))
	require.NoError(t, err)
	assert.Equal(t, string(domain.SettlementPending), s.Status)
	assert.Equal(t, units(50), s.Amount)

	req, ok := f.transfers.Last()
	require.True(t, ok)
	assert.Equal(t, s.ID, req.TransferID)
	assert.Equal(t, domain.AccountID(depositToken), req.Token)
	assert.Equal(t, alice, req.Receiver)
	assert.Equal(t, units(50), req.Amount)
	assert.True(t, strings.HasPrefix(req.Memo, "kickstarter:0:deposit_refund:"))

	c := f.campaign(t, id)
	assert.True(t, c.DepositOf(alice).IsZero())
	// The total is frozen once the window closes.
	assert.Equal(t, units(50), c.TotalDeposited)

	sup, err := f.uc.GetSupporter(f.ctx, alice, at(3))
	require.NoError(t, err)
	assert.Empty(t, sup.Positions)

	out := f.resolve(t, s.ID, true, at(3.1))
	assert.Equal(t, string(domain.SettlementCommitted), out.Status)
	_, err = f.uc.GetSupporter(f.ctx, alice, at(3.1))
	assert.ErrorIs(t, err, domain.ErrSupporterNotFound)

	_, err = f.uc.ResolveSettlement(f.ctx, &campaigndto.TransferResultInput{TransferID: s.ID, Success: false}, at(3.2))
	assert.ErrorIs(t, err, domain.ErrSettlementResolved)
	assert.True(t, f.campaign(t, id).DepositOf(alice).IsZero())

	assert.Contains(t, f.events.Types(), domain.EventSettlementCommitted)
}

func TestRefundAfterFailure_CompensationRestoresLedger(t *testing.T) {
	f := newFixture(t)
	id := f.failedCampaign(t)
	before := f.campaign(t, id)

	s, err := f.uc.RefundDeposit(f.ctx, alice, withdrawIn(id, unitsStr(50)), at(3))
	require.NoError(t, err)

	out := f.resolve(t, s.ID, false, at(3.1))
	assert.Equal(t, string(domain.SettlementCompensated), out.Status)

	after := f.campaign(t, id)
	assert.Equal(t, before.Deposits, after.Deposits)
	assert.Equal(t, before.TotalDeposited, after.TotalDeposited)
	assert.Equal(t, before.AssetWithdrawn, after.AssetWithdrawn)

	sup, err := f.uc.GetSupporter(f.ctx, alice, at(3.1))
	require.NoError(t, err)
	require.Len(t, sup.Positions, 1)
	assert.Equal(t, units(50), sup.Positions[0].Deposit)

	// A compensated refund can be retried.
	_, err = f.uc.RefundDeposit(f.ctx, alice, withdrawIn(id, unitsStr(50)), at(3.2))
	require.NoError(t, err)
}

func TestRefundWithinWindow_AdjustsTotal(t *testing.T) {
	f := newFixture(t)
	id := f.fundedCampaign(t)
	f.deposit(t, id, alice, 60)

	s, err := f.uc.RefundDeposit(f.ctx, alice, withdrawIn(id, unitsStr(20)), at(1.6))
	require.NoError(t, err)
	assert.Equal(t, units(40), f.campaign(t, id).TotalDeposited)

	_, err = f.uc.RefundDeposit(f.ctx, alice, withdrawIn(id, unitsStr(10)), at(1.6))
	assert.ErrorIs(t, err, domain.ErrSettlementInFlight)

	f.resolve(t, s.ID, false, at(1.7))
	c := f.campaign(t, id)
	assert.Equal(t, units(60), c.TotalDeposited)
	assert.Equal(t, units(60), c.DepositOf(alice))
}

func TestRefundAfterCloseBeforeEvaluation(t *testing.T) {
	f := newFixture(t)
	id := f.fundedCampaign(t)
	f.deposit(t, id, alice, 60)

	_, err := f.uc.RefundDeposit(f.ctx, alice, withdrawIn(id, unitsStr(60)), at(2.5))
	assert.ErrorIs(t, err, domain.ErrAwaitingEvaluation)
	assert.Empty(t, f.transfers.Requests)
}

func TestSynchronousTransferFailureCompensates(t *testing.T) {
	f := newFixture(t)
	id := f.failedCampaign(t)
	f.transfers.Err = errors.New("connection refused")

	s, err := f.uc.RefundDeposit(f.ctx, alice, withdrawIn(id, unitsStr(50)), at(3))
	require.NoError(t, err)
	assert.Equal(t, string(domain.SettlementCompensated), s.Status)
	assert.Contains(t, s.FailureReason, "connection refused")
	assert.Equal(t, units(50), f.campaign(t, id).DepositOf(alice))

	f.transfers.Err = nil
	s, err = f.uc.RefundDeposit(f.ctx, alice, withdrawIn(id, unitsStr(50)), at(3.1))
	require.NoError(t, err)
	assert.Equal(t, string(domain.SettlementPending), s.Status)
}

func TestClaimReward_VestsLinearly(t *testing.T) {
	f := newFixture(t)
	id := f.succeededCampaign(t)

	_, err := f.uc.ClaimReward(f.ctx, alice, withdrawIn(id, "1"), at(2.5))
	assert.ErrorIs(t, err, domain.ErrBeforeCliff)

	avail, err := f.uc.AvailableReward(f.ctx, id, alice, at(4))
	require.NoError(t, err)
	assert.Equal(t, "60", avail.String())

	_, err = f.uc.ClaimReward(f.ctx, alice, withdrawIn(id, "61"), at(4))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	s, err := f.uc.ClaimReward(f.ctx, alice, withdrawIn(id, "60"), at(4))
	require.NoError(t, err)
	req, _ := f.transfers.Last()
	assert.Equal(t, domain.AccountID(rewardToken), req.Token)
	f.resolve(t, s.ID, true, at(4))

	avail, err = f.uc.AvailableReward(f.ctx, id, alice, at(5))
	require.NoError(t, err)
	assert.Equal(t, "60", avail.String())

	// Alice still holds principal, so her position stays open.
	s, err = f.uc.ClaimReward(f.ctx, alice, withdrawIn(id, "60"), at(5))
	require.NoError(t, err)
	f.resolve(t, s.ID, true, at(5))
	sup, err := f.uc.GetSupporter(f.ctx, alice, at(5))
	require.NoError(t, err)
	assert.Len(t, sup.Positions, 1)
}

func TestWithdrawInterest_CapturesUnfreezePrice(t *testing.T) {
	f := newFixture(t)
	id := f.succeededCampaign(t)

	_, err := f.uc.WithdrawInterest(f.ctx, alice, withdrawIn(id, unitsStr(1)), at(10))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	f.oracle.Set(priceSource, units(2))
	s, err := f.uc.WithdrawInterest(f.ctx, owner, withdrawIn(id, unitsStr(75)), at(10))
	require.NoError(t, err)
	assert.Equal(t, units(75), s.Amount)
	assert.True(t, f.campaign(t, id).IsUnfrozen())

	req, _ := f.transfers.Last()
	assert.Equal(t, owner, req.Receiver)
	assert.Equal(t, domain.AccountID(depositToken), req.Token)
	f.resolve(t, s.ID, true, at(10))

	// Principal is repriced: alice's 60 units are now worth 30.
	_, err = f.uc.WithdrawPrincipal(f.ctx, alice, withdrawIn(id, unitsStr(31)), at(10))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	s, err = f.uc.WithdrawPrincipal(f.ctx, alice, withdrawIn(id, unitsStr(30)), at(10))
	require.NoError(t, err)
	f.resolve(t, s.ID, true, at(10))

	// Rewards are fully vested, so the last claim closes the position.
	s, err = f.uc.ClaimReward(f.ctx, alice, withdrawIn(id, "120"), at(10))
	require.NoError(t, err)
	f.resolve(t, s.ID, true, at(10))
	_, err = f.uc.GetSupporter(f.ctx, alice, at(10))
	assert.ErrorIs(t, err, domain.ErrSupporterNotFound)
}

func TestWithdrawRequests_ValidatedBeforeLookup(t *testing.T) {
	f := newFixture(t)
	id := f.succeededCampaign(t)

	_, err := f.uc.WithdrawInterest(f.ctx, owner, nil, at(10))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.WithdrawInterest(f.ctx, owner, withdrawIn(99, "abc"), at(10))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.WithdrawPrincipal(f.ctx, alice, nil, at(10))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.ClaimReward(f.ctx, alice, nil, at(10))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.UpdateCampaign(f.ctx, admin, nil, at(10))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.DeleteLastGoal(f.ctx, admin, nil, at(10))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.False(t, f.campaign(t, id).IsUnfrozen())
}

func TestCollectPlatformFee(t *testing.T) {
	f := newFixture(t)
	id := f.succeededCampaign(t)

	_, err := f.uc.CollectPlatformFee(f.ctx, owner, withdrawIn(id, "3"), at(3))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	s, err := f.uc.CollectPlatformFee(f.ctx, admin, withdrawIn(id, "3"), at(3))
	require.NoError(t, err)
	req, _ := f.transfers.Last()
	assert.Equal(t, treasury, req.Receiver)
	assert.Equal(t, domain.AccountID(rewardToken), req.Token)
	f.resolve(t, s.ID, true, at(3))

	_, err = f.uc.CollectPlatformFee(f.ctx, admin, withdrawIn(id, "1"), at(3))
	assert.ErrorIs(t, err, domain.ErrNothingAvailable)
}

func TestRefundRewardTokens(t *testing.T) {
	f := newFixture(t)
	id := f.failedCampaign(t)

	s, err := f.uc.RefundRewardTokens(f.ctx, owner, withdrawIn(id, "3030"), at(3))
	require.NoError(t, err)
	assert.Equal(t, "3030", s.Amount.String())
	req, _ := f.transfers.Last()
	assert.Equal(t, owner, req.Receiver)
	assert.True(t, f.campaign(t, id).AvailableRewardTokens.IsZero())

	f.resolve(t, s.ID, false, at(3))
	assert.Equal(t, "3030", f.campaign(t, id).AvailableRewardTokens.String())
}

func TestCheckStuckSettlements(t *testing.T) {
	f := newFixture(t)
	id := f.failedCampaign(t)

	_, err := f.uc.RefundDeposit(f.ctx, alice, withdrawIn(id, unitsStr(50)), at(3))
	require.NoError(t, err)

	n, err := f.uc.CheckStuckSettlements(f.ctx, at(3.5), time.Hour, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.uc.CheckStuckSettlements(f.ctx, at(5), time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
