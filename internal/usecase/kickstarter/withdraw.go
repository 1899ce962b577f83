package kickstarter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
)

func (uc *DefaultKickstarterUsecase) withdraw(ctx context.Context, kind domain.SettlementKind, owner domain.WithdrawalOwner, in *campaigndto.WithdrawInput, authorize func(c *domain.Campaign) error, now time.Time) (*campaigndto.SettlementOutput, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	requested, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	s, err := uc.startSettlement(ctx, withdrawal{
		kind:       kind,
		campaignID: domain.CampaignID(in.CampaignID),
		owner:      owner,
		requested:  requested,
		authorize:  authorize,
	}, now)
	if err != nil {
		return nil, err
	}
	return settlementOutput(s), nil
}

func supporterOwner(caller domain.AccountID) (domain.WithdrawalOwner, error) {
	if caller == "" {
		return domain.WithdrawalOwner{}, fmt.Errorf("%w: anonymous caller", domain.ErrUnauthorized)
	}
	return domain.SupporterOwner(caller), nil
}

func ownerOnly(caller domain.AccountID) func(c *domain.Campaign) error {
	return func(c *domain.Campaign) error {
		if caller != c.Owner {
			return fmt.Errorf("%w: %q does not own campaign %d", domain.ErrUnauthorized, caller, c.ID)
		}
		return nil
	}
}

// RefundDeposit returns a supporter's deposit while the window is open or
// after the campaign failed.
func (uc *DefaultKickstarterUsecase) RefundDeposit(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error) {
	owner, err := supporterOwner(caller)
	if err != nil {
		return nil, err
	}
	return uc.withdraw(ctx, domain.KindDepositRefund, owner, in, nil, now)
}

// WithdrawPrincipal pays out a supporter's repriced deposit after unfreeze.
func (uc *DefaultKickstarterUsecase) WithdrawPrincipal(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error) {
	owner, err := supporterOwner(caller)
	if err != nil {
		return nil, err
	}
	return uc.withdraw(ctx, domain.KindPrincipalWithdrawal, owner, in, nil, now)
}

func (uc *DefaultKickstarterUsecase) ClaimReward(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error) {
	owner, err := supporterOwner(caller)
	if err != nil {
		return nil, err
	}
	return uc.withdraw(ctx, domain.KindRewardClaim, owner, in, nil, now)
}

// WithdrawInterest pays the campaign owner the price spread on the frozen
// deposits. When the winning goal has unlocked but the unfreeze price is
// still missing it is captured first.
func (uc *DefaultKickstarterUsecase) WithdrawInterest(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	c, err := uc.Store.Campaigns().GetCampaign(ctx, domain.CampaignID(in.CampaignID))
	if err != nil {
		return nil, err
	}
	if err := ownerOnly(caller)(c); err != nil {
		return nil, err
	}
	if c.NeedsUnfreeze(now) {
		if err := uc.UnfreezeCampaign(ctx, c.ID, now); err != nil && !errors.Is(err, domain.ErrAlreadyUnfrozen) {
			return nil, err
		}
	}
	return uc.withdraw(ctx, domain.KindInterestWithdrawal, domain.CampaignOwner(), in, ownerOnly(caller), now)
}

// RefundRewardTokens returns reward inventory the campaign no longer needs:
// everything after a failure, the unreserved remainder after a success.
func (uc *DefaultKickstarterUsecase) RefundRewardTokens(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error) {
	return uc.withdraw(ctx, domain.KindRewardRefund, domain.CampaignOwner(), in, ownerOnly(caller), now)
}

func (uc *DefaultKickstarterUsecase) CollectPlatformFee(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error) {
	if err := uc.requireAdmin(caller); err != nil {
		return nil, err
	}
	return uc.withdraw(ctx, domain.KindFeeCollection, domain.PlatformOwner(), in, nil, now)
}
