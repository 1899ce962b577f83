package kickstarter

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
)

const defaultPageSize = 20

func (uc *DefaultKickstarterUsecase) GetCampaign(ctx context.Context, id domain.CampaignID, now time.Time) (*campaigndto.CampaignOutput, error) {
	c, err := uc.Store.Campaigns().GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	out := campaigndto.FromCampaign(c, now)
	return &out, nil
}

func (uc *DefaultKickstarterUsecase) GetCampaignBySlug(ctx context.Context, slug string, now time.Time) (*campaigndto.CampaignOutput, error) {
	c, err := uc.Store.Campaigns().GetCampaignBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	out := campaigndto.FromCampaign(c, now)
	return &out, nil
}

func (uc *DefaultKickstarterUsecase) ListCampaigns(ctx context.Context, in *campaigndto.ListCampaignsInput, now time.Time) (*campaigndto.CampaignPage, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	limit := in.Limit
	if limit == 0 {
		limit = defaultPageSize
	}
	campaigns, total, err := uc.Store.Campaigns().ListCampaigns(ctx, in.Offset, limit)
	if err != nil {
		return nil, err
	}
	page := &campaigndto.CampaignPage{Campaigns: make([]campaigndto.CampaignOutput, 0, len(campaigns)), Total: total}
	for _, c := range campaigns {
		page.Campaigns = append(page.Campaigns, campaigndto.FromCampaign(c, now))
	}
	return page, nil
}

// GetSupporter lists the positions the account still holds.
func (uc *DefaultKickstarterUsecase) GetSupporter(ctx context.Context, account domain.AccountID, now time.Time) (*campaigndto.SupporterOutput, error) {
	s, err := uc.Store.Supporters().GetSupporter(ctx, account)
	if err != nil {
		return nil, err
	}
	out := &campaigndto.SupporterOutput{Account: string(s.ID), Positions: make([]campaigndto.PositionOutput, 0, len(s.Campaigns))}
	for _, id := range s.Campaigns {
		c, err := uc.Store.Campaigns().GetCampaign(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("position in campaign %d: %w", id, err)
		}
		pos, err := position(c, account, now)
		if err != nil {
			return nil, err
		}
		out.Positions = append(out.Positions, pos)
	}
	return out, nil
}

func position(c *domain.Campaign, account domain.AccountID, now time.Time) (campaigndto.PositionOutput, error) {
	owner := domain.SupporterOwner(account)
	pos := campaigndto.PositionOutput{
		CampaignID:         uint32(c.ID),
		State:              string(c.State(now)),
		Deposit:            c.DepositOf(account),
		RewardWithdrawn:    c.RewardWithdrawn[owner],
		PrincipalWithdrawn: c.AssetWithdrawn[owner],
	}
	if !c.IsSuccessful() {
		return pos, nil
	}
	total, err := c.TotalRewardFor(account)
	if err != nil {
		return pos, err
	}
	available, err := c.AvailableRewardFor(account, now)
	if err != nil {
		return pos, err
	}
	pos.TotalReward = &total
	pos.AvailableReward = &available
	if !c.IsUnfrozen() {
		return pos, nil
	}
	repriced, err := c.AfterUnfreezeDeposit(account)
	if err != nil {
		return pos, err
	}
	principal := repriced.SaturatingSub(pos.PrincipalWithdrawn)
	pos.RepricedDeposit = &repriced
	pos.AvailablePrincipal = &principal
	return pos, nil
}

// GetSettlement reports a settlement's status. Pending means the transfer
// service has not answered yet, which is not a failure.
func (uc *DefaultKickstarterUsecase) GetSettlement(ctx context.Context, id string) (*campaigndto.SettlementOutput, error) {
	s, err := uc.Store.Settlements().GetSettlement(ctx, id)
	if err != nil {
		return nil, err
	}
	return settlementOutput(s), nil
}

func (uc *DefaultKickstarterUsecase) Worklist(ctx context.Context, now time.Time, limit int) (*campaigndto.WorklistOutput, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	evaluate, err := uc.Store.Campaigns().ListCampaignsToEvaluate(ctx, now, limit)
	if err != nil {
		return nil, err
	}
	unfreeze, err := uc.Store.Campaigns().ListCampaignsToUnfreeze(ctx, now, limit)
	if err != nil {
		return nil, err
	}
	out := &campaigndto.WorklistOutput{ToEvaluate: make([]uint32, 0, len(evaluate)), ToUnfreeze: make([]uint32, 0, len(unfreeze))}
	for _, id := range evaluate {
		out.ToEvaluate = append(out.ToEvaluate, uint32(id))
	}
	for _, id := range unfreeze {
		out.ToUnfreeze = append(out.ToUnfreeze, uint32(id))
	}
	return out, nil
}

// AvailableReward is the vested, unclaimed reward of one supporter.
func (uc *DefaultKickstarterUsecase) AvailableReward(ctx context.Context, id domain.CampaignID, account domain.AccountID, now time.Time) (amount.Balance, error) {
	c, err := uc.Store.Campaigns().GetCampaign(ctx, id)
	if err != nil {
		return amount.Zero(), err
	}
	return c.AvailableRewardFor(account, now)
}
