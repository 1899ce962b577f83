package kickstarter

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

func (uc *DefaultKickstarterUsecase) fetchPrice(ctx context.Context, source string) (amount.Balance, error) {
	started := time.Now()
	price, err := uc.Oracle.CurrentExchangeRate(ctx, source)
	uc.Metrics.RecordOracleRequest(err == nil, time.Since(started).Seconds())
	if err != nil {
		return amount.Zero(), fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}
	if price.IsZero() {
		return amount.Zero(), fmt.Errorf("%w: oracle returned zero for %s", domain.ErrPriceUnavailable, source)
	}
	return price, nil
}

// ProcessCampaign evaluates a campaign whose funding window has closed. An
// oracle failure leaves the campaign untouched.
func (uc *DefaultKickstarterUsecase) ProcessCampaign(ctx context.Context, id domain.CampaignID, now time.Time) (domain.CampaignState, error) {
	c, err := uc.Store.Campaigns().GetCampaign(ctx, id)
	if err != nil {
		return "", err
	}
	goal, err := c.BeginEvaluation(now)
	if err != nil {
		return c.State(now), err
	}

	var price amount.Balance
	if goal != nil {
		if price, err = uc.fetchPrice(ctx, c.PriceSource); err != nil {
			uc.Metrics.RecordError("process_campaign", errorType(err))
			return c.State(now), err
		}
	}

	var evaluated *domain.Campaign
	err = uc.mutateCampaign(ctx, id, func(tx domain.Store, c *domain.Campaign) error {
		reached, err := c.BeginEvaluation(now)
		if err != nil {
			return err
		}
		// The total freezes at evaluation, so every refund that moved it
		// must be resolved first.
		pending, err := tx.Settlements().HasPendingTotalAdjustment(ctx, c.ID)
		if err != nil {
			return err
		}
		if pending {
			return fmt.Errorf("%w: campaign %d", domain.ErrRefundsPending, c.ID)
		}
		if reached == nil {
			err = c.MarkFailed(now)
		} else if price.IsZero() {
			// Deposits restored by a compensation after close can lift a
			// campaign over its first goal; retry to fetch the price.
			err = fmt.Errorf("%w: campaign %d reached a goal after the first read", domain.ErrPriceUnavailable, c.ID)
		} else {
			err = c.MarkSucceeded(reached.ID, price, now)
		}
		evaluated = c
		return err
	})
	if err != nil {
		uc.Metrics.RecordError("process_campaign", errorType(err))
		return "", err
	}

	ev := domain.Event{CampaignID: id, Amount: evaluated.TotalDeposited, OccurredAt: now}
	log := uc.Logger.Info().Uint32("campaign_id", uint32(id)).Str("total_deposited", evaluated.TotalDeposited.String())
	if evaluated.IsSuccessful() {
		ev.Type = domain.EventCampaignSucceeded
		uc.Metrics.RecordEvaluation("succeeded")
		log.Uint8("winner_goal_id", uint8(*evaluated.WinnerGoalID)).
			Str("price_at_freeze", evaluated.PriceAtFreeze.String()).
			Str("platform_fee", evaluated.PlatformFee.String()).
			Msg("campaign succeeded")
	} else {
		ev.Type = domain.EventCampaignFailed
		uc.Metrics.RecordEvaluation("failed")
		log.Msg("campaign failed")
	}
	uc.publish(ctx, ev)
	return evaluated.State(now), nil
}

// UnfreezeCampaign captures the unfreeze price of a successful campaign once
// its winning goal unlocks.
func (uc *DefaultKickstarterUsecase) UnfreezeCampaign(ctx context.Context, id domain.CampaignID, now time.Time) error {
	c, err := uc.Store.Campaigns().GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	if err := c.BeginUnfreeze(now); err != nil {
		return err
	}
	price, err := uc.fetchPrice(ctx, c.PriceSource)
	if err != nil {
		uc.Metrics.RecordError("unfreeze_campaign", errorType(err))
		return err
	}

	err = uc.mutateCampaign(ctx, id, func(_ domain.Store, c *domain.Campaign) error {
		return c.SetUnfreezePrice(price, now)
	})
	if err != nil {
		uc.Metrics.RecordError("unfreeze_campaign", errorType(err))
		return err
	}

	uc.Metrics.RecordUnfreeze()
	uc.Logger.Info().
		Uint32("campaign_id", uint32(id)).
		Str("price_at_unfreeze", price.String()).
		Msg("campaign unfrozen")
	uc.publish(ctx, domain.Event{Type: domain.EventCampaignUnfrozen, CampaignID: id, Amount: price, OccurredAt: now})
	return nil
}

type BatchResult struct {
	Processed int
	Failed    int
}

// ProcessDueCampaigns evaluates every campaign on the evaluation worklist.
func (uc *DefaultKickstarterUsecase) ProcessDueCampaigns(ctx context.Context, now time.Time, limit int) (BatchResult, error) {
	ids, err := uc.Store.Campaigns().ListCampaignsToEvaluate(ctx, now, limit)
	if err != nil {
		return BatchResult{}, err
	}
	var res BatchResult
	for _, id := range ids {
		if _, err := uc.ProcessCampaign(ctx, id, now); err != nil {
			res.Failed++
			uc.Logger.Error().Err(err).Uint32("campaign_id", uint32(id)).Msg("campaign evaluation failed")
			continue
		}
		res.Processed++
	}
	return res, nil
}

// UnfreezeDueCampaigns captures the unfreeze price of every unlocked campaign.
func (uc *DefaultKickstarterUsecase) UnfreezeDueCampaigns(ctx context.Context, now time.Time, limit int) (BatchResult, error) {
	ids, err := uc.Store.Campaigns().ListCampaignsToUnfreeze(ctx, now, limit)
	if err != nil {
		return BatchResult{}, err
	}
	var res BatchResult
	for _, id := range ids {
		if err := uc.UnfreezeCampaign(ctx, id, now); err != nil {
			res.Failed++
			uc.Logger.Error().Err(err).Uint32("campaign_id", uint32(id)).Msg("campaign unfreeze failed")
			continue
		}
		res.Processed++
	}
	return res, nil
}
