package kickstarter

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/gookit/validate"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
)

func validateInput(in any) error {
	if rv := reflect.ValueOf(in); !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return fmt.Errorf("%w: empty request", domain.ErrInvalidInput)
	}
	v := validate.Struct(in)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, v.Errors.One())
	}
	return nil
}

func parseAmount(field, s string) (amount.Balance, error) {
	if s == "" {
		return amount.Zero(), nil
	}
	v, err := amount.Parse(s)
	if err != nil {
		return amount.Zero(), fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, field, err)
	}
	return v, nil
}

func (uc *DefaultKickstarterUsecase) campaignParams(in *campaigndto.CreateCampaignInput) (domain.NewCampaignParams, error) {
	if err := validateInput(in); err != nil {
		return domain.NewCampaignParams{}, err
	}
	hardCap, err := parseAmount("hard_cap", in.HardCap)
	if err != nil {
		return domain.NewCampaignParams{}, err
	}
	minDeposit, err := parseAmount("min_deposit", in.MinDeposit)
	if err != nil {
		return domain.NewCampaignParams{}, err
	}
	return domain.NewCampaignParams{
		Slug:           in.Slug,
		Owner:          domain.AccountID(in.Owner),
		OpenAt:         in.OpenAt,
		CloseAt:        in.CloseAt,
		RewardToken:    domain.AccountID(in.RewardToken),
		RewardDecimals: in.RewardDecimals,
		PriceSource:    in.PriceSource,
		PlatformFeeBps: uc.Params.PlatformFeeBps,
		HardCap:        hardCap,
		MinDeposit:     minDeposit,
	}, nil
}

func (uc *DefaultKickstarterUsecase) CreateCampaign(ctx context.Context, caller domain.AccountID, in *campaigndto.CreateCampaignInput, now time.Time) (*campaigndto.CampaignOutput, error) {
	if err := uc.requireAdmin(caller); err != nil {
		return nil, err
	}
	params, err := uc.campaignParams(in)
	if err != nil {
		return nil, err
	}

	var created *domain.Campaign
	err = uc.Store.Atomic(ctx, func(tx domain.Store) error {
		if _, err := tx.Campaigns().GetCampaignBySlug(ctx, params.Slug); err == nil {
			return fmt.Errorf("%w: %s", domain.ErrSlugTaken, params.Slug)
		} else if !errors.Is(err, domain.ErrCampaignNotFound) {
			return err
		}
		id, err := tx.Campaigns().NextCampaignID(ctx)
		if err != nil {
			return err
		}
		c, err := domain.NewCampaign(id, params, now)
		if err != nil {
			return err
		}
		if err := tx.Campaigns().CreateCampaign(ctx, c); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		uc.Metrics.RecordError("create_campaign", errorType(err))
		return nil, err
	}

	uc.Logger.Info().
		Uint32("campaign_id", uint32(created.ID)).
		Str("slug", created.Slug).
		Time("open_at", created.OpenAt).
		Time("close_at", created.CloseAt).
		Msg("campaign created")
	uc.publish(ctx, domain.Event{Type: domain.EventCampaignCreated, CampaignID: created.ID, Account: created.Owner, OccurredAt: now})

	out := campaigndto.FromCampaign(created, now)
	return &out, nil
}

func (uc *DefaultKickstarterUsecase) UpdateCampaign(ctx context.Context, caller domain.AccountID, in *campaigndto.UpdateCampaignInput, now time.Time) (*campaigndto.CampaignOutput, error) {
	if err := uc.requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	params, err := uc.campaignParams(&in.CreateCampaignInput)
	if err != nil {
		return nil, err
	}

	id := domain.CampaignID(in.CampaignID)
	var updated *domain.Campaign
	err = uc.mutateCampaign(ctx, id, func(tx domain.Store, c *domain.Campaign) error {
		if params.Slug != c.Slug {
			if _, err := tx.Campaigns().GetCampaignBySlug(ctx, params.Slug); err == nil {
				return fmt.Errorf("%w: %s", domain.ErrSlugTaken, params.Slug)
			} else if !errors.Is(err, domain.ErrCampaignNotFound) {
				return err
			}
		}
		// The fee is fixed when the campaign is created.
		params.PlatformFeeBps = c.PlatformFeeBps
		if err := c.Update(params, now); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		uc.Metrics.RecordError("update_campaign", errorType(err))
		return nil, err
	}

	uc.publish(ctx, domain.Event{Type: domain.EventCampaignUpdated, CampaignID: id, Account: updated.Owner, OccurredAt: now})
	out := campaigndto.FromCampaign(updated, now)
	return &out, nil
}

func (uc *DefaultKickstarterUsecase) AddGoal(ctx context.Context, caller domain.AccountID, in *campaigndto.AddGoalInput, now time.Time) (*campaigndto.GoalOutput, error) {
	if err := uc.requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	desired, err := parseAmount("desired_amount", in.DesiredAmount)
	if err != nil {
		return nil, err
	}
	rate, err := parseAmount("reward_rate", in.RewardRate)
	if err != nil {
		return nil, err
	}
	goal := domain.Goal{
		Name:          in.Name,
		DesiredAmount: desired,
		RewardRate:    rate,
		UnfreezeAt:    in.UnfreezeAt,
		CliffAt:       in.CliffAt,
		EndAt:         in.EndAt,
	}

	var added domain.Goal
	err = uc.mutateCampaign(ctx, domain.CampaignID(in.CampaignID), func(_ domain.Store, c *domain.Campaign) error {
		id, err := c.AddGoal(goal, uc.Params.MaxGoals, now)
		if err != nil {
			return err
		}
		added = c.Goals[id]
		return nil
	})
	if err != nil {
		uc.Metrics.RecordError("add_goal", errorType(err))
		return nil, err
	}

	uc.Logger.Info().
		Uint32("campaign_id", in.CampaignID).
		Uint8("goal_id", uint8(added.ID)).
		Str("desired_amount", added.DesiredAmount.String()).
		Msg("goal added")
	out := campaigndto.FromGoal(added)
	return &out, nil
}

func (uc *DefaultKickstarterUsecase) DeleteLastGoal(ctx context.Context, caller domain.AccountID, in *campaigndto.DeleteGoalInput, now time.Time) (*campaigndto.GoalOutput, error) {
	if err := uc.requireAdmin(caller); err != nil {
		return nil, err
	}

	if err := validateInput(in); err != nil {
		return nil, err
	}

	var removed domain.Goal
	err := uc.mutateCampaign(ctx, domain.CampaignID(in.CampaignID), func(_ domain.Store, c *domain.Campaign) error {
		g, err := c.DeleteLastGoal(now)
		if err != nil {
			return err
		}
		removed = g
		return nil
	})
	if err != nil {
		uc.Metrics.RecordError("delete_goal", errorType(err))
		return nil, err
	}

	out := campaigndto.FromGoal(removed)
	return &out, nil
}
