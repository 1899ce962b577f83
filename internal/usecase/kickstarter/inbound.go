package kickstarter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
)

type campaignReference struct {
	CampaignID *uint32 `json:"campaign_id"`
}

// ParseCampaignReference reads the campaign an inbound transfer targets. The
// message is either a bare id ("7") or a JSON object ({"campaign_id":7}).
func ParseCampaignReference(msg string) (domain.CampaignID, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return 0, fmt.Errorf("%w: empty message", domain.ErrInvalidMemo)
	}
	if strings.HasPrefix(msg, "{") {
		var ref campaignReference
		if err := json.Unmarshal([]byte(msg), &ref); err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrInvalidMemo, err)
		}
		if ref.CampaignID == nil {
			return 0, fmt.Errorf("%w: campaign_id missing", domain.ErrInvalidMemo)
		}
		return domain.CampaignID(*ref.CampaignID), nil
	}
	id, err := strconv.ParseUint(msg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidMemo, msg)
	}
	return domain.CampaignID(id), nil
}

// OnAssetReceived credits an inbound transfer to the campaign named in its
// message. A rejected transfer reports the whole amount as unused so the
// token ledger returns it to the sender.
func (uc *DefaultKickstarterUsecase) OnAssetReceived(ctx context.Context, in *campaigndto.AssetReceivedInput, now time.Time) (*campaigndto.AssetReceivedOutput, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	v, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	token, sender := domain.AccountID(in.Token), domain.AccountID(in.Sender)

	reject := func(err error) (*campaigndto.AssetReceivedOutput, error) {
		uc.Metrics.RecordInboundRejected(errorType(err))
		uc.Logger.Warn().Err(err).
			Str("token", in.Token).
			Str("sender", in.Sender).
			Str("amount", v.String()).
			Msg("inbound transfer rejected")
		return &campaigndto.AssetReceivedOutput{Unused: v, Reason: err.Error()}, err
	}

	id, err := ParseCampaignReference(in.Msg)
	if err != nil {
		return reject(err)
	}

	var ev domain.Event
	err = uc.mutateCampaign(ctx, id, func(tx domain.Store, c *domain.Campaign) error {
		switch token {
		case uc.Params.DepositToken:
			if err := c.RecordDeposit(sender, v, now); err != nil {
				return err
			}
			if err := indexPosition(ctx, tx, sender, c.ID); err != nil {
				return err
			}
			ev = domain.Event{Type: domain.EventDepositRecorded, CampaignID: c.ID, Account: sender, Amount: v, OccurredAt: now}
		case c.RewardToken:
			if err := c.RecordRewardFunding(token, v, now); err != nil {
				return err
			}
			ev = domain.Event{Type: domain.EventRewardFunded, CampaignID: c.ID, Account: sender, Amount: v, OccurredAt: now}
		default:
			return fmt.Errorf("%w: %s", domain.ErrUnknownToken, token)
		}
		return nil
	})
	if err != nil {
		return reject(err)
	}

	label := campaignLabel(id)
	if ev.Type == domain.EventDepositRecorded {
		uc.Metrics.RecordDeposit(label)
	} else {
		uc.Metrics.RecordRewardFunding(label)
	}
	uc.Logger.Info().
		Str("event", string(ev.Type)).
		Uint32("campaign_id", uint32(id)).
		Str("account", in.Sender).
		Str("amount", v.String()).
		Msg("inbound transfer credited")
	uc.publish(ctx, ev)

	return &campaigndto.AssetReceivedOutput{Unused: amount.Zero()}, nil
}

// indexPosition adds the campaign to the supporter's position set, creating
// the supporter on first use.
func indexPosition(ctx context.Context, tx domain.Store, account domain.AccountID, id domain.CampaignID) error {
	s, err := tx.Supporters().GetSupporter(ctx, account)
	switch {
	case errors.Is(err, domain.ErrSupporterNotFound):
		s = domain.NewSupporter(account)
	case err != nil:
		return err
	}
	if !s.Add(id) {
		return nil
	}
	return tx.Supporters().SaveSupporter(ctx, s)
}
