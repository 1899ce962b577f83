package kickstarter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
)

// withdrawal describes step one of an outbound transfer.
type withdrawal struct {
	kind       domain.SettlementKind
	campaignID domain.CampaignID
	owner      domain.WithdrawalOwner
	requested  amount.Balance
	// authorize runs against the locked campaign before anything is planned.
	authorize func(c *domain.Campaign) error
}

func newMemo(campaignID domain.CampaignID, kind domain.SettlementKind) (string, error) {
	gen, err := nanoid.Standard(15)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("kickstarter:%d:%s:%s", campaignID, kind, gen()), nil
}

func (uc *DefaultKickstarterUsecase) receiverFor(c *domain.Campaign, owner domain.WithdrawalOwner) domain.AccountID {
	switch owner.Kind {
	case domain.OwnerSupporter:
		return owner.Account
	case domain.OwnerCampaign:
		return c.Owner
	default:
		return uc.Params.TreasuryAccount
	}
}

func (uc *DefaultKickstarterUsecase) tokenFor(c *domain.Campaign, kind domain.SettlementKind) domain.AccountID {
	if kind.Asset() == domain.AssetReward {
		return c.RewardToken
	}
	return uc.Params.DepositToken
}

// startSettlement applies the optimistic ledger mutation, persists the
// pending settlement and asks the transfer service to move the funds. A
// transfer request that fails synchronously is compensated on the spot.
func (uc *DefaultKickstarterUsecase) startSettlement(ctx context.Context, w withdrawal, now time.Time) (*domain.Settlement, error) {
	var s *domain.Settlement
	err := uc.mutateCampaign(ctx, w.campaignID, func(tx domain.Store, c *domain.Campaign) error {
		if w.authorize != nil {
			if err := w.authorize(c); err != nil {
				return err
			}
		}
		pending, err := tx.Settlements().HasPendingSettlement(ctx, c.ID, w.owner)
		if err != nil {
			return err
		}
		if pending {
			return fmt.Errorf("%w: campaign %d, %s", domain.ErrSettlementInFlight, c.ID, w.owner)
		}

		v, err := c.PlanWithdrawal(w.kind, w.owner, w.requested, now)
		if err != nil {
			return err
		}
		adjusted, err := c.ApplyWithdrawal(w.kind, w.owner, v, now)
		if err != nil {
			return err
		}

		removed := false
		if w.owner.IsSupporter() {
			if removed, err = closePositionIfEmpty(ctx, tx, c, w.owner.Account); err != nil {
				return err
			}
		}

		memo, err := newMemo(c.ID, w.kind)
		if err != nil {
			return err
		}
		s = &domain.Settlement{
			ID:              uuid.New().String(),
			CampaignID:      c.ID,
			Kind:            w.kind,
			Beneficiary:     w.owner,
			Receiver:        uc.receiverFor(c, w.owner),
			Token:           uc.tokenFor(c, w.kind),
			Amount:          v,
			AdjustedTotal:   adjusted,
			RemovedPosition: removed,
			Memo:            memo,
			Status:          domain.SettlementPending,
			CreatedAt:       now,
		}
		return tx.Settlements().CreateSettlement(ctx, s)
	})
	if err != nil {
		uc.Metrics.RecordError(string(w.kind), errorType(err))
		return nil, err
	}

	uc.Metrics.RecordSettlementStarted(string(s.Kind))
	uc.Logger.Info().
		Str("settlement_id", s.ID).
		Str("kind", string(s.Kind)).
		Uint32("campaign_id", uint32(s.CampaignID)).
		Str("beneficiary", s.Beneficiary.String()).
		Str("amount", s.Amount.String()).
		Msg("transfer requested")
	uc.publish(ctx, domain.SettlementEvent(domain.EventSettlementRequested, s, now))

	err = uc.Transfers.RequestTransfer(ctx, domain.TransferRequest{
		TransferID: s.ID,
		Token:      s.Token,
		Receiver:   s.Receiver,
		Amount:     s.Amount,
		Memo:       s.Memo,
	})
	if err != nil {
		uc.Logger.Warn().Err(err).Str("settlement_id", s.ID).Msg("transfer request failed, compensating")
		return uc.resolve(ctx, s.ID, false, "transfer request failed: "+err.Error(), now)
	}
	return s, nil
}

// closePositionIfEmpty drops the campaign from the supporter's position set
// once nothing is left to withdraw. The supporter record itself is only
// deleted when the transfer commits.
func closePositionIfEmpty(ctx context.Context, tx domain.Store, c *domain.Campaign, account domain.AccountID) (bool, error) {
	open, err := c.HasOpenPosition(account)
	if err != nil || open {
		return false, err
	}
	sup, err := tx.Supporters().GetSupporter(ctx, account)
	if errors.Is(err, domain.ErrSupporterNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !sup.Remove(c.ID) {
		return false, nil
	}
	return true, tx.Supporters().SaveSupporter(ctx, sup)
}

// ResolveSettlement applies the transfer service's verdict on a pending
// settlement: success commits it, failure reverts its ledger mutation.
func (uc *DefaultKickstarterUsecase) ResolveSettlement(ctx context.Context, in *campaigndto.TransferResultInput, now time.Time) (*campaigndto.SettlementOutput, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	s, err := uc.resolve(ctx, in.TransferID, in.Success, in.Reason, now)
	if err != nil {
		return nil, err
	}
	out := campaigndto.FromSettlement(s)
	return &out, nil
}

func (uc *DefaultKickstarterUsecase) resolve(ctx context.Context, id string, success bool, reason string, now time.Time) (*domain.Settlement, error) {
	s, err := uc.Store.Settlements().GetSettlement(ctx, id)
	if err != nil {
		return nil, err
	}

	err = uc.mutateCampaign(ctx, s.CampaignID, func(tx domain.Store, c *domain.Campaign) error {
		// Re-read under the lock; a concurrent callback may have won.
		s, err = tx.Settlements().GetSettlement(ctx, id)
		if err != nil {
			return err
		}
		if success {
			if err := s.Commit(now); err != nil {
				return err
			}
			if s.Beneficiary.IsSupporter() {
				if err := dropEmptySupporter(ctx, tx, s.Beneficiary.Account); err != nil {
					return err
				}
			}
		} else {
			if err := s.Compensate(reason, now); err != nil {
				return err
			}
			if err := c.RevertWithdrawal(s, now); err != nil {
				return err
			}
			if s.RemovedPosition {
				if err := indexPosition(ctx, tx, s.Beneficiary.Account, c.ID); err != nil {
					return err
				}
			}
		}
		return tx.Settlements().UpdateSettlement(ctx, s)
	})
	if err != nil {
		uc.Metrics.RecordError("resolve_settlement", errorType(err))
		return nil, err
	}

	uc.Metrics.RecordSettlementResolved(string(s.Kind), string(s.Status), now.Sub(s.CreatedAt).Seconds())
	if s.Status == domain.SettlementCompensated {
		uc.Logger.Warn().
			Str("settlement_id", s.ID).
			Str("kind", string(s.Kind)).
			Uint32("campaign_id", uint32(s.CampaignID)).
			Str("beneficiary", s.Beneficiary.String()).
			Str("amount", s.Amount.String()).
			Str("reason", reason).
			Msg("transfer failed, ledger restored")
		uc.publish(ctx, domain.SettlementEvent(domain.EventSettlementCompensated, s, now))
	} else {
		uc.Logger.Info().
			Str("settlement_id", s.ID).
			Uint32("campaign_id", uint32(s.CampaignID)).
			Msg("transfer committed")
		uc.publish(ctx, domain.SettlementEvent(domain.EventSettlementCommitted, s, now))
	}
	return s, nil
}

func dropEmptySupporter(ctx context.Context, tx domain.Store, account domain.AccountID) error {
	sup, err := tx.Supporters().GetSupporter(ctx, account)
	if errors.Is(err, domain.ErrSupporterNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !sup.IsEmpty() {
		return nil
	}
	return tx.Supporters().DeleteSupporter(ctx, account)
}

// CheckStuckSettlements counts pending settlements older than maxAge. They
// are reported, never timed out: the transfer service always answers.
func (uc *DefaultKickstarterUsecase) CheckStuckSettlements(ctx context.Context, now time.Time, maxAge time.Duration, limit int) (int, error) {
	stuck, err := uc.Store.Settlements().ListPendingSettlements(ctx, now.Add(-maxAge), limit)
	if err != nil {
		return 0, err
	}
	uc.Metrics.SetStuckSettlements(len(stuck))
	for _, s := range stuck {
		uc.Logger.Warn().
			Str("settlement_id", s.ID).
			Str("kind", string(s.Kind)).
			Uint32("campaign_id", uint32(s.CampaignID)).
			Dur("age", now.Sub(s.CreatedAt)).
			Msg("settlement still pending")
	}
	return len(stuck), nil
}

func settlementOutput(s *domain.Settlement) *campaigndto.SettlementOutput {
	out := campaigndto.FromSettlement(s)
	return &out
}

func campaignLabel(id domain.CampaignID) string {
	return strconv.FormatUint(uint64(id), 10)
}
