package kickstarter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/metrics"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
)

// KickstarterUsecase is everything the delivery layer can ask of the ledger.
// Every call carries the caller identity and the current time explicitly.
type KickstarterUsecase interface {
	CreateCampaign(ctx context.Context, caller domain.AccountID, in *campaigndto.CreateCampaignInput, now time.Time) (*campaigndto.CampaignOutput, error)
	UpdateCampaign(ctx context.Context, caller domain.AccountID, in *campaigndto.UpdateCampaignInput, now time.Time) (*campaigndto.CampaignOutput, error)
	AddGoal(ctx context.Context, caller domain.AccountID, in *campaigndto.AddGoalInput, now time.Time) (*campaigndto.GoalOutput, error)
	DeleteLastGoal(ctx context.Context, caller domain.AccountID, in *campaigndto.DeleteGoalInput, now time.Time) (*campaigndto.GoalOutput, error)

	OnAssetReceived(ctx context.Context, in *campaigndto.AssetReceivedInput, now time.Time) (*campaigndto.AssetReceivedOutput, error)

	ProcessCampaign(ctx context.Context, id domain.CampaignID, now time.Time) (domain.CampaignState, error)
	UnfreezeCampaign(ctx context.Context, id domain.CampaignID, now time.Time) error

	RefundDeposit(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error)
	WithdrawPrincipal(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error)
	ClaimReward(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error)
	WithdrawInterest(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error)
	RefundRewardTokens(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error)
	CollectPlatformFee(ctx context.Context, caller domain.AccountID, in *campaigndto.WithdrawInput, now time.Time) (*campaigndto.SettlementOutput, error)
	ResolveSettlement(ctx context.Context, in *campaigndto.TransferResultInput, now time.Time) (*campaigndto.SettlementOutput, error)

	GetCampaign(ctx context.Context, id domain.CampaignID, now time.Time) (*campaigndto.CampaignOutput, error)
	GetCampaignBySlug(ctx context.Context, slug string, now time.Time) (*campaigndto.CampaignOutput, error)
	ListCampaigns(ctx context.Context, in *campaigndto.ListCampaignsInput, now time.Time) (*campaigndto.CampaignPage, error)
	GetSupporter(ctx context.Context, account domain.AccountID, now time.Time) (*campaigndto.SupporterOutput, error)
	AvailableReward(ctx context.Context, id domain.CampaignID, account domain.AccountID, now time.Time) (amount.Balance, error)
	GetSettlement(ctx context.Context, id string) (*campaigndto.SettlementOutput, error)
	Worklist(ctx context.Context, now time.Time, limit int) (*campaigndto.WorklistOutput, error)
}

type Params struct {
	// DepositToken is the asset supporters deposit.
	DepositToken domain.AccountID
	// AdminAccount may create and edit campaigns and collect fees.
	AdminAccount domain.AccountID
	// TreasuryAccount receives collected platform fees.
	TreasuryAccount domain.AccountID
	PlatformFeeBps  uint16
	MaxGoals        int
}

type DefaultKickstarterUsecase struct {
	Store     domain.Store
	Transfers domain.TransferPort
	Oracle    domain.PriceOracle
	Publisher domain.EventPublisher
	Locker    domain.Locker
	Metrics   *metrics.KickstarterMetrics
	Logger    zerolog.Logger
	Params    Params
}

func NewDefaultKickstarterUsecase(
	store domain.Store,
	transfers domain.TransferPort,
	oracle domain.PriceOracle,
	publisher domain.EventPublisher,
	locker domain.Locker,
	m *metrics.KickstarterMetrics,
	logger zerolog.Logger,
	params Params) *DefaultKickstarterUsecase {

	if params.MaxGoals <= 0 {
		params.MaxGoals = 5
	}
	return &DefaultKickstarterUsecase{
		Store:     store,
		Transfers: transfers,
		Oracle:    oracle,
		Publisher: publisher,
		Locker:    locker,
		Metrics:   m,
		Logger:    logger.With().Str("component", "kickstarter").Logger(),
		Params:    params,
	}
}

func campaignLockKey(id domain.CampaignID) string {
	return "campaign:" + strconv.FormatUint(uint64(id), 10)
}

// mutateCampaign serialises fn against every other mutation of the campaign
// and runs it inside a single store transaction.
func (uc *DefaultKickstarterUsecase) mutateCampaign(ctx context.Context, id domain.CampaignID, fn func(tx domain.Store, c *domain.Campaign) error) error {
	unlock, err := uc.Locker.Lock(ctx, campaignLockKey(id))
	if err != nil {
		return fmt.Errorf("lock campaign %d: %w", id, err)
	}
	defer unlock()

	return uc.Store.Atomic(ctx, func(tx domain.Store) error {
		c, err := tx.Campaigns().GetCampaign(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(tx, c); err != nil {
			return err
		}
		return tx.Campaigns().SaveCampaign(ctx, c)
	})
}

func (uc *DefaultKickstarterUsecase) publish(ctx context.Context, events ...domain.Event) {
	if uc.Publisher == nil {
		return
	}
	for _, ev := range events {
		if err := uc.Publisher.PublishEvent(ctx, ev); err != nil {
			uc.Logger.Error().Err(err).
				Str("event", string(ev.Type)).
				Uint32("campaign_id", uint32(ev.CampaignID)).
				Msg("failed to publish event")
		}
	}
}

func (uc *DefaultKickstarterUsecase) requireAdmin(caller domain.AccountID) error {
	if caller == "" || caller != uc.Params.AdminAccount {
		return fmt.Errorf("%w: %q is not the admin", domain.ErrUnauthorized, caller)
	}
	return nil
}

// errorType gives a stable label for metrics.
func errorType(err error) string {
	for _, known := range []struct {
		err   error
		label string
	}{
		{domain.ErrCampaignNotFound, "not_found"},
		{domain.ErrSettlementNotFound, "not_found"},
		{domain.ErrUnauthorized, "unauthorized"},
		{domain.ErrInvalidInput, "invalid_input"},
		{domain.ErrInvalidMemo, "invalid_memo"},
		{domain.ErrInsufficientBalance, "insufficient_balance"},
		{domain.ErrNothingAvailable, "nothing_available"},
		{domain.ErrSettlementInFlight, "in_flight"},
		{domain.ErrRefundsPending, "refunds_pending"},
		{domain.ErrPriceUnavailable, "price_unavailable"},
		{domain.ErrInvariant, "invariant"},
	} {
		if errors.Is(err, known.err) {
			return known.label
		}
	}
	return "precondition"
}
