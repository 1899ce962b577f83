package domain

import (
	"context"
	"time"
)

type CampaignRepository interface {
	NextCampaignID(ctx context.Context) (CampaignID, error)
	CreateCampaign(ctx context.Context, c *Campaign) error
	GetCampaign(ctx context.Context, id CampaignID) (*Campaign, error)
	GetCampaignBySlug(ctx context.Context, slug string) (*Campaign, error)
	SaveCampaign(ctx context.Context, c *Campaign) error
	ListCampaigns(ctx context.Context, offset, limit int) ([]*Campaign, int64, error)
	ListCampaignsToEvaluate(ctx context.Context, now time.Time, limit int) ([]CampaignID, error)
	ListCampaignsToUnfreeze(ctx context.Context, now time.Time, limit int) ([]CampaignID, error)
}

type SupporterRepository interface {
	GetSupporter(ctx context.Context, id AccountID) (*Supporter, error)
	SaveSupporter(ctx context.Context, s *Supporter) error
	DeleteSupporter(ctx context.Context, id AccountID) error
}

type SettlementRepository interface {
	CreateSettlement(ctx context.Context, s *Settlement) error
	GetSettlement(ctx context.Context, id string) (*Settlement, error)
	UpdateSettlement(ctx context.Context, s *Settlement) error
	HasPendingSettlement(ctx context.Context, campaignID CampaignID, beneficiary WithdrawalOwner) (bool, error)
	// HasPendingTotalAdjustment reports a pending deposit refund that lowered
	// the campaign total.
	HasPendingTotalAdjustment(ctx context.Context, campaignID CampaignID) (bool, error)
	ListPendingSettlements(ctx context.Context, createdBefore time.Time, limit int) ([]*Settlement, error)
}

// Store groups the repositories. Atomic runs fn against a transactional view:
// either every write made through it persists or none does.
type Store interface {
	Campaigns() CampaignRepository
	Supporters() SupporterRepository
	Settlements() SettlementRepository
	Atomic(ctx context.Context, fn func(tx Store) error) error
}
