package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/postgres/models"
)

type DefaultSettlementRepository struct {
	db *gorm.DB
}

func NewDefaultSettlementRepository(db *gorm.DB) *DefaultSettlementRepository {
	return &DefaultSettlementRepository{db: db}
}

func (r *DefaultSettlementRepository) CreateSettlement(ctx context.Context, s *domain.Settlement) error {
	return r.db.WithContext(ctx).Create(mappers.ToGORMSettlement(s)).Error
}

func (r *DefaultSettlementRepository) GetSettlement(ctx context.Context, id string) (*domain.Settlement, error) {
	var m models.SettlementModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSettlementNotFound, id)
		}
		return nil, err
	}
	return mappers.ToDomainSettlement(&m)
}

func (r *DefaultSettlementRepository) UpdateSettlement(ctx context.Context, s *domain.Settlement) error {
	res := r.db.WithContext(ctx).Model(&models.SettlementModel{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"status":         string(s.Status),
			"failure_reason": s.FailureReason,
			"resolved_at":    s.ResolvedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrSettlementNotFound, s.ID)
	}
	return nil
}

func (r *DefaultSettlementRepository) HasPendingSettlement(ctx context.Context, campaignID domain.CampaignID, beneficiary domain.WithdrawalOwner) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SettlementModel{}).
		Where("campaign_id = ? AND beneficiary = ? AND status = ?",
			uint32(campaignID), beneficiary.String(), string(domain.SettlementPending)).
		Count(&count).Error
	return count > 0, err
}

func (r *DefaultSettlementRepository) HasPendingTotalAdjustment(ctx context.Context, campaignID domain.CampaignID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SettlementModel{}).
		Where("campaign_id = ? AND kind = ? AND adjusted_total AND status = ?",
			uint32(campaignID), string(domain.KindDepositRefund), string(domain.SettlementPending)).
		Count(&count).Error
	return count > 0, err
}

func (r *DefaultSettlementRepository) ListPendingSettlements(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Settlement, error) {
	var rows []models.SettlementModel
	q := r.db.WithContext(ctx).Model(&models.SettlementModel{}).
		Where("status = ?", string(domain.SettlementPending)).
		Where("created_at < ?", createdBefore).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Settlement, 0, len(rows))
	for i := range rows {
		s, err := mappers.ToDomainSettlement(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
