package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/postgres/models"
)

type DefaultCampaignRepository struct {
	db       *gorm.DB
	lockRows bool
}

func NewDefaultCampaignRepository(db *gorm.DB) *DefaultCampaignRepository {
	return &DefaultCampaignRepository{db: db}
}

func (r *DefaultCampaignRepository) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.CampaignModel{}).Preload("Goals")
	if r.lockRows {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// NextCampaignID hands out dense ids. The table lock makes concurrent
// creators queue until the first one commits.
func (r *DefaultCampaignRepository) NextCampaignID(ctx context.Context) (domain.CampaignID, error) {
	db := r.db.WithContext(ctx)
	if r.lockRows {
		if err := db.Exec("LOCK TABLE campaigns IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return 0, err
		}
	}
	var next int64
	if err := db.Raw("SELECT COALESCE(MAX(id) + 1, 0) FROM campaigns").Scan(&next).Error; err != nil {
		return 0, err
	}
	return domain.CampaignID(next), nil
}

func (r *DefaultCampaignRepository) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	m := mappers.ToGORMCampaign(c)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: %s", domain.ErrSlugTaken, c.Slug)
		}
		return err
	}
	return nil
}

func (r *DefaultCampaignRepository) GetCampaign(ctx context.Context, id domain.CampaignID) (*domain.Campaign, error) {
	var m models.CampaignModel
	if err := r.query(ctx).Where("id = ?", uint32(id)).First(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %d", domain.ErrCampaignNotFound, id)
		}
		return nil, err
	}
	return mappers.ToDomainCampaign(&m)
}

func (r *DefaultCampaignRepository) GetCampaignBySlug(ctx context.Context, slug string) (*domain.Campaign, error) {
	var m models.CampaignModel
	if err := r.query(ctx).Where("slug = ?", slug).First(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCampaignNotFound, slug)
		}
		return nil, err
	}
	return mappers.ToDomainCampaign(&m)
}

// SaveCampaign writes the whole ledger back and replaces the goal rows.
func (r *DefaultCampaignRepository) SaveCampaign(ctx context.Context, c *domain.Campaign) error {
	m := mappers.ToGORMCampaign(c)
	goals := m.Goals
	m.Goals = nil

	save := func(tx *gorm.DB) error {
		res := tx.Model(&models.CampaignModel{}).Where("id = ?", m.ID).Select("*").Omit("id", "created_at").Updates(m)
		if res.Error != nil {
			if isDuplicate(res.Error) {
				return fmt.Errorf("%w: %s", domain.ErrSlugTaken, c.Slug)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", domain.ErrCampaignNotFound, c.ID)
		}
		if err := tx.Where("campaign_id = ?", m.ID).Delete(&models.GoalModel{}).Error; err != nil {
			return err
		}
		if len(goals) == 0 {
			return nil
		}
		return tx.Create(&goals).Error
	}

	db := r.db.WithContext(ctx)
	if r.lockRows {
		return save(db)
	}
	return db.Transaction(save)
}

func (r *DefaultCampaignRepository) ListCampaigns(ctx context.Context, offset, limit int) ([]*domain.Campaign, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.CampaignModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.CampaignModel
	q := r.db.WithContext(ctx).Model(&models.CampaignModel{}).Preload("Goals").Order("id ASC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*domain.Campaign, 0, len(rows))
	for i := range rows {
		c, err := mappers.ToDomainCampaign(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, nil
}

func (r *DefaultCampaignRepository) ids(q *gorm.DB, limit int) ([]domain.CampaignID, error) {
	var raw []uint32
	q = q.Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("id", &raw).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CampaignID, len(raw))
	for i, id := range raw {
		out[i] = domain.CampaignID(id)
	}
	return out, nil
}

func (r *DefaultCampaignRepository) ListCampaignsToEvaluate(ctx context.Context, now time.Time, limit int) ([]domain.CampaignID, error) {
	return r.ids(r.db.WithContext(ctx).Model(&models.CampaignModel{}).
		Where("successful IS NULL").
		Where("close_at <= ?", now), limit)
}

func (r *DefaultCampaignRepository) ListCampaignsToUnfreeze(ctx context.Context, now time.Time, limit int) ([]domain.CampaignID, error) {
	return r.ids(r.db.WithContext(ctx).Model(&models.CampaignModel{}).
		Where("successful = ?", true).
		Where("price_at_unfreeze IS NULL").
		Where("unfreeze_at <= ?", now), limit)
}
