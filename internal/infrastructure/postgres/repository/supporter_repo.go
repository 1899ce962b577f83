package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/postgres/models"
)

type DefaultSupporterRepository struct {
	db       *gorm.DB
	lockRows bool
}

func NewDefaultSupporterRepository(db *gorm.DB) *DefaultSupporterRepository {
	return &DefaultSupporterRepository{db: db}
}

// GetSupporter returns the supporter's position set.
//
// Inside a transaction the supporters row is locked, and created first when
// missing, so index updates coming from different campaigns queue on it. A
// row created only to take the lock is removed again before returning.
func (r *DefaultSupporterRepository) GetSupporter(ctx context.Context, id domain.AccountID) (*domain.Supporter, error) {
	db := r.db.WithContext(ctx)
	if r.lockRows {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.SupporterModel{ID: string(id)})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			if err := r.DeleteSupporter(ctx, id); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", domain.ErrSupporterNotFound, id)
		}
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m models.SupporterModel
	err := db.
		Preload("Positions", func(db *gorm.DB) *gorm.DB { return db.Order("campaign_id ASC") }).
		Where("id = ?", string(id)).
		First(&m).Error
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSupporterNotFound, id)
		}
		return nil, err
	}
	return mappers.ToDomainSupporter(&m), nil
}

// SaveSupporter upserts the supporter and replaces its position rows.
func (r *DefaultSupporterRepository) SaveSupporter(ctx context.Context, s *domain.Supporter) error {
	m := mappers.ToGORMSupporter(s)
	positions := m.Positions
	m.Positions = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Create(m).Error; err != nil {
			return err
		}
		if err := tx.Where("supporter_id = ?", m.ID).Delete(&models.SupporterPositionModel{}).Error; err != nil {
			return err
		}
		if len(positions) == 0 {
			return nil
		}
		return tx.Create(&positions).Error
	})
}

func (r *DefaultSupporterRepository) DeleteSupporter(ctx context.Context, id domain.AccountID) error {
	return r.db.WithContext(ctx).Delete(&models.SupporterModel{ID: string(id)}).Error
}
