package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

// Store is the gorm-backed domain.Store. Inside Atomic every repository works
// on the same transaction and campaign and supporter reads take a row lock.
type Store struct {
	db   *gorm.DB
	inTx bool
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Campaigns() domain.CampaignRepository {
	return &DefaultCampaignRepository{db: s.db, lockRows: s.inTx}
}

func (s *Store) Supporters() domain.SupporterRepository {
	return &DefaultSupporterRepository{db: s.db, lockRows: s.inTx}
}

func (s *Store) Settlements() domain.SettlementRepository {
	return &DefaultSettlementRepository{db: s.db}
}

func (s *Store) Atomic(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inTx: true})
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
