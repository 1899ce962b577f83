package logger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

// LedgerEventModel is the append-only audit trail of ledger events.
type LedgerEventModel struct {
	ID           uint           `gorm:"primaryKey"`
	Type         string         `gorm:"size:32;index;not null"`
	CampaignID   uint32         `gorm:"index;not null"`
	Account      string         `gorm:"size:128"`
	Amount       amount.Balance `gorm:"type:numeric(78,0);not null"`
	SettlementID string         `gorm:"size:36;index"`
	Kind         string         `gorm:"size:32"`
	OccurredAt   time.Time      `gorm:"not null"`
}

func (LedgerEventModel) TableName() string { return "ledger_events" }

type PGEventLogger struct {
	db *gorm.DB
}

func NewPGEventLogger(db *gorm.DB) *PGEventLogger {
	return &PGEventLogger{db: db}
}

func (l *PGEventLogger) PublishEvent(ctx context.Context, ev domain.Event) error {
	return l.db.WithContext(ctx).Create(&LedgerEventModel{
		Type:         string(ev.Type),
		CampaignID:   uint32(ev.CampaignID),
		Account:      string(ev.Account),
		Amount:       ev.Amount,
		SettlementID: ev.SettlementID,
		Kind:         string(ev.Kind),
		OccurredAt:   ev.OccurredAt,
	}).Error
}

// Tee fans an event out to every publisher. All of them are attempted and
// their errors joined.
type Tee []domain.EventPublisher

func (t Tee) PublishEvent(ctx context.Context, ev domain.Event) error {
	var errs []error
	for _, p := range t {
		if err := p.PublishEvent(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
