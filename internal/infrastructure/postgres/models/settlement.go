package models

import (
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

type SettlementModel struct {
	ID              string         `gorm:"primaryKey;size:36"`
	CampaignID      uint32         `gorm:"index:idx_settlement_pending,priority:1;not null"`
	Kind            string         `gorm:"size:32;not null"`
	Beneficiary     string         `gorm:"index:idx_settlement_pending,priority:2;size:160;not null"`
	Receiver        string         `gorm:"size:128;not null"`
	Token           string         `gorm:"size:128;not null"`
	Amount          amount.Balance `gorm:"type:numeric(78,0);not null"`
	AdjustedTotal   bool
	RemovedPosition bool
	Memo            string `gorm:"size:128;not null"`
	Status          string `gorm:"index:idx_settlement_pending,priority:3;size:16;not null"`
	FailureReason   string
	CreatedAt       time.Time `gorm:"index"`
	ResolvedAt      *time.Time
}

func (SettlementModel) TableName() string { return "settlements" }
