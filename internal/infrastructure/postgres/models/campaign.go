package models

import (
	"database/sql/driver"
	"errors"
	"time"

	json "github.com/goccy/go-json"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

type CampaignModel struct {
	ID             uint32 `gorm:"primaryKey;autoIncrement:false"`
	Slug           string `gorm:"uniqueIndex;size:64;not null"`
	Owner          string `gorm:"size:128;not null"`
	CreatedAt      time.Time
	OpenAt         time.Time `gorm:"not null"`
	CloseAt        time.Time `gorm:"index;not null"`
	RewardToken    string    `gorm:"size:128;not null"`
	RewardDecimals uint8
	PriceSource    string `gorm:"size:128;not null"`
	PlatformFeeBps uint16

	Goals []GoalModel `gorm:"foreignKey:CampaignID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	TotalDeposited        amount.Balance `gorm:"type:numeric(78,0);not null"`
	HardCap               amount.Balance `gorm:"type:numeric(78,0);not null"`
	MinDeposit            amount.Balance `gorm:"type:numeric(78,0);not null"`
	AvailableRewardTokens amount.Balance `gorm:"type:numeric(78,0);not null"`
	LockedRewardTokens    amount.Balance `gorm:"type:numeric(78,0);not null"`
	EnoughRewardTokens    bool

	Deposits        LedgerEntries `gorm:"type:jsonb;not null"`
	AssetWithdrawn  LedgerEntries `gorm:"type:jsonb;not null"`
	RewardWithdrawn LedgerEntries `gorm:"type:jsonb;not null"`

	Active               bool
	Successful           *bool `gorm:"index"`
	WinnerGoalID         *uint8
	PlatformFee          *amount.Balance `gorm:"type:numeric(78,0)"`
	TotalTokensToRelease *amount.Balance `gorm:"type:numeric(78,0)"`
	PriceAtFreeze        *amount.Balance `gorm:"type:numeric(78,0)"`
	PriceAtUnfreeze      *amount.Balance `gorm:"type:numeric(78,0)"`
	UnfreezeAt           *time.Time      `gorm:"index"`

	UpdatedAt time.Time
}

func (CampaignModel) TableName() string { return "campaigns" }

type GoalModel struct {
	CampaignID    uint32         `gorm:"primaryKey;autoIncrement:false"`
	GoalID        uint8          `gorm:"primaryKey;autoIncrement:false"`
	Name          string         `gorm:"size:64;not null"`
	DesiredAmount amount.Balance `gorm:"type:numeric(78,0);not null"`
	RewardRate    amount.Balance `gorm:"type:numeric(78,0);not null"`
	UnfreezeAt    time.Time
	CliffAt       time.Time
	EndAt         time.Time
}

func (GoalModel) TableName() string { return "campaign_goals" }

// LedgerEntry is one balance of a per-account ledger. Key is an account id
// for deposits and a withdrawal owner string for withdrawal ledgers.
type LedgerEntry struct {
	Key     string         `json:"key"`
	Balance amount.Balance `json:"balance"`
}

type LedgerEntries []LedgerEntry

func (l LedgerEntries) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *LedgerEntries) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("ledger entries: unsupported column type")
	}
	return json.Unmarshal(data, l)
}
