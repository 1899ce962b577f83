package models

import "time"

type SupporterModel struct {
	ID        string `gorm:"primaryKey;size:128"`
	UpdatedAt time.Time
	Positions []SupporterPositionModel `gorm:"foreignKey:SupporterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (SupporterModel) TableName() string { return "supporters" }

type SupporterPositionModel struct {
	SupporterID string `gorm:"primaryKey;size:128"`
	CampaignID  uint32 `gorm:"primaryKey;autoIncrement:false;index"`
}

func (SupporterPositionModel) TableName() string { return "supporter_positions" }
