package domain

import (
	"strconv"
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

type EventType string

const (
	EventCampaignCreated       EventType = "campaign.created"
	EventCampaignUpdated       EventType = "campaign.updated"
	EventDepositRecorded       EventType = "deposit.recorded"
	EventRewardFunded          EventType = "reward.funded"
	EventCampaignFailed        EventType = "campaign.failed"
	EventCampaignSucceeded     EventType = "campaign.succeeded"
	EventCampaignUnfrozen      EventType = "campaign.unfrozen"
	EventSettlementRequested   EventType = "settlement.requested"
	EventSettlementCommitted   EventType = "settlement.committed"
	EventSettlementCompensated EventType = "settlement.compensated"
)

type Event struct {
	Type         EventType      `json:"type"`
	CampaignID   CampaignID     `json:"campaign_id"`
	Account      AccountID      `json:"account,omitempty"`
	Amount       amount.Balance `json:"amount"`
	SettlementID string         `json:"settlement_id,omitempty"`
	Kind         SettlementKind `json:"kind,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// Key partitions events by campaign so consumers see them in order.
func (e Event) Key() []byte {
	return []byte(strconv.FormatUint(uint64(e.CampaignID), 10))
}

func SettlementEvent(t EventType, s *Settlement, now time.Time) Event {
	account := s.Beneficiary.Account
	if !s.Beneficiary.IsSupporter() {
		account = s.Receiver
	}
	return Event{
		Type:         t,
		CampaignID:   s.CampaignID,
		Account:      account,
		Amount:       s.Amount,
		SettlementID: s.ID,
		Kind:         s.Kind,
		OccurredAt:   now,
	}
}
