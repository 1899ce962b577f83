package notifier

import "time"

// CallbackPayload is the body posted to the event webhook.
type CallbackPayload struct {
	Type         string    `json:"type"`
	CampaignID   uint32    `json:"campaign_id"`
	Account      string    `json:"account,omitempty"`
	Amount       string    `json:"amount"`
	SettlementID string    `json:"settlement_id,omitempty"`
	Kind         string    `json:"kind,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
