package campaigndto

import "time"

// Amounts travel as base-10 strings of base units.

type CreateCampaignInput struct {
	Slug           string    `json:"slug" validate:"required|maxLen:64"`
	Owner          string    `json:"owner" validate:"required|maxLen:128"`
	OpenAt         time.Time `json:"open_at"`
	CloseAt        time.Time `json:"close_at"`
	RewardToken    string    `json:"reward_token" validate:"required|maxLen:128"`
	RewardDecimals uint8     `json:"reward_decimals" validate:"max:38"`
	PriceSource    string    `json:"price_source" validate:"required|maxLen:128"`
	HardCap        string    `json:"hard_cap" validate:"required|numeric"`
	MinDeposit     string    `json:"min_deposit" validate:"numeric"`
}

type UpdateCampaignInput struct {
	CampaignID uint32 `json:"campaign_id"`
	CreateCampaignInput
}

type AddGoalInput struct {
	CampaignID    uint32    `json:"campaign_id"`
	Name          string    `json:"name" validate:"required|maxLen:64"`
	DesiredAmount string    `json:"desired_amount" validate:"required|numeric"`
	RewardRate    string    `json:"reward_rate" validate:"required|numeric"`
	UnfreezeAt    time.Time `json:"unfreeze_at"`
	CliffAt       time.Time `json:"cliff_at"`
	EndAt         time.Time `json:"end_at"`
}

type DeleteGoalInput struct {
	CampaignID uint32 `json:"campaign_id"`
}

// WithdrawInput requests an outbound transfer. Amount may be slightly off the
// full balance; amounts within the dust threshold take everything.
type WithdrawInput struct {
	CampaignID uint32 `json:"campaign_id"`
	Amount     string `json:"amount" validate:"required|numeric"`
}

type AssetReceivedInput struct {
	Token  string `json:"token" validate:"required"`
	Sender string `json:"sender" validate:"required"`
	Amount string `json:"amount" validate:"required|numeric"`
	Msg    string `json:"msg"`
}

type TransferResultInput struct {
	TransferID string `json:"transfer_id" validate:"required"`
	Success    bool   `json:"success"`
	Reason     string `json:"reason"`
}

type ListCampaignsInput struct {
	Offset int `json:"offset" validate:"min:0"`
	Limit  int `json:"limit" validate:"min:0|max:100"`
}
