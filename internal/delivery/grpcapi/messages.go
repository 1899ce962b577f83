package grpcapi

import (
	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
)

type CampaignRequest struct {
	CampaignID uint32 `json:"campaign_id"`
}

type CampaignBySlugRequest struct {
	Slug string `json:"slug"`
}

type ProcessCampaignResponse struct {
	State string `json:"state"`
}

type SupporterRequest struct {
	Account string `json:"account"`
}

type AvailableRewardRequest struct {
	CampaignID uint32 `json:"campaign_id"`
	Account    string `json:"account"`
}

type AvailableRewardResponse struct {
	Amount amount.Balance `json:"amount"`
}

type SettlementRequest struct {
	ID string `json:"id"`
}

type WorklistRequest struct {
	Limit int `json:"limit"`
}

type Empty struct{}

type (
	CreateCampaignRequest = campaigndto.CreateCampaignInput
	UpdateCampaignRequest = campaigndto.UpdateCampaignInput
	AddGoalRequest        = campaigndto.AddGoalInput
	DeleteGoalRequest     = campaigndto.DeleteGoalInput
	WithdrawRequest       = campaigndto.WithdrawInput
	AssetReceivedRequest  = campaigndto.AssetReceivedInput
	TransferResultRequest = campaigndto.TransferResultInput
	ListCampaignsRequest  = campaigndto.ListCampaignsInput
	CampaignResponse      = campaigndto.CampaignOutput
	CampaignPageResponse  = campaigndto.CampaignPage
	GoalResponse          = campaigndto.GoalOutput
	SettlementResponse    = campaigndto.SettlementOutput
	SupporterResponse     = campaigndto.SupporterOutput
	AssetReceivedResponse = campaigndto.AssetReceivedOutput
	WorklistResponse      = campaigndto.WorklistOutput
)
