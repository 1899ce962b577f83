package grpcapi

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	"github.com/LavaJover/shvark-kickstarter-service/internal/usecase/kickstarter"
)

// CallerMetadataKey carries the authenticated account of the caller. The
// gateway in front of the service is responsible for setting it.
const CallerMetadataKey = "x-account-id"

type KickstarterHandler struct {
	uc  kickstarter.KickstarterUsecase
	now func() time.Time
}

func NewKickstarterHandler(uc kickstarter.KickstarterUsecase) *KickstarterHandler {
	return &KickstarterHandler{uc: uc, now: time.Now}
}

func caller(ctx context.Context) domain.AccountID {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(CallerMetadataKey); len(v) > 0 {
		return domain.AccountID(v[0])
	}
	return ""
}

func (h *KickstarterHandler) CreateCampaign(ctx context.Context, r *CreateCampaignRequest) (*CampaignResponse, error) {
	out, err := h.uc.CreateCampaign(ctx, caller(ctx), r, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) UpdateCampaign(ctx context.Context, r *UpdateCampaignRequest) (*CampaignResponse, error) {
	out, err := h.uc.UpdateCampaign(ctx, caller(ctx), r, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) AddGoal(ctx context.Context, r *AddGoalRequest) (*GoalResponse, error) {
	out, err := h.uc.AddGoal(ctx, caller(ctx), r, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) DeleteLastGoal(ctx context.Context, r *DeleteGoalRequest) (*GoalResponse, error) {
	out, err := h.uc.DeleteLastGoal(ctx, caller(ctx), r, h.now())
	return out, toStatus(err)
}

// OnAssetReceived always answers with the unused amount when the usecase
// produced one; a rejected transfer is a normal outcome, not an RPC error.
func (h *KickstarterHandler) OnAssetReceived(ctx context.Context, r *AssetReceivedRequest) (*AssetReceivedResponse, error) {
	out, err := h.uc.OnAssetReceived(ctx, r, h.now())
	if out != nil {
		return out, nil
	}
	return nil, toStatus(err)
}

func (h *KickstarterHandler) ProcessCampaign(ctx context.Context, r *CampaignRequest) (*ProcessCampaignResponse, error) {
	state, err := h.uc.ProcessCampaign(ctx, domain.CampaignID(r.CampaignID), h.now())
	if err != nil {
		return nil, toStatus(err)
	}
	return &ProcessCampaignResponse{State: string(state)}, nil
}

func (h *KickstarterHandler) UnfreezeCampaign(ctx context.Context, r *CampaignRequest) (*Empty, error) {
	if err := h.uc.UnfreezeCampaign(ctx, domain.CampaignID(r.CampaignID), h.now()); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (h *KickstarterHandler) RefundDeposit(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	out, err := h.uc.RefundDeposit(ctx, caller(ctx), r, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) WithdrawPrincipal(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	out, err := h.uc.WithdrawPrincipal(ctx, caller(ctx), r, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) ClaimReward(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	out, err := h.uc.ClaimReward(ctx, caller(ctx), r, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) WithdrawInterest(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	out, err := h.uc.WithdrawInterest(ctx, caller(ctx), r, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) RefundRewardTokens(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	out, err := h.uc.RefundRewardTokens(ctx, caller(ctx), r, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) CollectPlatformFee(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	out, err := h.uc.CollectPlatformFee(ctx, caller(ctx), r, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) ResolveSettlement(ctx context.Context, r *TransferResultRequest) (*SettlementResponse, error) {
	out, err := h.uc.ResolveSettlement(ctx, r, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) GetCampaign(ctx context.Context, r *CampaignRequest) (*CampaignResponse, error) {
	out, err := h.uc.GetCampaign(ctx, domain.CampaignID(r.CampaignID), h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) GetCampaignBySlug(ctx context.Context, r *CampaignBySlugRequest) (*CampaignResponse, error) {
	out, err := h.uc.GetCampaignBySlug(ctx, r.Slug, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) ListCampaigns(ctx context.Context, r *ListCampaignsRequest) (*CampaignPageResponse, error) {
	out, err := h.uc.ListCampaigns(ctx, r, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) GetSupporter(ctx context.Context, r *SupporterRequest) (*SupporterResponse, error) {
	account := domain.AccountID(r.Account)
	if account == "" {
		account = caller(ctx)
	}
	if account == "" {
		return nil, status.Error(codes.InvalidArgument, "account is required")
	}
	out, err := h.uc.GetSupporter(ctx, account, h.now())
	return out, toStatus(err)
}

func (h *KickstarterHandler) AvailableReward(ctx context.Context, r *AvailableRewardRequest) (*AvailableRewardResponse, error) {
	v, err := h.uc.AvailableReward(ctx, domain.CampaignID(r.CampaignID), domain.AccountID(r.Account), h.now())
	if err != nil {
		return nil, toStatus(err)
	}
	return &AvailableRewardResponse{Amount: v}, nil
}

func (h *KickstarterHandler) GetSettlement(ctx context.Context, r *SettlementRequest) (*SettlementResponse, error) {
	out, err := h.uc.GetSettlement(ctx, r.ID)
	return out, toStatus(err)
}

func (h *KickstarterHandler) Worklist(ctx context.Context, r *WorklistRequest) (*WorklistResponse, error) {
	out, err := h.uc.Worklist(ctx, h.now(), r.Limit)
	return out, toStatus(err)
}
