package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

// KickstarterClient calls ServiceName over the JSON codec.
type KickstarterClient struct {
	conn *grpc.ClientConn
}

func NewKickstarterClient(addr string, opts ...grpc.DialOption) (*KickstarterClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
		grpc.WithDefaultServiceConfig(`{"loadBalancingPolicy": "round_robin"}`),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &KickstarterClient{conn: conn}, nil
}

func (c *KickstarterClient) Close() error {
	return c.conn.Close()
}

// AsCaller attaches the acting account to outgoing calls.
func AsCaller(ctx context.Context, account domain.AccountID) context.Context {
	return metadata.AppendToOutgoingContext(ctx, CallerMetadataKey, string(account))
}

func invoke[Resp any](ctx context.Context, c *KickstarterClient, method string, req any) (*Resp, error) {
	out := new(Resp)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *KickstarterClient) CreateCampaign(ctx context.Context, r *CreateCampaignRequest) (*CampaignResponse, error) {
	return invoke[CampaignResponse](ctx, c, "CreateCampaign", r)
}

func (c *KickstarterClient) UpdateCampaign(ctx context.Context, r *UpdateCampaignRequest) (*CampaignResponse, error) {
	return invoke[CampaignResponse](ctx, c, "UpdateCampaign", r)
}

func (c *KickstarterClient) AddGoal(ctx context.Context, r *AddGoalRequest) (*GoalResponse, error) {
	return invoke[GoalResponse](ctx, c, "AddGoal", r)
}

func (c *KickstarterClient) DeleteLastGoal(ctx context.Context, r *DeleteGoalRequest) (*GoalResponse, error) {
	return invoke[GoalResponse](ctx, c, "DeleteLastGoal", r)
}

func (c *KickstarterClient) OnAssetReceived(ctx context.Context, r *AssetReceivedRequest) (*AssetReceivedResponse, error) {
	return invoke[AssetReceivedResponse](ctx, c, "OnAssetReceived", r)
}

func (c *KickstarterClient) ProcessCampaign(ctx context.Context, r *CampaignRequest) (*ProcessCampaignResponse, error) {
	return invoke[ProcessCampaignResponse](ctx, c, "ProcessCampaign", r)
}

func (c *KickstarterClient) UnfreezeCampaign(ctx context.Context, r *CampaignRequest) (*Empty, error) {
	return invoke[Empty](ctx, c, "UnfreezeCampaign", r)
}

func (c *KickstarterClient) RefundDeposit(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	return invoke[SettlementResponse](ctx, c, "RefundDeposit", r)
}

func (c *KickstarterClient) WithdrawPrincipal(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	return invoke[SettlementResponse](ctx, c, "WithdrawPrincipal", r)
}

func (c *KickstarterClient) ClaimReward(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	return invoke[SettlementResponse](ctx, c, "ClaimReward", r)
}

func (c *KickstarterClient) WithdrawInterest(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	return invoke[SettlementResponse](ctx, c, "WithdrawInterest", r)
}

func (c *KickstarterClient) RefundRewardTokens(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	return invoke[SettlementResponse](ctx, c, "RefundRewardTokens", r)
}

func (c *KickstarterClient) CollectPlatformFee(ctx context.Context, r *WithdrawRequest) (*SettlementResponse, error) {
	return invoke[SettlementResponse](ctx, c, "CollectPlatformFee", r)
}

func (c *KickstarterClient) ResolveSettlement(ctx context.Context, r *TransferResultRequest) (*SettlementResponse, error) {
	return invoke[SettlementResponse](ctx, c, "ResolveSettlement", r)
}

func (c *KickstarterClient) GetCampaign(ctx context.Context, r *CampaignRequest) (*CampaignResponse, error) {
	return invoke[CampaignResponse](ctx, c, "GetCampaign", r)
}

func (c *KickstarterClient) GetCampaignBySlug(ctx context.Context, r *CampaignBySlugRequest) (*CampaignResponse, error) {
	return invoke[CampaignResponse](ctx, c, "GetCampaignBySlug", r)
}

func (c *KickstarterClient) ListCampaigns(ctx context.Context, r *ListCampaignsRequest) (*CampaignPageResponse, error) {
	return invoke[CampaignPageResponse](ctx, c, "ListCampaigns", r)
}

func (c *KickstarterClient) GetSupporter(ctx context.Context, r *SupporterRequest) (*SupporterResponse, error) {
	return invoke[SupporterResponse](ctx, c, "GetSupporter", r)
}

func (c *KickstarterClient) AvailableReward(ctx context.Context, r *AvailableRewardRequest) (*AvailableRewardResponse, error) {
	return invoke[AvailableRewardResponse](ctx, c, "AvailableReward", r)
}

func (c *KickstarterClient) GetSettlement(ctx context.Context, r *SettlementRequest) (*SettlementResponse, error) {
	return invoke[SettlementResponse](ctx, c, "GetSettlement", r)
}

func (c *KickstarterClient) Worklist(ctx context.Context, r *WorklistRequest) (*WorklistResponse, error) {
	return invoke[WorklistResponse](ctx, c, "Worklist", r)
}
