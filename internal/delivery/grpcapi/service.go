package grpcapi

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "kickstarter.v1.KickstarterService"

// KickstarterServer is the server API of ServiceName.
type KickstarterServer interface {
	CreateCampaign(context.Context, *CreateCampaignRequest) (*CampaignResponse, error)
	UpdateCampaign(context.Context, *UpdateCampaignRequest) (*CampaignResponse, error)
	AddGoal(context.Context, *AddGoalRequest) (*GoalResponse, error)
	DeleteLastGoal(context.Context, *DeleteGoalRequest) (*GoalResponse, error)

	OnAssetReceived(context.Context, *AssetReceivedRequest) (*AssetReceivedResponse, error)

	ProcessCampaign(context.Context, *CampaignRequest) (*ProcessCampaignResponse, error)
	UnfreezeCampaign(context.Context, *CampaignRequest) (*Empty, error)

	RefundDeposit(context.Context, *WithdrawRequest) (*SettlementResponse, error)
	WithdrawPrincipal(context.Context, *WithdrawRequest) (*SettlementResponse, error)
	ClaimReward(context.Context, *WithdrawRequest) (*SettlementResponse, error)
	WithdrawInterest(context.Context, *WithdrawRequest) (*SettlementResponse, error)
	RefundRewardTokens(context.Context, *WithdrawRequest) (*SettlementResponse, error)
	CollectPlatformFee(context.Context, *WithdrawRequest) (*SettlementResponse, error)
	ResolveSettlement(context.Context, *TransferResultRequest) (*SettlementResponse, error)

	GetCampaign(context.Context, *CampaignRequest) (*CampaignResponse, error)
	GetCampaignBySlug(context.Context, *CampaignBySlugRequest) (*CampaignResponse, error)
	ListCampaigns(context.Context, *ListCampaignsRequest) (*CampaignPageResponse, error)
	GetSupporter(context.Context, *SupporterRequest) (*SupporterResponse, error)
	AvailableReward(context.Context, *AvailableRewardRequest) (*AvailableRewardResponse, error)
	GetSettlement(context.Context, *SettlementRequest) (*SettlementResponse, error)
	Worklist(context.Context, *WorklistRequest) (*WorklistResponse, error)
}

func unary[Req, Resp any](method string, call func(KickstarterServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(KickstarterServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(KickstarterServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KickstarterServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateCampaign", KickstarterServer.CreateCampaign),
		unary("UpdateCampaign", KickstarterServer.UpdateCampaign),
		unary("AddGoal", KickstarterServer.AddGoal),
		unary("DeleteLastGoal", KickstarterServer.DeleteLastGoal),
		unary("OnAssetReceived", KickstarterServer.OnAssetReceived),
		unary("ProcessCampaign", KickstarterServer.ProcessCampaign),
		unary("UnfreezeCampaign", KickstarterServer.UnfreezeCampaign),
		unary("RefundDeposit", KickstarterServer.RefundDeposit),
		unary("WithdrawPrincipal", KickstarterServer.WithdrawPrincipal),
		unary("ClaimReward", KickstarterServer.ClaimReward),
		unary("WithdrawInterest", KickstarterServer.WithdrawInterest),
		unary("RefundRewardTokens", KickstarterServer.RefundRewardTokens),
		unary("CollectPlatformFee", KickstarterServer.CollectPlatformFee),
		unary("ResolveSettlement", KickstarterServer.ResolveSettlement),
		unary("GetCampaign", KickstarterServer.GetCampaign),
		unary("GetCampaignBySlug", KickstarterServer.GetCampaignBySlug),
		unary("ListCampaigns", KickstarterServer.ListCampaigns),
		unary("GetSupporter", KickstarterServer.GetSupporter),
		unary("AvailableReward", KickstarterServer.AvailableReward),
		unary("GetSettlement", KickstarterServer.GetSettlement),
		unary("Worklist", KickstarterServer.Worklist),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterKickstarterServer(s grpc.ServiceRegistrar, srv KickstarterServer) {
	s.RegisterService(&serviceDesc, srv)
}
