package grpcapi

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/lock"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-kickstarter-service/internal/testutil"
	"github.com/LavaJover/shvark-kickstarter-service/internal/usecase/kickstarter"
)

const admin domain.AccountID = "admin"

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func units(n string) string { return n + strings.Repeat("0", int(domain.DepositDecimals)) }

type harness struct {
	client *KickstarterClient
	conn   *grpc.ClientConn
}

func startServer(t *testing.T) *harness {
	t.Helper()
	uc := kickstarter.NewDefaultKickstarterUsecase(
		memory.NewStore(),
		&testutil.Transfers{},
		testutil.NewOracle(),
		&testutil.Events{},
		lock.NewKeyedMutex(),
		metrics.NewKickstarterMetrics(prometheus.NewRegistry()),
		zerolog.Nop(),
		kickstarter.Params{DepositToken: "wrap.near", AdminAccount: admin, TreasuryAccount: "treasury"},
	)
	handler := NewKickstarterHandler(uc)
	handler.now = func() time.Time { return now }

	lis := bufconn.Listen(1 << 20)
	srv, _ := NewServer(handler, zerolog.Nop())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dialer := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
	client, err := NewKickstarterClient("passthrough:///bufnet", dialer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	conn, err := grpc.NewClient("passthrough:///bufnet", dialer, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{client: client, conn: conn}
}

func createRequest(slug string) *CreateCampaignRequest {
	return &CreateCampaignRequest{
		Slug:        slug,
		Owner:       "owner",
		OpenAt:      now.Add(time.Hour),
		CloseAt:     now.Add(2 * time.Hour),
		RewardToken: "reward.token",
		PriceSource: "meta-pool",
		HardCap:     units("1000"),
	}
}

func TestGRPC_CampaignLifecycle(t *testing.T) {
	h := startServer(t)
	ctx := AsCaller(context.Background(), admin)

	created, err := h.client.CreateCampaign(ctx, createRequest("solar-roof"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), created.ID)
	assert.Equal(t, "1000"+strings.Repeat("0", 24), created.HardCap.String())

	goal, err := h.client.AddGoal(ctx, &AddGoalRequest{
		CampaignID:    created.ID,
		Name:          "base",
		DesiredAmount: units("100"),
		RewardRate:    "2",
		UnfreezeAt:    now.Add(10 * time.Hour),
		CliffAt:       now.Add(3 * time.Hour),
		EndAt:         now.Add(5 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "base", goal.Name)

	got, err := h.client.GetCampaignBySlug(context.Background(), &CampaignBySlugRequest{Slug: "solar-roof"})
	require.NoError(t, err)
	assert.Len(t, got.Goals, 1)
	assert.Equal(t, string(domain.StateUpcoming), got.State)

	page, err := h.client.ListCampaigns(context.Background(), &ListCampaignsRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestGRPC_StatusCodes(t *testing.T) {
	h := startServer(t)

	_, err := h.client.CreateCampaign(AsCaller(context.Background(), "mallory"), createRequest("x"))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = h.client.GetCampaign(context.Background(), &CampaignRequest{CampaignID: 99})
	assert.Equal(t, codes.NotFound, status.Code(err))

	ctx := AsCaller(context.Background(), admin)
	_, err = h.client.CreateCampaign(ctx, createRequest("dup"))
	require.NoError(t, err)
	_, err = h.client.CreateCampaign(ctx, createRequest("dup"))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = h.client.ProcessCampaign(context.Background(), &CampaignRequest{CampaignID: 0})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = h.client.GetSupporter(context.Background(), &SupporterRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_AssetReceivedReturnsUnused(t *testing.T) {
	h := startServer(t)

	out, err := h.client.OnAssetReceived(context.Background(), &AssetReceivedRequest{
		Token:  "wrap.near",
		Sender: "alice",
		Amount: units("5"),
		Msg:    "not-a-campaign",
	})
	require.NoError(t, err)
	assert.Equal(t, units("5"), out.Unused.String())
	assert.NotEmpty(t, out.Reason)
}

func TestGRPC_Health(t *testing.T) {
	h := startServer(t)

	resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
