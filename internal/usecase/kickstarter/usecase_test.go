package kickstarter

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/lock"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-kickstarter-service/internal/testutil"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
)

const (
	admin        domain.AccountID = "admin"
	treasury     domain.AccountID = "treasury"
	owner        domain.AccountID = "owner"
	alice        domain.AccountID = "alice"
	bob          domain.AccountID = "bob"
	depositToken                  = "wrap.near"
	rewardToken                   = "reward.token"
	priceSource                   = "meta-pool"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(h float64) time.Time { return base.Add(time.Duration(h * float64(time.Hour))) }

// unitsStr returns n whole deposit units in base units.
func unitsStr(n int) string {
	return strconv.Itoa(n) + strings.Repeat("0", int(domain.DepositDecimals))
}

func units(n int) amount.Balance { return amount.MustParse(unitsStr(n)) }

type fixture struct {
	ctx       context.Context
	uc        *DefaultKickstarterUsecase
	store     *memory.Store
	transfers *testutil.Transfers
	oracle    *testutil.Oracle
	events    *testutil.Events
	created   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:       context.Background(),
		store:     memory.NewStore(),
		transfers: &testutil.Transfers{},
		oracle:    testutil.NewOracle(),
		events:    &testutil.Events{},
	}
	f.uc = NewDefaultKickstarterUsecase(
		f.store,
		f.transfers,
		f.oracle,
		f.events,
		lock.NewKeyedMutex(),
		metrics.NewKickstarterMetrics(prometheus.NewRegistry()),
		zerolog.Nop(),
		Params{
			DepositToken:    depositToken,
			AdminAccount:    admin,
			TreasuryAccount: treasury,
			PlatformFeeBps:  100,
		},
	)
	return f
}

// createCampaign opens at(1), closes at(2) and carries two goals: 100 units
// at rate 2 and 200 units at rate 3.
func (f *fixture) createCampaign(t *testing.T) domain.CampaignID {
	t.Helper()
	f.created++
	out, err := f.uc.CreateCampaign(f.ctx, admin, &campaigndto.CreateCampaignInput{
		Slug:        "solar-roof-" + strconv.Itoa(f.created),
		Owner:       string(owner),
		OpenAt:      at(1),
		CloseAt:     at(2),
		RewardToken: rewardToken,
		PriceSource: priceSource,
		HardCap:     unitsStr(1000),
		MinDeposit:  unitsStr(1),
	}, base)
	require.NoError(t, err)

	id := domain.CampaignID(out.ID)
	_, err = f.uc.AddGoal(f.ctx, admin, &campaigndto.AddGoalInput{
		CampaignID: out.ID, Name: "base", DesiredAmount: unitsStr(100), RewardRate: "2",
		UnfreezeAt: at(10), CliffAt: at(3), EndAt: at(5),
	}, base)
	require.NoError(t, err)
	_, err = f.uc.AddGoal(f.ctx, admin, &campaigndto.AddGoalInput{
		CampaignID: out.ID, Name: "stretch", DesiredAmount: unitsStr(200), RewardRate: "3",
		UnfreezeAt: at(8), CliffAt: at(3), EndAt: at(5),
	}, base)
	require.NoError(t, err)
	return id
}

func (f *fixture) receive(token string, sender domain.AccountID, v string, id domain.CampaignID, now time.Time) (*campaigndto.AssetReceivedOutput, error) {
	return f.uc.OnAssetReceived(f.ctx, &campaigndto.AssetReceivedInput{
		Token:  token,
		Sender: string(sender),
		Amount: v,
		Msg:    strconv.FormatUint(uint64(id), 10),
	}, now)
}

func (f *fixture) fundedCampaign(t *testing.T) domain.CampaignID {
	t.Helper()
	id := f.createCampaign(t)
	out, err := f.receive(rewardToken, owner, "3030", id, base)
	require.NoError(t, err)
	require.True(t, out.Unused.IsZero())
	return id
}

func (f *fixture) deposit(t *testing.T, id domain.CampaignID, who domain.AccountID, n int) {
	t.Helper()
	out, err := f.receive(depositToken, who, unitsStr(n), id, at(1.5))
	require.NoError(t, err)
	require.True(t, out.Unused.IsZero())
}

// succeededCampaign has alice at 60 units and bob at 90, frozen at price 1.
func (f *fixture) succeededCampaign(t *testing.T) domain.CampaignID {
	t.Helper()
	id := f.fundedCampaign(t)
	f.deposit(t, id, alice, 60)
	f.deposit(t, id, bob, 90)
	f.oracle.Set(priceSource, units(1))
	state, err := f.uc.ProcessCampaign(f.ctx, id, at(2))
	require.NoError(t, err)
	require.Equal(t, domain.StateFrozen, state)
	return id
}

// failedCampaign has alice at 50 units, below the first goal.
func (f *fixture) failedCampaign(t *testing.T) domain.CampaignID {
	t.Helper()
	id := f.fundedCampaign(t)
	f.deposit(t, id, alice, 50)
	state, err := f.uc.ProcessCampaign(f.ctx, id, at(2))
	require.NoError(t, err)
	require.Equal(t, domain.StateFailed, state)
	return id
}

func (f *fixture) campaign(t *testing.T, id domain.CampaignID) *domain.Campaign {
	t.Helper()
	c, err := f.store.Campaigns().GetCampaign(f.ctx, id)
	require.NoError(t, err)
	return c
}

func withdrawIn(id domain.CampaignID, v string) *campaigndto.WithdrawInput {
	return &campaigndto.WithdrawInput{CampaignID: uint32(id), Amount: v}
}
