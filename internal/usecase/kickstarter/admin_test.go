package kickstarter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
)

func createInput(slug string) *campaigndto.CreateCampaignInput {
	return &campaigndto.CreateCampaignInput{
		Slug:        slug,
		Owner:       string(owner),
		OpenAt:      at(1),
		CloseAt:     at(2),
		RewardToken: rewardToken,
		PriceSource: priceSource,
		HardCap:     unitsStr(1000),
	}
}

func TestCreateCampaign_AdminOnly(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.CreateCampaign(f.ctx, "mallory", createInput("x"), base)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.uc.CreateCampaign(f.ctx, "", createInput("x"), base)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	out, err := f.uc.CreateCampaign(f.ctx, admin, createInput("x"), base)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), out.ID)
	assert.Equal(t, string(domain.StateUpcoming), out.State)
	assert.Equal(t, uint16(100), out.PlatformFeeBps)

	_, err = f.uc.CreateCampaign(f.ctx, admin, createInput("x"), base)
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	out, err = f.uc.CreateCampaign(f.ctx, admin, createInput("y"), base)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), out.ID)
}

func TestCreateCampaign_Validation(t *testing.T) {
	f := newFixture(t)

	in := createInput("")
	_, err := f.uc.CreateCampaign(f.ctx, admin, in, base)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = createInput("x")
	in.HardCap = "lots"
	_, err = f.uc.CreateCampaign(f.ctx, admin, in, base)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = createInput("x")
	in.CloseAt = at(0.5)
	_, err = f.uc.CreateCampaign(f.ctx, admin, in, base)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = createInput("x")
	_, err = f.uc.CreateCampaign(f.ctx, admin, in, at(1.5))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateCampaign(t *testing.T) {
	f := newFixture(t)
	id := f.createCampaign(t)
	_, err := f.uc.CreateCampaign(f.ctx, admin, createInput("taken"), base)
	require.NoError(t, err)

	in := &campaigndto.UpdateCampaignInput{CampaignID: uint32(id), CreateCampaignInput: *createInput("taken")}
	_, err = f.uc.UpdateCampaign(f.ctx, admin, in, base)
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	in.Slug = "solar-roof-v2"
	in.CloseAt = at(3)
	out, err := f.uc.UpdateCampaign(f.ctx, admin, in, base)
	require.NoError(t, err)
	assert.Equal(t, "solar-roof-v2", out.Slug)
	assert.Equal(t, at(3), out.CloseAt)
	assert.Len(t, out.Goals, 2)

	bySlug, err := f.uc.GetCampaignBySlug(f.ctx, "solar-roof-v2", base)
	require.NoError(t, err)
	assert.Equal(t, uint32(id), bySlug.ID)

	_, err = f.uc.UpdateCampaign(f.ctx, admin, in, at(1.5))
	assert.ErrorIs(t, err, domain.ErrCampaignStarted)
}

func TestGoals_AddAndDelete(t *testing.T) {
	f := newFixture(t)
	id := f.createCampaign(t)

	_, err := f.uc.AddGoal(f.ctx, owner, &campaigndto.AddGoalInput{CampaignID: uint32(id)}, base)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Desired amounts never decrease.
	_, err = f.uc.AddGoal(f.ctx, admin, &campaigndto.AddGoalInput{
		CampaignID: uint32(id), Name: "small", DesiredAmount: unitsStr(50), RewardRate: "3",
		UnfreezeAt: at(8), CliffAt: at(3), EndAt: at(5),
	}, base)
	assert.ErrorIs(t, err, domain.ErrGoalOrder)

	g, err := f.uc.DeleteLastGoal(f.ctx, admin, &campaigndto.DeleteGoalInput{CampaignID: uint32(id)}, base)
	require.NoError(t, err)
	assert.Equal(t, "stretch", g.Name)
	assert.Len(t, f.campaign(t, id).Goals, 1)

	_, err = f.uc.DeleteLastGoal(f.ctx, admin, &campaigndto.DeleteGoalInput{CampaignID: uint32(id)}, at(1.5))
	assert.ErrorIs(t, err, domain.ErrCampaignStarted)
}

func TestListCampaigns(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.createCampaign(t)
	}

	page, err := f.uc.ListCampaigns(f.ctx, &campaigndto.ListCampaignsInput{Offset: 1, Limit: 1}, base)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Campaigns, 1)
	assert.Equal(t, uint32(1), page.Campaigns[0].ID)

	page, err = f.uc.ListCampaigns(f.ctx, &campaigndto.ListCampaignsInput{}, base)
	require.NoError(t, err)
	assert.Len(t, page.Campaigns, 3)

	_, err = f.uc.ListCampaigns(f.ctx, &campaigndto.ListCampaignsInput{Limit: 500}, base)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
