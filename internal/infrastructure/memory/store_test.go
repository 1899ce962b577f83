package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

func TestAtomic_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx domain.Store) error {
		id, err := tx.Campaigns().NextCampaignID(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Campaigns().CreateCampaign(ctx, &domain.Campaign{ID: id, Slug: "a"}))
		require.NoError(t, tx.Supporters().SaveSupporter(ctx, &domain.Supporter{ID: "alice", Campaigns: []domain.CampaignID{id}}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Campaigns().GetCampaign(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrCampaignNotFound)
	_, err = s.Supporters().GetSupporter(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrSupporterNotFound)

	id, err := s.Campaigns().NextCampaignID(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignID(0), id)
}

func TestCampaigns_SlugIndex(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Campaigns()

	require.NoError(t, repo.CreateCampaign(ctx, &domain.Campaign{ID: 0, Slug: "a"}))
	require.NoError(t, repo.CreateCampaign(ctx, &domain.Campaign{ID: 1, Slug: "b"}))
	assert.ErrorIs(t, repo.CreateCampaign(ctx, &domain.Campaign{ID: 2, Slug: "a"}), domain.ErrSlugTaken)

	c, err := repo.GetCampaign(ctx, 1)
	require.NoError(t, err)
	c.Slug = "a"
	assert.ErrorIs(t, repo.SaveCampaign(ctx, c), domain.ErrSlugTaken)

	c.Slug = "c"
	require.NoError(t, repo.SaveCampaign(ctx, c))
	_, err = repo.GetCampaignBySlug(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrCampaignNotFound)
	got, err := repo.GetCampaignBySlug(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignID(1), got.ID)

	page, total, err := repo.ListCampaigns(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].Slug)
}

func TestCampaigns_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Campaigns().CreateCampaign(ctx, &domain.Campaign{ID: 0, Slug: "a"}))

	c, err := s.Campaigns().GetCampaign(ctx, 0)
	require.NoError(t, err)
	c.Slug = "mutated"

	again, err := s.Campaigns().GetCampaign(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Slug)
}

func TestSettlements_Pending(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Settlements()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	alice := domain.SupporterOwner("alice")

	for i, id := range []string{"s2", "s1"} {
		require.NoError(t, repo.CreateSettlement(ctx, &domain.Settlement{
			ID:          id,
			CampaignID:  7,
			Beneficiary: alice,
			Status:      domain.SettlementPending,
			CreatedAt:   t0.Add(time.Duration(1-i) * time.Minute),
		}))
	}
	assert.Error(t, repo.CreateSettlement(ctx, &domain.Settlement{ID: "s1"}))

	pending, err := repo.HasPendingSettlement(ctx, 7, alice)
	require.NoError(t, err)
	assert.True(t, pending)
	pending, err = repo.HasPendingSettlement(ctx, 7, domain.CampaignOwner())
	require.NoError(t, err)
	assert.False(t, pending)

	stuck, err := repo.ListPendingSettlements(ctx, t0.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stuck, 2)
	assert.Equal(t, "s1", stuck[0].ID)

	s1, err := repo.GetSettlement(ctx, "s1")
	require.NoError(t, err)
	s1.Status = domain.SettlementCommitted
	require.NoError(t, repo.UpdateSettlement(ctx, s1))

	stuck, err = repo.ListPendingSettlements(ctx, t0.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, "s2", stuck[0].ID)

	_, err = repo.GetSettlement(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSettlementNotFound)
}
