package mappers

import (
	"sort"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/postgres/models"
)

func ToGORMCampaign(c *domain.Campaign) *models.CampaignModel {
	m := &models.CampaignModel{
		ID:                    uint32(c.ID),
		Slug:                  c.Slug,
		Owner:                 string(c.Owner),
		CreatedAt:             c.CreatedAt,
		OpenAt:                c.OpenAt,
		CloseAt:               c.CloseAt,
		RewardToken:           string(c.RewardToken),
		RewardDecimals:        c.RewardDecimals,
		PriceSource:           c.PriceSource,
		PlatformFeeBps:        c.PlatformFeeBps,
		Goals:                 make([]models.GoalModel, 0, len(c.Goals)),
		TotalDeposited:        c.TotalDeposited,
		HardCap:               c.HardCap,
		MinDeposit:            c.MinDeposit,
		AvailableRewardTokens: c.AvailableRewardTokens,
		LockedRewardTokens:    c.LockedRewardTokens,
		EnoughRewardTokens:    c.EnoughRewardTokens,
		Deposits:              depositEntries(c.Deposits),
		AssetWithdrawn:        withdrawalEntries(c.AssetWithdrawn),
		RewardWithdrawn:       withdrawalEntries(c.RewardWithdrawn),
		Active:                c.Active,
		Successful:            c.Successful,
		PlatformFee:           c.PlatformFee,
		TotalTokensToRelease:  c.TotalTokensToRelease,
		PriceAtFreeze:         c.PriceAtFreeze,
		PriceAtUnfreeze:       c.PriceAtUnfreeze,
		UnfreezeAt:            c.UnfreezeAt,
		UpdatedAt:             c.UpdatedAt,
	}
	if c.WinnerGoalID != nil {
		id := uint8(*c.WinnerGoalID)
		m.WinnerGoalID = &id
	}
	for _, g := range c.Goals {
		m.Goals = append(m.Goals, ToGORMGoal(c.ID, g))
	}
	return m
}

func ToGORMGoal(campaignID domain.CampaignID, g domain.Goal) models.GoalModel {
	return models.GoalModel{
		CampaignID:    uint32(campaignID),
		GoalID:        uint8(g.ID),
		Name:          g.Name,
		DesiredAmount: g.DesiredAmount,
		RewardRate:    g.RewardRate,
		UnfreezeAt:    g.UnfreezeAt,
		CliffAt:       g.CliffAt,
		EndAt:         g.EndAt,
	}
}

func ToDomainCampaign(m *models.CampaignModel) (*domain.Campaign, error) {
	assetWithdrawn, err := withdrawalLedger(m.AssetWithdrawn)
	if err != nil {
		return nil, err
	}
	rewardWithdrawn, err := withdrawalLedger(m.RewardWithdrawn)
	if err != nil {
		return nil, err
	}
	c := &domain.Campaign{
		ID:                    domain.CampaignID(m.ID),
		Slug:                  m.Slug,
		Owner:                 domain.AccountID(m.Owner),
		CreatedAt:             m.CreatedAt,
		OpenAt:                m.OpenAt,
		CloseAt:               m.CloseAt,
		RewardToken:           domain.AccountID(m.RewardToken),
		RewardDecimals:        m.RewardDecimals,
		PriceSource:           m.PriceSource,
		PlatformFeeBps:        m.PlatformFeeBps,
		Goals:                 make([]domain.Goal, 0, len(m.Goals)),
		TotalDeposited:        m.TotalDeposited,
		HardCap:               m.HardCap,
		MinDeposit:            m.MinDeposit,
		AvailableRewardTokens: m.AvailableRewardTokens,
		LockedRewardTokens:    m.LockedRewardTokens,
		EnoughRewardTokens:    m.EnoughRewardTokens,
		Deposits:              depositLedger(m.Deposits),
		AssetWithdrawn:        assetWithdrawn,
		RewardWithdrawn:       rewardWithdrawn,
		Active:                m.Active,
		Successful:            m.Successful,
		PlatformFee:           m.PlatformFee,
		TotalTokensToRelease:  m.TotalTokensToRelease,
		PriceAtFreeze:         m.PriceAtFreeze,
		PriceAtUnfreeze:       m.PriceAtUnfreeze,
		UnfreezeAt:            m.UnfreezeAt,
		UpdatedAt:             m.UpdatedAt,
	}
	if m.WinnerGoalID != nil {
		id := domain.GoalID(*m.WinnerGoalID)
		c.WinnerGoalID = &id
	}
	goals := append([]models.GoalModel(nil), m.Goals...)
	sort.Slice(goals, func(i, j int) bool { return goals[i].GoalID < goals[j].GoalID })
	for _, g := range goals {
		c.Goals = append(c.Goals, domain.Goal{
			ID:            domain.GoalID(g.GoalID),
			Name:          g.Name,
			DesiredAmount: g.DesiredAmount,
			RewardRate:    g.RewardRate,
			UnfreezeAt:    g.UnfreezeAt,
			CliffAt:       g.CliffAt,
			EndAt:         g.EndAt,
		})
	}
	return c, nil
}

// Entries are sorted so an unchanged ledger serialises to the same bytes.
func depositEntries(in map[domain.AccountID]amount.Balance) models.LedgerEntries {
	out := make(models.LedgerEntries, 0, len(in))
	for k, v := range in {
		out = append(out, models.LedgerEntry{Key: string(k), Balance: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func withdrawalEntries(in map[domain.WithdrawalOwner]amount.Balance) models.LedgerEntries {
	out := make(models.LedgerEntries, 0, len(in))
	for k, v := range in {
		out = append(out, models.LedgerEntry{Key: k.String(), Balance: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func depositLedger(in models.LedgerEntries) map[domain.AccountID]amount.Balance {
	out := make(map[domain.AccountID]amount.Balance, len(in))
	for _, e := range in {
		out[domain.AccountID(e.Key)] = e.Balance
	}
	return out
}

func withdrawalLedger(in models.LedgerEntries) (map[domain.WithdrawalOwner]amount.Balance, error) {
	out := make(map[domain.WithdrawalOwner]amount.Balance, len(in))
	for _, e := range in {
		owner, err := domain.ParseWithdrawalOwner(e.Key)
		if err != nil {
			return nil, err
		}
		out[owner] = e.Balance
	}
	return out, nil
}
