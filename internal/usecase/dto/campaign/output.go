package campaigndto

import (
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

type GoalOutput struct {
	ID            uint8          `json:"id"`
	Name          string         `json:"name"`
	DesiredAmount amount.Balance `json:"desired_amount"`
	RewardRate    amount.Balance `json:"reward_rate"`
	UnfreezeAt    time.Time      `json:"unfreeze_at"`
	CliffAt       time.Time      `json:"cliff_at"`
	EndAt         time.Time      `json:"end_at"`
}

type CampaignOutput struct {
	ID                    uint32          `json:"id"`
	Slug                  string          `json:"slug"`
	Owner                 string          `json:"owner"`
	State                 string          `json:"state"`
	CreatedAt             time.Time       `json:"created_at"`
	OpenAt                time.Time       `json:"open_at"`
	CloseAt               time.Time       `json:"close_at"`
	RewardToken           string          `json:"reward_token"`
	RewardDecimals        uint8           `json:"reward_decimals"`
	PriceSource           string          `json:"price_source"`
	PlatformFeeBps        uint16          `json:"platform_fee_bps"`
	HardCap               amount.Balance  `json:"hard_cap"`
	MinDeposit            amount.Balance  `json:"min_deposit"`
	TotalDeposited        amount.Balance  `json:"total_deposited"`
	AvailableRewardTokens amount.Balance  `json:"available_reward_tokens"`
	LockedRewardTokens    amount.Balance  `json:"locked_reward_tokens"`
	EnoughRewardTokens    bool            `json:"enough_reward_tokens"`
	Supporters            int             `json:"supporters"`
	Goals                 []GoalOutput    `json:"goals"`
	Successful            *bool           `json:"successful,omitempty"`
	WinnerGoalID          *uint8          `json:"winner_goal_id,omitempty"`
	PlatformFee           *amount.Balance `json:"platform_fee,omitempty"`
	TotalTokensToRelease  *amount.Balance `json:"total_tokens_to_release,omitempty"`
	PriceAtFreeze         *amount.Balance `json:"price_at_freeze,omitempty"`
	PriceAtUnfreeze       *amount.Balance `json:"price_at_unfreeze,omitempty"`
	UnfreezeAt            *time.Time      `json:"unfreeze_at,omitempty"`
}

type CampaignPage struct {
	Campaigns []CampaignOutput `json:"campaigns"`
	Total     int64            `json:"total"`
}

// PositionOutput is one supporter's stake in one campaign. Reward and
// principal figures are only present once the campaign reached the stage
// that defines them.
type PositionOutput struct {
	CampaignID         uint32          `json:"campaign_id"`
	State              string          `json:"state"`
	Deposit            amount.Balance  `json:"deposit"`
	TotalReward        *amount.Balance `json:"total_reward,omitempty"`
	AvailableReward    *amount.Balance `json:"available_reward,omitempty"`
	RewardWithdrawn    amount.Balance  `json:"reward_withdrawn"`
	RepricedDeposit    *amount.Balance `json:"repriced_deposit,omitempty"`
	AvailablePrincipal *amount.Balance `json:"available_principal,omitempty"`
	PrincipalWithdrawn amount.Balance  `json:"principal_withdrawn"`
}

type SupporterOutput struct {
	Account   string           `json:"account"`
	Positions []PositionOutput `json:"positions"`
}

type SettlementOutput struct {
	ID            string         `json:"id"`
	CampaignID    uint32         `json:"campaign_id"`
	Kind          string         `json:"kind"`
	Beneficiary   string         `json:"beneficiary"`
	Receiver      string         `json:"receiver"`
	Token         string         `json:"token"`
	Amount        amount.Balance `json:"amount"`
	Memo          string         `json:"memo"`
	Status        string         `json:"status"`
	FailureReason string         `json:"failure_reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
}

type AssetReceivedOutput struct {
	Unused amount.Balance `json:"unused"`
	Reason string         `json:"reason,omitempty"`
}

type WorklistOutput struct {
	ToEvaluate []uint32 `json:"to_evaluate"`
	ToUnfreeze []uint32 `json:"to_unfreeze"`
}

func FromCampaign(c *domain.Campaign, now time.Time) CampaignOutput {
	out := CampaignOutput{
		ID:                    uint32(c.ID),
		Slug:                  c.Slug,
		Owner:                 string(c.Owner),
		State:                 string(c.State(now)),
		CreatedAt:             c.CreatedAt,
		OpenAt:                c.OpenAt,
		CloseAt:               c.CloseAt,
		RewardToken:           string(c.RewardToken),
		RewardDecimals:        c.RewardDecimals,
		PriceSource:           c.PriceSource,
		PlatformFeeBps:        c.PlatformFeeBps,
		HardCap:               c.HardCap,
		MinDeposit:            c.MinDeposit,
		TotalDeposited:        c.TotalDeposited,
		AvailableRewardTokens: c.AvailableRewardTokens,
		LockedRewardTokens:    c.LockedRewardTokens,
		EnoughRewardTokens:    c.EnoughRewardTokens,
		Supporters:            len(c.Deposits),
		Goals:                 make([]GoalOutput, 0, len(c.Goals)),
		Successful:            c.Successful,
		PlatformFee:           c.PlatformFee,
		TotalTokensToRelease:  c.TotalTokensToRelease,
		PriceAtFreeze:         c.PriceAtFreeze,
		PriceAtUnfreeze:       c.PriceAtUnfreeze,
		UnfreezeAt:            c.UnfreezeAt,
	}
	if c.WinnerGoalID != nil {
		id := uint8(*c.WinnerGoalID)
		out.WinnerGoalID = &id
	}
	for _, g := range c.Goals {
		out.Goals = append(out.Goals, FromGoal(g))
	}
	return out
}

func FromGoal(g domain.Goal) GoalOutput {
	return GoalOutput{
		ID:            uint8(g.ID),
		Name:          g.Name,
		DesiredAmount: g.DesiredAmount,
		RewardRate:    g.RewardRate,
		UnfreezeAt:    g.UnfreezeAt,
		CliffAt:       g.CliffAt,
		EndAt:         g.EndAt,
	}
}

func FromSettlement(s *domain.Settlement) SettlementOutput {
	return SettlementOutput{
		ID:            s.ID,
		CampaignID:    uint32(s.CampaignID),
		Kind:          string(s.Kind),
		Beneficiary:   s.Beneficiary.String(),
		Receiver:      string(s.Receiver),
		Token:         string(s.Token),
		Amount:        s.Amount,
		Memo:          s.Memo,
		Status:        string(s.Status),
		FailureReason: s.FailureReason,
		CreatedAt:     s.CreatedAt,
		ResolvedAt:    s.ResolvedAt,
	}
}
