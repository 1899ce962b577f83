package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

const (
	// DepositDecimals is the precision of the deposit asset.
	DepositDecimals uint8 = 24
	// FeeBasisPoints is the denominator of PlatformFeeBps.
	FeeBasisPoints = 10_000
)

type CampaignID uint32

type CampaignState string

const (
	StateUpcoming   CampaignState = "UPCOMING"
	StateFunding    CampaignState = "FUNDING"
	StateEvaluating CampaignState = "EVALUATING"
	StateFailed     CampaignState = "FAILED"
	StateFrozen     CampaignState = "FROZEN"
	StateUnfrozen   CampaignState = "UNFROZEN"
)

// Campaign is the whole ledger of one fundraising project. It is always read,
// mutated and written back as a unit.
type Campaign struct {
	ID             CampaignID
	Slug           string
	Owner          AccountID
	CreatedAt      time.Time
	OpenAt         time.Time
	CloseAt        time.Time
	RewardToken    AccountID
	RewardDecimals uint8
	PriceSource    string
	PlatformFeeBps uint16

	Goals []Goal

	TotalDeposited        amount.Balance
	HardCap               amount.Balance
	MinDeposit            amount.Balance
	AvailableRewardTokens amount.Balance
	LockedRewardTokens    amount.Balance
	EnoughRewardTokens    bool

	Deposits        map[AccountID]amount.Balance
	AssetWithdrawn  map[WithdrawalOwner]amount.Balance
	RewardWithdrawn map[WithdrawalOwner]amount.Balance

	Active               bool
	Successful           *bool
	WinnerGoalID         *GoalID
	PlatformFee          *amount.Balance
	TotalTokensToRelease *amount.Balance
	PriceAtFreeze        *amount.Balance
	PriceAtUnfreeze      *amount.Balance
	UnfreezeAt           *time.Time

	UpdatedAt time.Time
}

type NewCampaignParams struct {
	Slug           string
	Owner          AccountID
	OpenAt         time.Time
	CloseAt        time.Time
	RewardToken    AccountID
	RewardDecimals uint8
	PriceSource    string
	PlatformFeeBps uint16
	HardCap        amount.Balance
	MinDeposit     amount.Balance
}

func NewCampaign(id CampaignID, p NewCampaignParams, now time.Time) (*Campaign, error) {
	c := &Campaign{
		ID:              id,
		CreatedAt:       now,
		UpdatedAt:       now,
		Active:          true,
		Deposits:        make(map[AccountID]amount.Balance),
		AssetWithdrawn:  make(map[WithdrawalOwner]amount.Balance),
		RewardWithdrawn: make(map[WithdrawalOwner]amount.Balance),
	}
	if err := c.apply(p, now); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the campaign settings. Only allowed before the window opens.
func (c *Campaign) Update(p NewCampaignParams, now time.Time) error {
	if !now.Before(c.OpenAt) {
		return fmt.Errorf("%w: campaign %d opened at %s", ErrCampaignStarted, c.ID, c.OpenAt.UTC().Format(time.RFC3339))
	}
	next := c.Clone()
	if err := next.apply(p, now); err != nil {
		return err
	}
	for _, g := range next.Goals {
		if g.DesiredAmount.Gt(next.HardCap) || g.UnfreezeAt.Before(next.CloseAt) || g.CliffAt.Before(next.CloseAt) {
			return fmt.Errorf("%w: goal %d does not fit the new window or hard cap", ErrGoalOrder, g.ID)
		}
	}
	if err := next.refreshRewardGate(); err != nil {
		return err
	}
	next.UpdatedAt = now
	*c = *next
	return nil
}

func (c *Campaign) apply(p NewCampaignParams, now time.Time) error {
	p.Slug = strings.TrimSpace(p.Slug)
	switch {
	case p.Slug == "":
		return fmt.Errorf("%w: slug is required", ErrInvalidInput)
	case p.Owner == "" || p.RewardToken == "":
		return fmt.Errorf("%w: owner and reward token are required", ErrInvalidInput)
	case !p.OpenAt.After(now):
		return fmt.Errorf("%w: open time must be in the future", ErrInvalidInput)
	case !p.CloseAt.After(p.OpenAt):
		return fmt.Errorf("%w: close time must follow open time", ErrInvalidInput)
	case p.HardCap.IsZero():
		return fmt.Errorf("%w: hard cap must be positive", ErrInvalidInput)
	case p.MinDeposit.Gt(p.HardCap):
		return fmt.Errorf("%w: min deposit above hard cap", ErrInvalidInput)
	case p.RewardDecimals > amount.MaxDecimals:
		return fmt.Errorf("%w: reward decimals above %d", ErrInvalidInput, amount.MaxDecimals)
	case p.PlatformFeeBps > FeeBasisPoints:
		return fmt.Errorf("%w: platform fee above 100%%", ErrInvalidInput)
	}
	c.Slug = p.Slug
	c.Owner = p.Owner
	c.OpenAt = p.OpenAt
	c.CloseAt = p.CloseAt
	c.RewardToken = p.RewardToken
	c.RewardDecimals = p.RewardDecimals
	c.PriceSource = p.PriceSource
	c.PlatformFeeBps = p.PlatformFeeBps
	c.HardCap = p.HardCap
	c.MinDeposit = p.MinDeposit
	return nil
}

// Clone returns a deep copy so repositories never hand out shared maps.
func (c *Campaign) Clone() *Campaign {
	out := *c
	out.Goals = append([]Goal(nil), c.Goals...)
	out.Deposits = make(map[AccountID]amount.Balance, len(c.Deposits))
	for k, v := range c.Deposits {
		out.Deposits[k] = v
	}
	out.AssetWithdrawn = cloneLedger(c.AssetWithdrawn)
	out.RewardWithdrawn = cloneLedger(c.RewardWithdrawn)
	out.Successful = clonePtr(c.Successful)
	out.WinnerGoalID = clonePtr(c.WinnerGoalID)
	out.PlatformFee = clonePtr(c.PlatformFee)
	out.TotalTokensToRelease = clonePtr(c.TotalTokensToRelease)
	out.PriceAtFreeze = clonePtr(c.PriceAtFreeze)
	out.PriceAtUnfreeze = clonePtr(c.PriceAtUnfreeze)
	out.UnfreezeAt = clonePtr(c.UnfreezeAt)
	return &out
}

func cloneLedger(in map[WithdrawalOwner]amount.Balance) map[WithdrawalOwner]amount.Balance {
	out := make(map[WithdrawalOwner]amount.Balance, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (c *Campaign) IsWithinFundingWindow(now time.Time) bool {
	return c.Active && !now.Before(c.OpenAt) && now.Before(c.CloseAt)
}

func (c *Campaign) IsEvaluated() bool { return c.Successful != nil }

func (c *Campaign) IsSuccessful() bool { return c.Successful != nil && *c.Successful }

func (c *Campaign) IsFailed() bool { return c.Successful != nil && !*c.Successful }

func (c *Campaign) IsUnfrozen() bool { return c.PriceAtUnfreeze != nil }

func (c *Campaign) State(now time.Time) CampaignState {
	switch {
	case c.IsFailed():
		return StateFailed
	case c.IsSuccessful() && c.IsUnfrozen():
		return StateUnfrozen
	case c.IsSuccessful():
		return StateFrozen
	case now.Before(c.OpenAt):
		return StateUpcoming
	case now.Before(c.CloseAt):
		return StateFunding
	default:
		return StateEvaluating
	}
}

func (c *Campaign) Goal(id GoalID) (*Goal, error) {
	if int(id) >= len(c.Goals) {
		return nil, fmt.Errorf("%w: campaign %d goal %d", ErrGoalNotFound, c.ID, id)
	}
	return &c.Goals[id], nil
}

func (c *Campaign) WinnerGoal() (*Goal, error) {
	if !c.IsSuccessful() || c.WinnerGoalID == nil {
		return nil, fmt.Errorf("%w: campaign %d", ErrCampaignNotSuccessful, c.ID)
	}
	return c.Goal(*c.WinnerGoalID)
}

func (c *Campaign) DepositOf(supporter AccountID) amount.Balance {
	return c.Deposits[supporter]
}

func (c *Campaign) platformFeeOn(v amount.Balance) (amount.Balance, error) {
	return amount.Proportional(v, amount.New(uint64(c.PlatformFeeBps)), amount.New(FeeBasisPoints))
}
