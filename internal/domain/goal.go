package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

type GoalID uint8

// Goal is one funding tier. RewardRate is expressed in reward base units per
// whole deposit unit (10^DepositDecimals base units).
type Goal struct {
	ID            GoalID
	Name          string
	DesiredAmount amount.Balance
	RewardRate    amount.Balance
	UnfreezeAt    time.Time
	CliffAt       time.Time
	EndAt         time.Time
}

// AddGoal appends a stretch tier. Each tier needs at least as much money, pays
// at least the same rate and unlocks no later than the one before it.
func (c *Campaign) AddGoal(g Goal, maxGoals int, now time.Time) (GoalID, error) {
	if !now.Before(c.OpenAt) {
		return 0, fmt.Errorf("%w: goals are frozen once campaign %d opens", ErrCampaignStarted, c.ID)
	}
	if len(c.Goals) >= maxGoals || len(c.Goals) > 255 {
		return 0, fmt.Errorf("%w: %d", ErrTooManyGoals, len(c.Goals))
	}
	g.Name = strings.TrimSpace(g.Name)
	switch {
	case g.Name == "":
		return 0, fmt.Errorf("%w: goal name is required", ErrInvalidInput)
	case g.DesiredAmount.IsZero() || g.RewardRate.IsZero():
		return 0, fmt.Errorf("%w: desired amount and reward rate must be positive", ErrInvalidInput)
	case g.DesiredAmount.Gt(c.HardCap):
		return 0, fmt.Errorf("%w: desired amount %s above hard cap %s", ErrInvalidInput, g.DesiredAmount, c.HardCap)
	case g.UnfreezeAt.Before(c.CloseAt) || g.CliffAt.Before(c.CloseAt):
		return 0, fmt.Errorf("%w: unfreeze and cliff must not precede campaign close", ErrInvalidInput)
	case g.EndAt.Before(g.CliffAt):
		return 0, fmt.Errorf("%w: vesting end precedes cliff", ErrInvalidInput)
	}
	if n := len(c.Goals); n > 0 {
		prev := c.Goals[n-1]
		if g.DesiredAmount.Lt(prev.DesiredAmount) {
			return 0, fmt.Errorf("%w: desired amount %s below previous %s", ErrGoalOrder, g.DesiredAmount, prev.DesiredAmount)
		}
		if g.RewardRate.Lt(prev.RewardRate) {
			return 0, fmt.Errorf("%w: reward rate %s below previous %s", ErrGoalOrder, g.RewardRate, prev.RewardRate)
		}
		if g.UnfreezeAt.After(prev.UnfreezeAt) {
			return 0, fmt.Errorf("%w: unfreeze time later than previous goal", ErrGoalOrder)
		}
	}
	g.ID = GoalID(len(c.Goals))
	c.Goals = append(c.Goals, g)
	if err := c.refreshRewardGate(); err != nil {
		c.Goals = c.Goals[:len(c.Goals)-1]
		return 0, err
	}
	c.UpdatedAt = now
	return g.ID, nil
}

func (c *Campaign) DeleteLastGoal(now time.Time) (Goal, error) {
	if !now.Before(c.OpenAt) {
		return Goal{}, fmt.Errorf("%w: goals are frozen once campaign %d opens", ErrCampaignStarted, c.ID)
	}
	if len(c.Goals) == 0 {
		return Goal{}, ErrNoGoals
	}
	last := c.Goals[len(c.Goals)-1]
	c.Goals = c.Goals[:len(c.Goals)-1]
	if err := c.refreshRewardGate(); err != nil {
		c.Goals = append(c.Goals, last)
		return Goal{}, err
	}
	c.UpdatedAt = now
	return last, nil
}

// AchievedGoal is the highest tier whose desired amount the deposits reached.
// Equal tiers resolve to the last appended one.
func (c *Campaign) AchievedGoal() *Goal {
	var best *Goal
	for i := range c.Goals {
		g := &c.Goals[i]
		if g.DesiredAmount.Gt(c.TotalDeposited) {
			continue
		}
		if best == nil || g.DesiredAmount.Cmp(best.DesiredAmount) >= 0 {
			best = g
		}
	}
	return best
}
