package domain

import (
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

type AccountID string

type OwnerKind uint8

const (
	OwnerSupporter OwnerKind = iota + 1
	OwnerCampaign
	OwnerPlatform
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerSupporter:
		return "supporter"
	case OwnerCampaign:
		return "campaign"
	case OwnerPlatform:
		return "platform"
	default:
		return "unknown"
	}
}

// WithdrawalOwner keys the withdrawal ledgers. Supporters, the campaign itself
// and the platform share one keyspace without any string formatting tricks.
type WithdrawalOwner struct {
	Kind    OwnerKind
	Account AccountID
}

func SupporterOwner(id AccountID) WithdrawalOwner {
	return WithdrawalOwner{Kind: OwnerSupporter, Account: id}
}

func CampaignOwner() WithdrawalOwner { return WithdrawalOwner{Kind: OwnerCampaign} }

func PlatformOwner() WithdrawalOwner { return WithdrawalOwner{Kind: OwnerPlatform} }

func (o WithdrawalOwner) IsSupporter() bool { return o.Kind == OwnerSupporter }

func (o WithdrawalOwner) String() string {
	if o.Kind == OwnerSupporter {
		return "supporter:" + string(o.Account)
	}
	return o.Kind.String()
}

func ParseWithdrawalOwner(s string) (WithdrawalOwner, error) {
	switch {
	case s == "campaign":
		return CampaignOwner(), nil
	case s == "platform":
		return PlatformOwner(), nil
	case strings.HasPrefix(s, "supporter:") && len(s) > len("supporter:"):
		return SupporterOwner(AccountID(strings.TrimPrefix(s, "supporter:"))), nil
	default:
		return WithdrawalOwner{}, fmt.Errorf("%w: withdrawal owner %q", ErrInvalidInput, s)
	}
}

func credit(ledger map[WithdrawalOwner]amount.Balance, owner WithdrawalOwner, v amount.Balance) error {
	next, err := ledger[owner].Add(v)
	if err != nil {
		return fmt.Errorf("%w: crediting %s: %v", ErrInvariant, owner, err)
	}
	ledger[owner] = next
	return nil
}

func debit(ledger map[WithdrawalOwner]amount.Balance, owner WithdrawalOwner, v amount.Balance) error {
	next, err := ledger[owner].Sub(v)
	if err != nil {
		return fmt.Errorf("%w: debiting %s: %v", ErrInvariant, owner, err)
	}
	if next.IsZero() {
		delete(ledger, owner)
		return nil
	}
	ledger[owner] = next
	return nil
}
