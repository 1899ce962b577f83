package setup

import (
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-kickstarter-service/internal/usecase/kickstarter"
)

type UseCases struct {
	Kickstarter *kickstarter.DefaultKickstarterUsecase
}

func InitializeUseCases(deps *Dependencies) *UseCases {
	ledger := deps.Config.Ledger
	uc := kickstarter.NewDefaultKickstarterUsecase(
		deps.Store,
		deps.Transfers,
		deps.Oracle,
		deps.Events,
		deps.Locker,
		metrics.NewKickstarterMetrics(deps.Registry),
		deps.Logger,
		kickstarter.Params{
			DepositToken:    domain.AccountID(ledger.DepositToken),
			AdminAccount:    domain.AccountID(ledger.AdminAccount),
			TreasuryAccount: domain.AccountID(ledger.TreasuryAccount),
			PlatformFeeBps:  ledger.PlatformFeeBps,
			MaxGoals:        ledger.MaxGoals,
		},
	)
	return &UseCases{Kickstarter: uc}
}
