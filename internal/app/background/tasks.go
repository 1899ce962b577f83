package background

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/LavaJover/shvark-kickstarter-service/internal/config"
	"github.com/LavaJover/shvark-kickstarter-service/internal/usecase/kickstarter"
)

// Sweeper is the batch side of the kickstarter usecase.
type Sweeper interface {
	ProcessDueCampaigns(ctx context.Context, now time.Time, limit int) (kickstarter.BatchResult, error)
	UnfreezeDueCampaigns(ctx context.Context, now time.Time, limit int) (kickstarter.BatchResult, error)
	CheckStuckSettlements(ctx context.Context, now time.Time, maxAge time.Duration, limit int) (int, error)
}

type BackgroundTasks struct {
	sweeper Sweeper
	cfg     config.Scheduler
	logger  zerolog.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewBackgroundTasks(sweeper Sweeper, cfg config.Scheduler, logger zerolog.Logger) *BackgroundTasks {
	return &BackgroundTasks{
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		now:     time.Now,
	}
}

// StartAll launches every loop; Wait blocks until they exit after ctx ends.
func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	bt.start(ctx, "evaluate", bt.cfg.EvaluateInterval, bt.evaluateDue)
	bt.start(ctx, "unfreeze", bt.cfg.UnfreezeInterval, bt.unfreezeDue)
	bt.start(ctx, "stuck_settlements", bt.cfg.StuckCheckInterval, bt.checkStuck)
}

func (bt *BackgroundTasks) Wait() {
	bt.wg.Wait()
}

func (bt *BackgroundTasks) start(ctx context.Context, name string, interval time.Duration, tick func(ctx context.Context)) {
	if interval <= 0 {
		bt.logger.Warn().Str("task", name).Msg("task disabled")
		return
	}
	bt.wg.Add(1)
	go func() {
		defer bt.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick(ctx)
			}
		}
	}()
}

func (bt *BackgroundTasks) evaluateDue(ctx context.Context) {
	res, err := bt.sweeper.ProcessDueCampaigns(ctx, bt.now(), bt.cfg.BatchSize)
	bt.logBatch("evaluate", res, err)
}

func (bt *BackgroundTasks) unfreezeDue(ctx context.Context) {
	res, err := bt.sweeper.UnfreezeDueCampaigns(ctx, bt.now(), bt.cfg.BatchSize)
	bt.logBatch("unfreeze", res, err)
}

func (bt *BackgroundTasks) checkStuck(ctx context.Context) {
	n, err := bt.sweeper.CheckStuckSettlements(ctx, bt.now(), bt.cfg.StuckSettlementAge, bt.cfg.BatchSize)
	if err != nil {
		bt.logger.Error().Err(err).Msg("stuck settlement check failed")
		return
	}
	if n > 0 {
		bt.logger.Warn().Int("count", n).Dur("max_age", bt.cfg.StuckSettlementAge).Msg("settlements pending too long")
	}
}

func (bt *BackgroundTasks) logBatch(task string, res kickstarter.BatchResult, err error) {
	if err != nil {
		bt.logger.Error().Err(err).Str("task", task).Msg("batch failed")
		return
	}
	if res.Processed == 0 && res.Failed == 0 {
		return
	}
	bt.logger.Info().
		Str("task", task).
		Int("processed", res.Processed).
		Int("failed", res.Failed).
		Msg("batch done")
}
