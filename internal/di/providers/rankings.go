package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/logan676/bookpost-sub007/internal/config"
	"github.com/logan676/bookpost-sub007/internal/logger"
	"github.com/logan676/bookpost-sub007/internal/ranking"
)

// ProvideRankingCache provides the in-memory ranking cache shared by the
// engine (writer) and the query paths (readers).
func ProvideRankingCache(i do.Injector) (*ranking.Cache, error) {
	return ranking.NewCache(), nil
}

// ProvideRankingEngine provides the ranking computation engine.
func ProvideRankingEngine(i do.Injector) (*ranking.Engine, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cache := do.MustInvoke[*ranking.Cache](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return ranking.NewEngine(storeHandle.Store, cache, cfg.Ranking, log.Logger), nil
}

// RankingSchedulerJob runs the periodic ranking refresh.
type RankingSchedulerJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *RankingSchedulerJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideRankingScheduler provides the background ranking refresh job.
func ProvideRankingScheduler(i do.Injector) (*RankingSchedulerJob, error) {
	engine := do.MustInvoke[*ranking.Engine](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	scheduler := ranking.NewScheduler(engine, cfg.Ranking, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go scheduler.Run(ctx)

	log.Info("Ranking scheduler started",
		"trending_interval", cfg.Ranking.TrendingInterval,
		"popular_interval", cfg.Ranking.PopularInterval,
		"daily_interval", cfg.Ranking.DailyInterval,
	)

	return &RankingSchedulerJob{cancel: cancel}, nil
}
