package ranking

import (
	"context"
	"log/slog"
	"time"

	"github.com/logan676/bookpost-sub007/internal/config"
	"github.com/logan676/bookpost-sub007/internal/domain"
)

// Scheduler drives the engine on its per-type cadence: trending hourly,
// popular-this-week every six hours, the rest daily (intervals from config).
// Cycles for different cadences overlap freely; within one tick the types
// run sequentially.
type Scheduler struct {
	engine *Engine
	cfg    config.RankingConfig
	logger *slog.Logger
}

// NewScheduler creates a scheduler for the engine.
func NewScheduler(engine *Engine, cfg config.RankingConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
}

// dailyTypes are the rankings on the slow cadence.
var dailyTypes = []domain.RankingType{
	domain.RankingTopRated,
	domain.RankingMostRead,
	domain.RankingNewReleases,
	domain.RankingHiddenGems,
}

// Run computes every ranking once, then ticks each cadence until the context
// is canceled. An interrupted cycle leaves the previous cache slots serving;
// nothing is partially updated.
func (s *Scheduler) Run(ctx context.Context) {
	// Initial computation on startup so the cache is warm.
	s.engine.ComputeBookRankings(ctx)

	trending := time.NewTicker(s.cfg.TrendingInterval)
	defer trending.Stop()
	popular := time.NewTicker(s.cfg.PopularInterval)
	defer popular.Stop()
	daily := time.NewTicker(s.cfg.DailyInterval)
	defer daily.Stop()

	for {
		select {
		case <-trending.C:
			s.compute(ctx, domain.RankingTrending)
		case <-popular.C:
			s.compute(ctx, domain.RankingPopularThisWeek)
		case <-daily.C:
			for _, rankingType := range dailyTypes {
				s.compute(ctx, rankingType)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) compute(ctx context.Context, rankingType domain.RankingType) {
	if err := s.engine.ComputeRanking(ctx, rankingType); err != nil {
		s.logger.Warn("scheduled ranking refresh failed",
			"type", rankingType,
			"error", err,
		)
	}
}
