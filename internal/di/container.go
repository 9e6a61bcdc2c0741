// Package di provides dependency injection configuration for the BookPost
// analytics engine.
package di

import (
	"github.com/samber/do/v2"

	"github.com/logan676/bookpost-sub007/internal/config"
	"github.com/logan676/bookpost-sub007/internal/di/providers"
	"github.com/logan676/bookpost-sub007/internal/logger"
	"github.com/logan676/bookpost-sub007/internal/ranking"
	"github.com/logan676/bookpost-sub007/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Business services
	do.Provide(injector, providers.ProvideAggregatorService)
	do.Provide(injector, providers.ProvideMilestoneService)
	do.Provide(injector, providers.ProvideBadgeService)
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideStatsService)

	// Rankings
	do.Provide(injector, providers.ProvideRankingCache)
	do.Provide(injector, providers.ProvideRankingEngine)
	do.Provide(injector, providers.ProvideRankingScheduler)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.AggregatorService](injector)
	_ = do.MustInvoke[*service.MilestoneService](injector)
	_ = do.MustInvoke[*service.BadgeService](injector)
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.StatsService](injector)

	// Rankings
	_ = do.MustInvoke[*ranking.Cache](injector)
	_ = do.MustInvoke[*ranking.Engine](injector)
	_ = do.MustInvoke[*providers.RankingSchedulerJob](injector)

	return nil
}
