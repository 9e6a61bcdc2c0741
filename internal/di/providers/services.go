package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/logan676/bookpost-sub007/internal/logger"
	"github.com/logan676/bookpost-sub007/internal/service"
)

// ProvideAggregatorService provides the daily aggregation service.
func ProvideAggregatorService(i do.Injector) (*service.AggregatorService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAggregatorService(storeHandle.Store, log.Logger), nil
}

// ProvideMilestoneService provides the streak and milestone evaluator.
func ProvideMilestoneService(i do.Injector) (*service.MilestoneService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMilestoneService(storeHandle.Store, log.Logger), nil
}

// ProvideBadgeService provides the badge evaluator and seeds the catalog.
func ProvideBadgeService(i do.Injector) (*service.BadgeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewBadgeService(storeHandle.Store, log.Logger)

	// Idempotent seed: no-op if the catalog already exists.
	if err := svc.InitializeDefaultBadges(context.Background()); err != nil {
		return nil, err
	}

	return svc, nil
}

// ProvideSessionService provides the reading session tracker.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	aggregator := do.MustInvoke[*service.AggregatorService](i)
	milestones := do.MustInvoke[*service.MilestoneService](i)
	badges := do.MustInvoke[*service.BadgeService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, aggregator, milestones, badges, log.Logger), nil
}

// ProvideStatsService provides the read-side stats query service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsService(storeHandle.Store, log.Logger), nil
}
