package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/logan676/bookpost-sub007/internal/domain"
	"github.com/logan676/bookpost-sub007/internal/store"
)

// BadgeService evaluates the declarative badge catalog against user
// aggregates. Awards are idempotent: the earned-check makes it safe to call
// CheckAndAwardBadges after every session end.
type BadgeService struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewBadgeService creates a new badge service.
func NewBadgeService(store *store.Store, logger *slog.Logger) *BadgeService {
	return &BadgeService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// InitializeDefaultBadges seeds the badge catalog. No-op if the catalog
// already holds any entry, so it is safe to call on every startup.
func (s *BadgeService) InitializeDefaultBadges(ctx context.Context) error {
	exists, err := s.store.HasBadges(ctx)
	if err != nil {
		return fmt.Errorf("check badge catalog: %w", err)
	}
	if exists {
		return nil
	}

	badges := domain.DefaultBadges(s.now())
	for _, badge := range badges {
		if err := s.store.UpsertBadge(ctx, badge); err != nil {
			return fmt.Errorf("seed badge %s: %w", badge.ID, err)
		}
	}

	s.logger.Info("seeded badge catalog", "count", len(badges))
	return nil
}

// GetAllBadges retrieves the full badge catalog.
func (s *BadgeService) GetAllBadges(ctx context.Context) ([]*domain.Badge, error) {
	badges, err := s.store.GetAllBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("get badges: %w", err)
	}
	return badges, nil
}

// UserBadgesResponse partitions the catalog for one user.
type UserBadgesResponse struct {
	Earned     []*domain.Badge        `json:"earned"`
	InProgress []domain.BadgeProgress `json:"in_progress"`
}

// GetUserBadges partitions the active catalog into earned badges and
// in-progress badges with clamped progress toward each target.
func (s *BadgeService) GetUserBadges(ctx context.Context, userID string) (*UserBadgesResponse, error) {
	badges, err := s.store.GetAllBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("get badges: %w", err)
	}

	awards, err := s.store.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user badges: %w", err)
	}
	earned := make(map[string]bool, len(awards))
	for _, award := range awards {
		earned[award.BadgeID] = true
	}

	agg, err := s.store.GetUserAggregate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user aggregate: %w", err)
	}

	resp := &UserBadgesResponse{}
	for _, badge := range badges {
		if !badge.IsActive {
			continue
		}
		if earned[badge.ID] {
			resp.Earned = append(resp.Earned, badge)
			continue
		}
		resp.InProgress = append(resp.InProgress, domain.NewBadgeProgress(badge, agg))
	}
	return resp, nil
}

// CheckAndAwardBadges scans every active not-yet-earned badge and awards
// those whose condition metric on the current aggregate meets the target.
// Returns the newly awarded badges.
func (s *BadgeService) CheckAndAwardBadges(ctx context.Context, userID string) ([]*domain.Badge, error) {
	badges, err := s.store.GetAllBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("get badges: %w", err)
	}

	awards, err := s.store.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user badges: %w", err)
	}
	earned := make(map[string]bool, len(awards))
	for _, award := range awards {
		earned[award.BadgeID] = true
	}

	agg, err := s.store.GetUserAggregate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user aggregate: %w", err)
	}

	now := s.now()
	var newlyAwarded []*domain.Badge

	for _, badge := range badges {
		if !badge.IsActive || earned[badge.ID] {
			continue
		}
		if badge.ConditionType.Metric(agg) < badge.ConditionValue {
			continue
		}

		awarded, err := s.store.AwardBadge(ctx, userID, badge.ID, now)
		if err != nil {
			return nil, fmt.Errorf("award badge %s: %w", badge.ID, err)
		}
		if awarded {
			newlyAwarded = append(newlyAwarded, badge)
			s.logger.Info("badge awarded",
				"user_id", userID,
				"badge_id", badge.ID,
				"condition", badge.ConditionType,
				"value", badge.ConditionValue,
			)
		}
	}

	return newlyAwarded, nil
}
