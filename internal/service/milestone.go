package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/logan676/bookpost-sub007/internal/domain"
	"github.com/logan676/bookpost-sub007/internal/id"
	"github.com/logan676/bookpost-sub007/internal/store"
)

// MilestoneService maintains the lifetime user aggregate (streak law
// included) and evaluates the cumulative milestone ladders against it.
type MilestoneService struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewMilestoneService creates a new milestone service.
func NewMilestoneService(store *store.Store, logger *slog.Logger) *MilestoneService {
	return &MilestoneService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// UpdateUserAggregate folds one session end into the user's lifetime
// aggregate. The streak decision is made against the lastReadingDate read in
// the same store transaction.
func (s *MilestoneService) UpdateUserAggregate(ctx context.Context, userID string, delta domain.AggregateDelta) (*domain.UserAggregate, error) {
	now := s.now()
	today := domain.DateKey(now)

	agg, err := s.store.ApplyAggregateSessionEnd(ctx, userID, delta, today, now)
	if err != nil {
		return nil, fmt.Errorf("apply aggregate update: %w", err)
	}
	return agg, nil
}

// CheckMilestones rescans all three ladders against the user's current
// aggregate and returns only the milestones newly achieved by this call.
// The insert-if-absent keyed on (userID, type, value) makes concurrent
// evaluation safe: duplicates lose the insert and report nothing.
func (s *MilestoneService) CheckMilestones(ctx context.Context, userID string) ([]*domain.ReadingMilestone, error) {
	agg, err := s.store.GetUserAggregate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user aggregate: %w", err)
	}

	now := s.now()
	var achieved []*domain.ReadingMilestone

	for _, candidate := range domain.MilestoneCandidates(agg) {
		milestoneID, err := id.Generate("mls")
		if err != nil {
			return nil, fmt.Errorf("generate milestone ID: %w", err)
		}

		m := &domain.ReadingMilestone{
			ID:             milestoneID,
			UserID:         userID,
			MilestoneType:  candidate.Type,
			MilestoneValue: candidate.Value,
			Title:          domain.MilestoneTitle(candidate.Type, candidate.Value),
			AchievedAt:     now,
		}

		created, err := s.store.InsertMilestone(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("insert milestone: %w", err)
		}
		if created {
			achieved = append(achieved, m)
			s.logger.Info("milestone achieved",
				"user_id", userID,
				"type", candidate.Type,
				"value", candidate.Value,
			)
		}
	}

	return achieved, nil
}

// GetMilestones retrieves a user's milestone history, most recent first.
// year > 0 restricts to that calendar year; limit <= 0 means no limit.
func (s *MilestoneService) GetMilestones(ctx context.Context, userID string, limit, year int) ([]*domain.ReadingMilestone, error) {
	milestones, err := s.store.GetMilestones(ctx, userID, limit, year)
	if err != nil {
		return nil, fmt.Errorf("get milestones: %w", err)
	}
	return milestones, nil
}
