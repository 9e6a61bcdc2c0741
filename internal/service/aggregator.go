package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/logan676/bookpost-sub007/internal/domain"
	domainerrors "github.com/logan676/bookpost-sub007/internal/errors"
	"github.com/logan676/bookpost-sub007/internal/store"
)

// AggregatorService folds engagement events into the per-day stat rows and
// the weekly leaderboard. Daily rows use upsert-by-add semantics, so calling
// it once per event is safe under concurrent session ends.
type AggregatorService struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregatorService creates a new aggregator service.
func NewAggregatorService(store *store.Store, logger *slog.Logger) *AggregatorService {
	return &AggregatorService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Accumulate adds one session end's contribution to the user's daily stat
// row for the given date and bumps the weekly leaderboard.
func (s *AggregatorService) Accumulate(ctx context.Context, userID, date string, delta domain.StatDelta) error {
	now := s.now()

	if err := s.store.AccumulateDailyStat(ctx, userID, date, delta, now); err != nil {
		return fmt.Errorf("accumulate daily stat: %w", err)
	}

	if delta.DurationSeconds > 0 {
		day, err := domain.ParseDateKey(date)
		if err != nil {
			return domainerrors.Validationf("invalid date %q", date)
		}
		weekStart := domain.WeekStart(day)
		if err := s.store.BumpLeaderboardEntry(ctx, weekStart, userID, delta.DurationSeconds, now); err != nil {
			return fmt.Errorf("bump leaderboard entry: %w", err)
		}
	}

	return nil
}

// RecordNote counts a note creation against today's stat row.
func (s *AggregatorService) RecordNote(ctx context.Context, userID string) error {
	date := domain.DateKey(s.now())
	if err := s.store.AccumulateDailyStat(ctx, userID, date, domain.StatDelta{NotesCreated: 1}, s.now()); err != nil {
		return fmt.Errorf("record note: %w", err)
	}
	return nil
}

// RecordHighlight counts a highlight creation against today's stat row.
func (s *AggregatorService) RecordHighlight(ctx context.Context, userID string) error {
	date := domain.DateKey(s.now())
	if err := s.store.AccumulateDailyStat(ctx, userID, date, domain.StatDelta{HighlightsCreated: 1}, s.now()); err != nil {
		return fmt.Errorf("record highlight: %w", err)
	}
	return nil
}

// RecordShelfAdd records a shelf-add engagement event. The ranking engine
// reads these back when scoring popular_this_week.
func (s *AggregatorService) RecordShelfAdd(ctx context.Context, userID, contentID string) error {
	if _, err := s.store.GetContent(ctx, contentID); err != nil {
		return fmt.Errorf("get content: %w", err)
	}
	if err := s.store.RecordShelfAdd(ctx, userID, contentID, s.now()); err != nil {
		return fmt.Errorf("record shelf add: %w", err)
	}
	return nil
}

// RecordRating folds an internal reader rating (1-5) into the content's
// engagement counters.
func (s *AggregatorService) RecordRating(ctx context.Context, userID, contentID string, rating float64) error {
	if rating < 1 || rating > 5 {
		return domainerrors.Validationf("rating must be between 1 and 5, got %.1f", rating)
	}

	if err := s.store.AddInternalRating(ctx, contentID, rating); err != nil {
		return fmt.Errorf("add rating: %w", err)
	}

	s.logger.Debug("recorded rating",
		"user_id", userID,
		"content_id", contentID,
		"rating", rating,
	)
	return nil
}
