package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/logan676/bookpost-sub007/internal/domain"
	domainerrors "github.com/logan676/bookpost-sub007/internal/errors"
	"github.com/logan676/bookpost-sub007/internal/store"
)

// leaderboardSize caps the entries returned per week.
const leaderboardSize = 100

// StatsService is the read side: period stats with dense calendar fill and
// prior-period comparison, lifetime totals, and the weekly leaderboard.
// It never mutates stat rows; the only write it owns is the like counter.
type StatsService struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewStatsService creates a new stats service.
func NewStatsService(store *store.Store, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// GetWeekStats returns dense per-day stats for the 7 days starting at
// weekStart (a Monday date key), compared against the prior 7 days.
func (s *StatsService) GetWeekStats(ctx context.Context, userID, weekStart string) (*domain.PeriodStats, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	start, err := domain.ParseDateKey(weekStart)
	if err != nil {
		return nil, domainerrors.Validationf("invalid week start %q", weekStart)
	}

	end := start.AddDate(0, 0, 6)
	stats, err := s.buildPeriodStats(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	prevTotal, err := s.periodDuration(ctx, userID, start.AddDate(0, 0, -7), start.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	stats.ComparisonChange = domain.ComparisonChange(stats.TotalDurationSeconds, prevTotal)
	return stats, nil
}

// GetMonthStats returns dense per-day stats for a calendar month, compared
// against the previous calendar month.
func (s *StatsService) GetMonthStats(ctx context.Context, userID string, year int, month time.Month) (*domain.PeriodStats, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, -1)

	stats, err := s.buildPeriodStats(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	prevStart := start.AddDate(0, -1, 0)
	prevTotal, err := s.periodDuration(ctx, userID, prevStart, start.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	stats.ComparisonChange = domain.ComparisonChange(stats.TotalDurationSeconds, prevTotal)
	return stats, nil
}

// GetYearStats returns dense per-month buckets for a calendar year, compared
// against the previous year.
func (s *StatsService) GetYearStats(ctx context.Context, userID string, year int) (*domain.PeriodStats, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.Local)

	rows, err := s.store.GetDailyStatsInRange(ctx, userID, domain.DateKey(start), domain.DateKey(end))
	if err != nil {
		return nil, fmt.Errorf("get daily stats: %w", err)
	}

	stats := &domain.PeriodStats{
		UserID:    userID,
		StartDate: domain.DateKey(start),
		EndDate:   domain.DateKey(end),
		Months:    make([]domain.MonthStat, 12),
	}
	for i := range stats.Months {
		stats.Months[i].Month = i + 1
	}

	for _, row := range rows {
		day, err := domain.ParseDateKey(row.Date)
		if err != nil {
			continue
		}
		m := &stats.Months[int(day.Month())-1]
		m.TotalDurationSeconds += row.TotalDurationSeconds
		m.BooksFinished += row.BooksFinished

		stats.TotalDurationSeconds += row.TotalDurationSeconds
		stats.BooksRead += row.BooksRead
		stats.BooksFinished += row.BooksFinished
		stats.PagesRead += row.PagesRead
	}

	prevTotal, err := s.periodDuration(ctx, userID,
		start.AddDate(-1, 0, 0), end.AddDate(-1, 0, 0))
	if err != nil {
		return nil, err
	}
	stats.ComparisonChange = domain.ComparisonChange(stats.TotalDurationSeconds, prevTotal)
	return stats, nil
}

// GetCalendarStats returns one dense entry per day of the month, zero-filled
// for days without activity. Calendar heatmaps must never see sparse arrays.
func (s *StatsService) GetCalendarStats(ctx context.Context, userID string, year int, month time.Month) ([]domain.DayStat, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, -1)

	stats, err := s.buildPeriodStats(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return stats.Days, nil
}

// GetTotalStats returns the lifetime view: aggregate counters plus the
// per-category duration breakdown summed over the user's daily rows.
func (s *StatsService) GetTotalStats(ctx context.Context, userID string) (*domain.TotalStats, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	agg, err := s.store.GetUserAggregate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user aggregate: %w", err)
	}

	rows, err := s.store.GetDailyStatsInRange(ctx, userID, "0001-01-01", "9999-12-31")
	if err != nil {
		return nil, fmt.Errorf("get daily stats: %w", err)
	}

	var categories map[string]int64
	for _, row := range rows {
		for category, seconds := range row.CategorySeconds {
			if categories == nil {
				categories = make(map[string]int64)
			}
			categories[category] += seconds
		}
	}

	return &domain.TotalStats{
		UserID:               userID,
		TotalDurationSeconds: agg.TotalReadingDuration,
		TotalReadingDays:     agg.TotalReadingDays,
		CurrentStreakDays:    agg.CurrentStreakDays,
		MaxStreakDays:        agg.MaxStreakDays,
		BooksRead:            agg.BooksReadCount,
		BooksFinished:        agg.BooksFinishedCount,
		CategorySeconds:      categories,
	}, nil
}

// GetLeaderboard returns the week's top entries ranked by duration, with
// display names and the caller's liked state joined in. The caller's own row
// is returned separately even when it falls outside the top list.
func (s *StatsService) GetLeaderboard(ctx context.Context, userID, weekStart string) (*domain.Leaderboard, error) {
	if _, err := domain.ParseDateKey(weekStart); err != nil {
		return nil, domainerrors.Validationf("invalid week start %q", weekStart)
	}

	entries, err := s.store.GetLeaderboardEntries(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard entries: %w", err)
	}

	slices.SortFunc(entries, func(a, b *domain.LeaderboardEntry) int {
		if a.DurationSeconds != b.DurationSeconds {
			if a.DurationSeconds > b.DurationSeconds {
				return -1
			}
			return 1
		}
		// Stable order for equal durations.
		if a.UserID < b.UserID {
			return -1
		}
		return 1
	})

	liked, err := s.store.GetLikesByUser(ctx, weekStart, userID)
	if err != nil {
		return nil, fmt.Errorf("get likes: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.UserID)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	board := &domain.Leaderboard{WeekStart: weekStart}
	for i, entry := range entries {
		ranked := domain.RankedLeaderboardEntry{
			Rank:            i + 1,
			UserID:          entry.UserID,
			DurationSeconds: entry.DurationSeconds,
			LikeCount:       entry.LikeCount,
			LikedByCaller:   liked[entry.UserID],
			IsCaller:        entry.UserID == userID,
		}
		if user, ok := users[entry.UserID]; ok {
			ranked.DisplayName = user.DisplayName
		}

		if ranked.IsCaller {
			caller := ranked
			board.Caller = &caller
		}
		if i < leaderboardSize {
			board.Entries = append(board.Entries, ranked)
		}
	}
	return board, nil
}

// LikeLeaderboardUser records one like from userID to targetUserID for the
// week. At most one like per (liker, target, week); liking yourself is
// rejected outright.
func (s *StatsService) LikeLeaderboardUser(ctx context.Context, userID, targetUserID, weekStart string) error {
	if userID == targetUserID {
		return domainerrors.Validation("cannot like yourself on the leaderboard")
	}
	if _, err := domain.ParseDateKey(weekStart); err != nil {
		return domainerrors.Validationf("invalid week start %q", weekStart)
	}

	err := s.store.LikeLeaderboardUser(ctx, weekStart, targetUserID, userID, s.now())
	if errors.Is(err, store.ErrAlreadyLiked) {
		return domainerrors.AlreadyExists("already liked this user this week")
	}
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("no leaderboard entry for user %s this week", targetUserID)
	}
	if err != nil {
		return fmt.Errorf("like leaderboard user: %w", err)
	}
	return nil
}

// requireUser resolves the user row so queries for a nonexistent account
// surface NotFound instead of zeroed stats.
func (s *StatsService) requireUser(ctx context.Context, userID string) error {
	_, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return domainerrors.NotFoundf("user %s not found", userID)
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	return nil
}

// buildPeriodStats fetches the user's rows for [start, end] and produces a
// dense day array: every calendar day appears, zero-filled when absent.
func (s *StatsService) buildPeriodStats(ctx context.Context, userID string, start, end time.Time) (*domain.PeriodStats, error) {
	rows, err := s.store.GetDailyStatsInRange(ctx, userID, domain.DateKey(start), domain.DateKey(end))
	if err != nil {
		return nil, fmt.Errorf("get daily stats: %w", err)
	}

	byDate := make(map[string]*domain.DailyReadingStat, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row
	}

	stats := &domain.PeriodStats{
		UserID:    userID,
		StartDate: domain.DateKey(start),
		EndDate:   domain.DateKey(end),
	}

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := domain.DateKey(day)
		entry := domain.DayStat{Date: date}

		if row, ok := byDate[date]; ok {
			entry.TotalDurationSeconds = row.TotalDurationSeconds
			entry.BooksRead = row.BooksRead
			entry.BooksFinished = row.BooksFinished
			entry.PagesRead = row.PagesRead
			entry.NotesCreated = row.NotesCreated
			entry.HighlightsCreated = row.HighlightsCreated

			stats.TotalDurationSeconds += row.TotalDurationSeconds
			stats.BooksRead += row.BooksRead
			stats.BooksFinished += row.BooksFinished
			stats.PagesRead += row.PagesRead
		}
		stats.Days = append(stats.Days, entry)
	}
	return stats, nil
}

// periodDuration sums total duration over [start, end] for comparison.
func (s *StatsService) periodDuration(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	rows, err := s.store.GetDailyStatsInRange(ctx, userID, domain.DateKey(start), domain.DateKey(end))
	if err != nil {
		return 0, fmt.Errorf("get daily stats: %w", err)
	}

	var total int64
	for _, row := range rows {
		total += row.TotalDurationSeconds
	}
	return total, nil
}
