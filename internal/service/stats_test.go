package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logan676/bookpost-sub007/internal/domain"
	domainerrors "github.com/logan676/bookpost-sub007/internal/errors"
)

func (f *fixture) seedUser(t *testing.T, id, name string) {
	t.Helper()
	err := f.store.CreateUser(context.Background(), &domain.User{
		ID:          id,
		DisplayName: name,
		CreatedAt:   f.clock.Now(),
	})
	require.NoError(t, err)
}

func (f *fixture) seedDaily(t *testing.T, userID, date string, seconds int64) {
	t.Helper()
	err := f.aggregator.Accumulate(context.Background(), userID, date, domain.StatDelta{
		DurationSeconds: seconds,
	})
	require.NoError(t, err)
}

func TestGetWeekStats_DenseDaysAndComparison(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()
	f.seedUser(t, "user_1", "Ada")

	// Current week (Monday 2026-03-09): activity on two days.
	f.seedDaily(t, "user_1", "2026-03-09", 1200)
	f.seedDaily(t, "user_1", "2026-03-11", 600)
	// Previous week: half the total.
	f.seedDaily(t, "user_1", "2026-03-04", 900)

	stats, err := f.stats.GetWeekStats(ctx, "user_1", "2026-03-09")
	require.NoError(t, err)

	require.Len(t, stats.Days, 7, "every day of the week is present")
	assert.Equal(t, "2026-03-09", stats.Days[0].Date)
	assert.Equal(t, "2026-03-15", stats.Days[6].Date)
	assert.Equal(t, int64(1200), stats.Days[0].TotalDurationSeconds)
	assert.Equal(t, int64(0), stats.Days[1].TotalDurationSeconds, "gap day is zero-filled")
	assert.Equal(t, int64(1800), stats.TotalDurationSeconds)

	// (1800 - 900) / 900 * 100
	assert.InDelta(t, 100.0, stats.ComparisonChange, 0.001)
}

func TestGetWeekStats_ZeroPreviousMeansZeroChange(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	f.seedUser(t, "user_1", "Ada")
	f.seedDaily(t, "user_1", "2026-03-09", 1200)

	stats, err := f.stats.GetWeekStats(context.Background(), "user_1", "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.ComparisonChange)
}

func TestStatsQueries_UnknownUser(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()

	// No account: NotFound, never zeroed data.
	_, err := f.stats.GetTotalStats(ctx, "user_ghost")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = f.stats.GetWeekStats(ctx, "user_ghost", "2026-03-09")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = f.stats.GetMonthStats(ctx, "user_ghost", 2026, time.March)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = f.stats.GetYearStats(ctx, "user_ghost", 2026)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = f.stats.GetCalendarStats(ctx, "user_ghost", 2026, time.March)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestGetMonthStats_DenseMonth(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	f.seedUser(t, "user_1", "Ada")
	f.seedDaily(t, "user_1", "2026-02-01", 300)
	f.seedDaily(t, "user_1", "2026-02-28", 700)

	stats, err := f.stats.GetMonthStats(context.Background(), "user_1", 2026, time.February)
	require.NoError(t, err)

	assert.Len(t, stats.Days, 28)
	assert.Equal(t, int64(1000), stats.TotalDurationSeconds)
}

func TestGetYearStats_TwelveMonthBuckets(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	f.seedUser(t, "user_1", "Ada")
	f.seedDaily(t, "user_1", "2026-01-15", 600)
	f.seedDaily(t, "user_1", "2026-01-20", 400)
	f.seedDaily(t, "user_1", "2026-07-04", 500)

	stats, err := f.stats.GetYearStats(context.Background(), "user_1", 2026)
	require.NoError(t, err)

	require.Len(t, stats.Months, 12)
	assert.Equal(t, 1, stats.Months[0].Month)
	assert.Equal(t, int64(1000), stats.Months[0].TotalDurationSeconds)
	assert.Equal(t, int64(0), stats.Months[3].TotalDurationSeconds)
	assert.Equal(t, int64(500), stats.Months[6].TotalDurationSeconds)
	assert.Equal(t, int64(1500), stats.TotalDurationSeconds)
}

func TestGetTotalStats(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()
	f.seedUser(t, "user_1", "Ada")

	_, err := f.milestones.UpdateUserAggregate(ctx, "user_1", domain.AggregateDelta{
		DurationSeconds: 7200,
		BooksRead:       2,
		BooksFinished:   1,
	})
	require.NoError(t, err)

	err = f.aggregator.Accumulate(ctx, "user_1", "2026-03-10", domain.StatDelta{
		DurationSeconds: 7200,
		Category:        "fiction",
	})
	require.NoError(t, err)

	total, err := f.stats.GetTotalStats(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(7200), total.TotalDurationSeconds)
	assert.Equal(t, 1, total.TotalReadingDays)
	assert.Equal(t, 1, total.CurrentStreakDays)
	assert.Equal(t, 2, total.BooksRead)
	assert.Equal(t, 1, total.BooksFinished)
	assert.Equal(t, int64(7200), total.CategorySeconds["fiction"])
}

func TestGetLeaderboard_RanksAndJoins(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()

	for _, u := range []struct {
		id   string
		name string
	}{{"user_1", "Ada"}, {"user_2", "Grace"}, {"user_3", "Edsger"}} {
		require.NoError(t, f.store.CreateUser(ctx, &domain.User{ID: u.id, DisplayName: u.name, CreatedAt: f.clock.Now()}))
	}

	// Week of Monday 2026-03-09.
	f.seedDaily(t, "user_1", "2026-03-10", 600)
	f.seedDaily(t, "user_2", "2026-03-10", 1800)
	f.seedDaily(t, "user_3", "2026-03-11", 1200)

	require.NoError(t, f.stats.LikeLeaderboardUser(ctx, "user_1", "user_2", "2026-03-09"))

	board, err := f.stats.GetLeaderboard(ctx, "user_1", "2026-03-09")
	require.NoError(t, err)

	require.Len(t, board.Entries, 3)
	assert.Equal(t, "user_2", board.Entries[0].UserID)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, "Grace", board.Entries[0].DisplayName)
	assert.True(t, board.Entries[0].LikedByCaller)
	assert.Equal(t, 1, board.Entries[0].LikeCount)

	assert.Equal(t, "user_3", board.Entries[1].UserID)
	assert.Equal(t, "user_1", board.Entries[2].UserID)
	assert.True(t, board.Entries[2].IsCaller)

	require.NotNil(t, board.Caller)
	assert.Equal(t, 3, board.Caller.Rank)
}

func TestLikeLeaderboardUser_Rejections(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()
	f.seedDaily(t, "user_2", "2026-03-10", 600)

	// Liking yourself is a validation error.
	err := f.stats.LikeLeaderboardUser(ctx, "user_1", "user_1", "2026-03-09")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	require.NoError(t, f.stats.LikeLeaderboardUser(ctx, "user_1", "user_2", "2026-03-09"))

	// Second like in the same week is rejected.
	err = f.stats.LikeLeaderboardUser(ctx, "user_1", "user_2", "2026-03-09")
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	// No entry for the target that week.
	err = f.stats.LikeLeaderboardUser(ctx, "user_1", "user_ghost", "2026-03-09")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestGetCalendarStats(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	f.seedUser(t, "user_1", "Ada")
	f.seedDaily(t, "user_1", "2026-03-05", 600)

	days, err := f.stats.GetCalendarStats(context.Background(), "user_1", 2026, time.March)
	require.NoError(t, err)

	require.Len(t, days, 31)
	assert.Equal(t, int64(600), days[4].TotalDurationSeconds)
	assert.Equal(t, int64(0), days[5].TotalDurationSeconds)
}
