package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logan676/bookpost-sub007/internal/domain"
)

func TestAccumulateDailyStat_UpsertByAdd(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	// First accumulation creates the row.
	err := store.AccumulateDailyStat(ctx, "user_1", "2026-03-10", domain.StatDelta{
		DurationSeconds: 600,
		PagesRead:       10,
		Category:        "fiction",
		ContentID:       "book_1",
	}, now)
	require.NoError(t, err)

	// Second accumulation adds, never overwrites.
	err = store.AccumulateDailyStat(ctx, "user_1", "2026-03-10", domain.StatDelta{
		DurationSeconds: 300,
		BooksFinished:   1,
		Category:        "fiction",
		ContentID:       "book_1",
	}, now)
	require.NoError(t, err)

	stat, err := store.GetDailyStat(ctx, "user_1", "2026-03-10")
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, int64(900), stat.TotalDurationSeconds)
	assert.Equal(t, 10, stat.PagesRead)
	assert.Equal(t, 1, stat.BooksFinished)
	assert.Equal(t, int64(900), stat.CategorySeconds["fiction"])
	assert.Equal(t, int64(900), stat.ContentSeconds["book_1"])
}

func TestGetDailyStat_AbsentIsNil(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	stat, err := store.GetDailyStat(context.Background(), "user_1", "2026-03-10")
	require.NoError(t, err)
	assert.Nil(t, stat, "no activity is a valid state, not an error")
}

func TestGetDailyStatsInRange(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	for _, date := range []string{"2026-03-08", "2026-03-10", "2026-03-12", "2026-04-01"} {
		err := store.AccumulateDailyStat(ctx, "user_1", date, domain.StatDelta{DurationSeconds: 60}, now)
		require.NoError(t, err)
	}
	// Another user's rows must not leak into the scan.
	err := store.AccumulateDailyStat(ctx, "user_2", "2026-03-10", domain.StatDelta{DurationSeconds: 999}, now)
	require.NoError(t, err)

	stats, err := store.GetDailyStatsInRange(ctx, "user_1", "2026-03-09", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "2026-03-10", stats[0].Date)
	assert.Equal(t, "2026-03-12", stats[1].Date)
}

func TestApplyAggregateSessionEnd_ReadsInsideTransaction(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	first, err := store.ApplyAggregateSessionEnd(ctx, "user_1", domain.AggregateDelta{DurationSeconds: 600}, "2026-03-09", now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CurrentStreakDays)

	second, err := store.ApplyAggregateSessionEnd(ctx, "user_1", domain.AggregateDelta{DurationSeconds: 600}, "2026-03-10", now)
	require.NoError(t, err)
	assert.Equal(t, 2, second.CurrentStreakDays, "consecutive day read from stored aggregate")
	assert.Equal(t, int64(1200), second.TotalReadingDuration)

	// Reading it back matches what the update returned.
	agg, err := store.GetUserAggregate(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, second.CurrentStreakDays, agg.CurrentStreakDays)
}

func TestGetUserAggregate_AbsentIsZeroValued(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	agg, err := store.GetUserAggregate(context.Background(), "user_never")
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, "user_never", agg.UserID)
	assert.Zero(t, agg.TotalReadingDuration)
}
