package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplySessionEnd_FirstEver(t *testing.T) {
	agg := &UserAggregate{UserID: "user_1"}
	now := time.Date(2026, 3, 10, 21, 0, 0, 0, time.Local)

	agg.ApplySessionEnd(AggregateDelta{DurationSeconds: 1800}, "2026-03-10", now)

	assert.Equal(t, 1, agg.CurrentStreakDays)
	assert.Equal(t, 1, agg.MaxStreakDays)
	assert.Equal(t, 1, agg.TotalReadingDays)
	assert.Equal(t, "2026-03-10", agg.LastReadingDate)
	assert.Equal(t, int64(1800), agg.TotalReadingDuration)
}

func TestApplySessionEnd_ConsecutiveDayExtendsStreak(t *testing.T) {
	agg := &UserAggregate{
		UserID:            "user_1",
		CurrentStreakDays: 3,
		MaxStreakDays:     5,
		TotalReadingDays:  10,
		LastReadingDate:   "2026-03-09",
	}
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)

	agg.ApplySessionEnd(AggregateDelta{DurationSeconds: 600}, "2026-03-10", now)

	assert.Equal(t, 4, agg.CurrentStreakDays)
	assert.Equal(t, 5, agg.MaxStreakDays)
	assert.Equal(t, 11, agg.TotalReadingDays)
}

func TestApplySessionEnd_GapResetsStreakToOne(t *testing.T) {
	agg := &UserAggregate{
		UserID:            "user_1",
		CurrentStreakDays: 7,
		MaxStreakDays:     7,
		TotalReadingDays:  20,
		LastReadingDate:   "2026-03-01",
	}
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)

	agg.ApplySessionEnd(AggregateDelta{DurationSeconds: 600}, "2026-03-10", now)

	assert.Equal(t, 1, agg.CurrentStreakDays)
	assert.Equal(t, 7, agg.MaxStreakDays, "max streak is monotone")
	assert.Equal(t, 21, agg.TotalReadingDays)
}

func TestApplySessionEnd_SameDayLeavesStreakUnchanged(t *testing.T) {
	agg := &UserAggregate{
		UserID:            "user_1",
		CurrentStreakDays: 4,
		MaxStreakDays:     4,
		TotalReadingDays:  4,
		LastReadingDate:   "2026-03-10",
	}
	now := time.Date(2026, 3, 10, 22, 0, 0, 0, time.Local)

	agg.ApplySessionEnd(AggregateDelta{DurationSeconds: 900, BooksFinished: 1}, "2026-03-10", now)

	assert.Equal(t, 4, agg.CurrentStreakDays)
	assert.Equal(t, 4, agg.TotalReadingDays, "no new day counted")
	assert.Equal(t, int64(900), agg.TotalReadingDuration)
	assert.Equal(t, 1, agg.BooksFinishedCount)
}

func TestApplySessionEnd_NewStreakCanSetMax(t *testing.T) {
	agg := &UserAggregate{
		UserID:            "user_1",
		CurrentStreakDays: 5,
		MaxStreakDays:     5,
		LastReadingDate:   "2026-03-09",
	}
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)

	agg.ApplySessionEnd(AggregateDelta{}, "2026-03-10", now)

	assert.Equal(t, 6, agg.CurrentStreakDays)
	assert.Equal(t, 6, agg.MaxStreakDays)
}

func TestTotalHours(t *testing.T) {
	agg := &UserAggregate{TotalReadingDuration: 7199}
	assert.Equal(t, 1, agg.TotalHours())

	agg.TotalReadingDuration = 7200
	assert.Equal(t, 2, agg.TotalHours())
}

func TestWeekStart(t *testing.T) {
	// Tuesday 2026-03-10 belongs to the week starting Monday 2026-03-09.
	tuesday := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	assert.Equal(t, "2026-03-09", WeekStart(tuesday))

	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2026, 3, 15, 15, 0, 0, 0, time.Local)
	assert.Equal(t, "2026-03-09", WeekStart(sunday))

	// Monday is its own week start.
	monday := time.Date(2026, 3, 9, 0, 30, 0, 0, time.Local)
	assert.Equal(t, "2026-03-09", WeekStart(monday))
}
