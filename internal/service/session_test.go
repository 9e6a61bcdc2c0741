package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logan676/bookpost-sub007/internal/domain"
	domainerrors "github.com/logan676/bookpost-sub007/internal/errors"
	"github.com/logan676/bookpost-sub007/internal/store"
)

// testClock is a controllable time source shared by all services in a fixture.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	store      *store.Store
	sessions   *SessionService
	aggregator *AggregatorService
	milestones *MilestoneService
	badges     *BadgeService
	stats      *StatsService
	clock      *testClock
}

func setupFixture(t *testing.T) (*fixture, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "bookpost-svc-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	clock := &testClock{now: time.Date(2026, 3, 10, 20, 0, 0, 0, time.Local)}

	aggregator := NewAggregatorService(s, logger)
	aggregator.now = clock.Now
	milestones := NewMilestoneService(s, logger)
	milestones.now = clock.Now
	badges := NewBadgeService(s, logger)
	badges.now = clock.Now
	sessions := NewSessionService(s, aggregator, milestones, badges, logger)
	sessions.now = clock.Now
	stats := NewStatsService(s, logger)
	stats.now = clock.Now

	require.NoError(t, badges.InitializeDefaultBadges(context.Background()))

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return &fixture{
		store:      s,
		sessions:   sessions,
		aggregator: aggregator,
		milestones: milestones,
		badges:     badges,
		stats:      stats,
		clock:      clock,
	}, cleanup
}

func (f *fixture) seedContent(t *testing.T, id string, pageCount int) {
	t.Helper()
	err := f.store.UpsertContent(context.Background(), &domain.Content{
		ID:          id,
		ContentType: domain.ContentTypeEbook,
		Title:       "Test Book",
		Author:      "Test Author",
		Category:    "fiction",
		PageCount:   pageCount,
	})
	require.NoError(t, err)
}

func TestStartSession_ClosesPreviousActive(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()
	f.seedContent(t, "book_1", 300)
	f.seedContent(t, "book_2", 300)

	first, err := f.sessions.StartSession(ctx, "user_1", StartSessionRequest{
		ContentID:   "book_1",
		ContentType: "ebook",
	})
	require.NoError(t, err)

	f.clock.Advance(15 * time.Minute)

	second, err := f.sessions.StartSession(ctx, "user_1", StartSessionRequest{
		ContentID:   "book_2",
		ContentType: "ebook",
	})
	require.NoError(t, err)

	// The first session was silently finalized.
	stored, err := f.store.GetSession(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.EndTime)

	active, err := f.sessions.GetActiveSession(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)
}

func TestStartSession_RejectsUnknownContentType(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	_, err := f.sessions.StartSession(context.Background(), "user_1", StartSessionRequest{
		ContentID:   "book_1",
		ContentType: "scroll",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestHeartbeat_UpdatesActiveSession(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()
	f.seedContent(t, "book_1", 300)

	session, err := f.sessions.StartSession(ctx, "user_1", StartSessionRequest{
		ContentID:   "book_1",
		ContentType: "ebook",
	})
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)

	resp, err := f.sessions.Heartbeat(ctx, session.ID, HeartbeatRequest{
		Position:       "page-12",
		PagesReadDelta: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(600), resp.DurationSeconds)
	assert.Equal(t, int64(600), resp.TodayDuration)
	assert.False(t, resp.IsPaused)

	stored, err := f.store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "page-12", stored.EndPosition)
	assert.Equal(t, 12, stored.PagesRead)
	assert.Equal(t, int64(600), stored.DurationSeconds)
}

func TestHeartbeat_PausedSessionIsReadOnly(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()
	f.seedContent(t, "book_1", 300)

	session, err := f.sessions.StartSession(ctx, "user_1", StartSessionRequest{
		ContentID:   "book_1",
		ContentType: "ebook",
	})
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	_, err = f.sessions.PauseSession(ctx, session.ID)
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	resp, err := f.sessions.Heartbeat(ctx, session.ID, HeartbeatRequest{
		Position:       "page-99",
		PagesReadDelta: 50,
	})
	require.NoError(t, err)

	// Duration is the live computation: frozen at the pause point.
	assert.Equal(t, int64(600), resp.DurationSeconds)
	assert.True(t, resp.IsPaused)

	// The position update was not persisted.
	stored, err := f.store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.EndPosition)
	assert.Zero(t, stored.PagesRead)
}

func TestHeartbeat_UnknownSession(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	_, err := f.sessions.Heartbeat(context.Background(), "rs_missing", HeartbeatRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestPauseResume_StateTransitions(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()
	f.seedContent(t, "book_1", 300)

	session, err := f.sessions.StartSession(ctx, "user_1", StartSessionRequest{
		ContentID:   "book_1",
		ContentType: "ebook",
	})
	require.NoError(t, err)

	// Resume before pause is an invalid transition.
	_, err = f.sessions.ResumeSession(ctx, session.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)

	_, err = f.sessions.PauseSession(ctx, session.ID)
	require.NoError(t, err)

	// Double pause is rejected.
	_, err = f.sessions.PauseSession(ctx, session.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)

	f.clock.Advance(5 * time.Minute)
	resumed, err := f.sessions.ResumeSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), resumed.TotalPausedSeconds)
	assert.False(t, resumed.IsPaused)
}

func TestEndSession_FansOutToAggregates(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()
	f.seedContent(t, "book_1", 300)

	session, err := f.sessions.StartSession(ctx, "user_1", StartSessionRequest{
		ContentID:   "book_1",
		ContentType: "ebook",
	})
	require.NoError(t, err)

	f.clock.Advance(30 * time.Minute)
	resp, err := f.sessions.EndSession(ctx, session.ID, EndSessionRequest{
		Position:       "page-40",
		PagesReadDelta: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1800), resp.DurationSeconds)
	assert.Equal(t, int64(1800), resp.TodayDuration)
	assert.Equal(t, int64(1800), resp.TotalContentDuration)

	// Daily stat row accumulated with breakdowns.
	stat, err := f.store.GetDailyStat(ctx, "user_1", "2026-03-10")
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, int64(1800), stat.TotalDurationSeconds)
	assert.Equal(t, 40, stat.PagesRead)
	assert.Equal(t, 1, stat.BooksRead, "first session on this content")
	assert.Equal(t, int64(1800), stat.CategorySeconds["fiction"])

	// User aggregate updated.
	agg, err := f.store.GetUserAggregate(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1800), agg.TotalReadingDuration)
	assert.Equal(t, 1, agg.CurrentStreakDays)
	assert.Equal(t, 1, agg.BooksReadCount)

	// Content gained a reader.
	content, err := f.store.GetContent(ctx, "book_1")
	require.NoError(t, err)
	assert.Equal(t, 1, content.TotalReaders)

	// Ending twice is rejected.
	_, err = f.sessions.EndSession(ctx, session.ID, EndSessionRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)
}

func TestEndSession_ReportsNewMilestones(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()
	f.seedContent(t, "book_1", 0)

	// Lift the aggregate to just under the 10-hour rung.
	_, err := f.milestones.UpdateUserAggregate(ctx, "user_1", domain.AggregateDelta{
		DurationSeconds: 10*3600 - 60,
	})
	require.NoError(t, err)

	session, err := f.sessions.StartSession(ctx, "user_1", StartSessionRequest{
		ContentID:   "book_1",
		ContentType: "ebook",
	})
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	resp, err := f.sessions.EndSession(ctx, session.ID, EndSessionRequest{})
	require.NoError(t, err)

	require.Len(t, resp.MilestonesAchieved, 1)
	assert.Equal(t, domain.MilestoneTotalHours, resp.MilestonesAchieved[0].MilestoneType)
	assert.Equal(t, 10, resp.MilestonesAchieved[0].MilestoneValue)

	// A later session does not re-report the same rung.
	session2, err := f.sessions.StartSession(ctx, "user_1", StartSessionRequest{
		ContentID:   "book_1",
		ContentType: "ebook",
	})
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)
	resp2, err := f.sessions.EndSession(ctx, session2.ID, EndSessionRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp2.MilestonesAchieved)
}

func TestEndSession_CompletionAwardsFinisherBadge(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	ctx := context.Background()
	f.seedContent(t, "book_1", 100)

	session, err := f.sessions.StartSession(ctx, "user_1", StartSessionRequest{
		ContentID:   "book_1",
		ContentType: "ebook",
	})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	resp, err := f.sessions.EndSession(ctx, session.ID, EndSessionRequest{
		PagesReadDelta: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7200), resp.DurationSeconds)

	// Reading all pages finished the book.
	progress, err := f.store.GetProgress(ctx, "user_1", "book_1")
	require.NoError(t, err)
	assert.True(t, progress.IsFinished)

	stat, err := f.store.GetDailyStat(ctx, "user_1", "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, 1, stat.BooksFinished)

	// The bronze finisher badge (1 book) was awarded opportunistically.
	badges, err := f.badges.GetUserBadges(ctx, "user_1")
	require.NoError(t, err)
	earned := make(map[string]bool)
	for _, b := range badges.Earned {
		earned[b.ID] = true
	}
	assert.True(t, earned["badge-books_finished-bronze"])
}
