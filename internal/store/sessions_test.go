package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logan676/bookpost-sub007/internal/domain"
)

func TestCreateSession_ClaimsActiveSlot(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	session := domain.NewReadingSession("rs_1", "user_1", "book_1", domain.ContentTypeEbook, now)
	previous, err := store.CreateSession(ctx, session, now)
	require.NoError(t, err)
	assert.Nil(t, previous, "no session to abandon on first start")

	active, err := store.GetActiveSession(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "rs_1", active.ID)
}

func TestCreateSession_FinalizesPreviousActive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	start := time.Now().Add(-30 * time.Minute)

	first := domain.NewReadingSession("rs_1", "user_1", "book_1", domain.ContentTypeEbook, start)
	_, err := store.CreateSession(ctx, first, start)
	require.NoError(t, err)

	now := time.Now()
	second := domain.NewReadingSession("rs_2", "user_1", "book_2", domain.ContentTypeEbook, now)
	previous, err := store.CreateSession(ctx, second, now)
	require.NoError(t, err)

	require.NotNil(t, previous, "abandoned session is finalized and returned")
	assert.Equal(t, "rs_1", previous.ID)
	assert.False(t, previous.IsActive)
	require.NotNil(t, previous.EndTime)

	// The stored copy is finalized too.
	stored, err := store.GetSession(ctx, "rs_1")
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	active, err := store.GetActiveSession(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "rs_2", active.ID)
}

func TestFinalizeSession_ReleasesActiveSlot(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	session := domain.NewReadingSession("rs_1", "user_1", "book_1", domain.ContentTypeEbook, now.Add(-10*time.Minute))
	_, err := store.CreateSession(ctx, session, now)
	require.NoError(t, err)

	session.Finalize(now)
	require.NoError(t, store.FinalizeSession(ctx, session))

	active, err := store.GetActiveSession(ctx, "user_1")
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestGetSession_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetSession(context.Background(), "rs_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetSessionsForUser_SortedAndLimited(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now().Add(-3 * time.Hour)

	for i, id := range []string{"rs_1", "rs_2", "rs_3"} {
		s := domain.NewReadingSession(id, "user_1", "book_1", domain.ContentTypeEbook, base.Add(time.Duration(i)*time.Hour))
		s.Finalize(s.StartTime.Add(20 * time.Minute))
		require.NoError(t, store.FinalizeSession(ctx, s))
	}

	sessions, err := store.GetSessionsForUser(ctx, "user_1", 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "rs_3", sessions[0].ID, "most recent first")
	assert.Equal(t, "rs_2", sessions[1].ID)
}

func TestGetSessionsEndedInRange(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	inWindow := domain.NewReadingSession("rs_in", "user_1", "book_1", domain.ContentTypeEbook, now.Add(-3*24*time.Hour))
	inWindow.Finalize(now.Add(-3 * 24 * time.Hour).Add(30 * time.Minute))
	require.NoError(t, store.FinalizeSession(ctx, inWindow))

	// Ended earlier today: the window's final calendar day must be scanned.
	today := domain.NewReadingSession("rs_today", "user_1", "book_1", domain.ContentTypeEbook, now.Add(-90*time.Minute))
	today.Finalize(now.Add(-time.Hour))
	require.NoError(t, store.FinalizeSession(ctx, today))

	outOfWindow := domain.NewReadingSession("rs_out", "user_2", "book_1", domain.ContentTypeEbook, now.Add(-20*24*time.Hour))
	outOfWindow.Finalize(now.Add(-20 * 24 * time.Hour).Add(30 * time.Minute))
	require.NoError(t, store.FinalizeSession(ctx, outOfWindow))

	sessions, err := store.GetSessionsEndedInRange(ctx, now.Add(-7*24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	ids := []string{sessions[0].ID, sessions[1].ID}
	assert.Contains(t, ids, "rs_in")
	assert.Contains(t, ids, "rs_today")
}
