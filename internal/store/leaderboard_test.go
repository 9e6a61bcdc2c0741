package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBumpLeaderboardEntry_Additive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.BumpLeaderboardEntry(ctx, "2026-03-09", "user_1", 600, now))
	require.NoError(t, store.BumpLeaderboardEntry(ctx, "2026-03-09", "user_1", 300, now))
	require.NoError(t, store.BumpLeaderboardEntry(ctx, "2026-03-09", "user_2", 100, now))

	entries, err := store.GetLeaderboardEntries(ctx, "2026-03-09")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byUser := make(map[string]int64)
	for _, e := range entries {
		byUser[e.UserID] = e.DurationSeconds
	}
	assert.Equal(t, int64(900), byUser["user_1"])
	assert.Equal(t, int64(100), byUser["user_2"])
}

func TestLikeLeaderboardUser_OncePerWeek(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.BumpLeaderboardEntry(ctx, "2026-03-09", "user_2", 600, now))

	require.NoError(t, store.LikeLeaderboardUser(ctx, "2026-03-09", "user_2", "user_1", now))

	err := store.LikeLeaderboardUser(ctx, "2026-03-09", "user_2", "user_1", now)
	assert.ErrorIs(t, err, ErrAlreadyLiked)

	entries, err := store.GetLeaderboardEntries(ctx, "2026-03-09")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].LikeCount, "like counter incremented exactly once")

	// A new week is a fresh like budget.
	require.NoError(t, store.BumpLeaderboardEntry(ctx, "2026-03-16", "user_2", 600, now))
	require.NoError(t, store.LikeLeaderboardUser(ctx, "2026-03-16", "user_2", "user_1", now))
}

func TestLikeLeaderboardUser_NoEntry(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.LikeLeaderboardUser(context.Background(), "2026-03-09", "user_ghost", "user_1", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLikesByUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	for _, target := range []string{"user_2", "user_3"} {
		require.NoError(t, store.BumpLeaderboardEntry(ctx, "2026-03-09", target, 600, now))
		require.NoError(t, store.LikeLeaderboardUser(ctx, "2026-03-09", target, "user_1", now))
	}

	liked, err := store.GetLikesByUser(ctx, "2026-03-09", "user_1")
	require.NoError(t, err)
	assert.True(t, liked["user_2"])
	assert.True(t, liked["user_3"])
	assert.False(t, liked["user_4"])
}
