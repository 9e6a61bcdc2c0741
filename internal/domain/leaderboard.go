package domain

import "time"

// LeaderboardEntry is one user's row in a weekly leaderboard. Entries are
// bumped additively as sessions end during the week; rank is assigned at
// query time.
type LeaderboardEntry struct {
	WeekStart string `json:"week_start"` // Monday date key
	UserID    string `json:"user_id"`

	DurationSeconds int64 `json:"duration_seconds"`
	LikeCount       int   `json:"like_count"`

	UpdatedAt time.Time `json:"updated_at"`
}

// RankedLeaderboardEntry is a leaderboard row enriched for display.
type RankedLeaderboardEntry struct {
	Rank            int    `json:"rank"`
	UserID          string `json:"user_id"`
	DisplayName     string `json:"display_name"`
	DurationSeconds int64  `json:"duration_seconds"`
	LikeCount       int    `json:"like_count"`
	LikedByCaller   bool   `json:"liked_by_caller"`
	IsCaller        bool   `json:"is_caller"`
}

// Leaderboard is the weekly top list plus the caller's own row.
type Leaderboard struct {
	WeekStart string                   `json:"week_start"`
	Entries   []RankedLeaderboardEntry `json:"entries"`
	// Caller is nil when the requesting user has no entry this week.
	Caller *RankedLeaderboardEntry `json:"caller,omitempty"`
}

// LeaderboardLike records at most one like per (liker, target, week).
type LeaderboardLike struct {
	WeekStart    string    `json:"week_start"`
	TargetUserID string    `json:"target_user_id"`
	LikerUserID  string    `json:"liker_user_id"`
	CreatedAt    time.Time `json:"created_at"`
}
