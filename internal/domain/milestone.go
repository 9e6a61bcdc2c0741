package domain

import (
	"fmt"
	"time"
)

// MilestoneType identifies which cumulative ladder a milestone belongs to.
type MilestoneType string

// Milestone ladder types.
const (
	MilestoneTotalHours  MilestoneType = "total_hours"
	MilestoneStreakDays  MilestoneType = "streak_days"
	MilestoneReadingDays MilestoneType = "reading_days"
)

// Cumulative thresholds per ladder. Every threshold at or below the current
// value is a candidate; the store's insert-if-absent keeps each one-time.
var (
	TotalHoursLadder  = []int{10, 50, 100, 500, 1000, 2000, 3000, 5000}
	StreakDaysLadder  = []int{7, 30, 90, 180, 365, 500, 1000}
	ReadingDaysLadder = []int{100, 200, 365, 500, 1000}
)

// ReadingMilestone is an append-only achievement fact. The (userID, type,
// value) tuple is unique; insert uniqueness is the concurrency lock.
type ReadingMilestone struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	MilestoneType  MilestoneType `json:"milestone_type"`
	MilestoneValue int           `json:"milestone_value"`
	Title          string        `json:"title"`
	ContentID      string        `json:"content_id,omitempty"`
	AchievedAt     time.Time     `json:"achieved_at"`
}

// MilestoneKey builds the unique tuple key for insert-if-absent.
func MilestoneKey(userID string, mtype MilestoneType, value int) string {
	return fmt.Sprintf("%s:%s:%d", userID, mtype, value)
}

// MilestoneTitle renders the display title for a threshold.
func MilestoneTitle(mtype MilestoneType, value int) string {
	switch mtype {
	case MilestoneTotalHours:
		return fmt.Sprintf("%d hours of reading", value)
	case MilestoneStreakDays:
		return fmt.Sprintf("%d-day reading streak", value)
	case MilestoneReadingDays:
		return fmt.Sprintf("%d days of reading", value)
	default:
		return fmt.Sprintf("%s %d", mtype, value)
	}
}

// MilestoneCandidate is one threshold a user's aggregate currently satisfies.
type MilestoneCandidate struct {
	Type  MilestoneType
	Value int
}

// MilestoneCandidates rescans all three ladders against the aggregate and
// returns every threshold at or below the current values. Rescanning (rather
// than diffing) guarantees no threshold is missed when a single session jumps
// a value across several rungs.
func MilestoneCandidates(agg *UserAggregate) []MilestoneCandidate {
	var out []MilestoneCandidate
	for _, v := range TotalHoursLadder {
		if agg.TotalHours() >= v {
			out = append(out, MilestoneCandidate{Type: MilestoneTotalHours, Value: v})
		}
	}
	for _, v := range StreakDaysLadder {
		if agg.CurrentStreakDays >= v {
			out = append(out, MilestoneCandidate{Type: MilestoneStreakDays, Value: v})
		}
	}
	for _, v := range ReadingDaysLadder {
		if agg.TotalReadingDays >= v {
			out = append(out, MilestoneCandidate{Type: MilestoneReadingDays, Value: v})
		}
	}
	return out
}
