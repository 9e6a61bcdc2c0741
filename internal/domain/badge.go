package domain

import (
	"fmt"
	"time"
)

// BadgeCondition is the closed set of metrics a badge can be gated on.
// Each variant dispatches to exactly one aggregate field so the compiler
// catches an unhandled condition.
type BadgeCondition string

// Badge condition types.
const (
	ConditionStreakDays    BadgeCondition = "streak_days"
	ConditionMaxStreakDays BadgeCondition = "max_streak_days"
	ConditionTotalHours    BadgeCondition = "total_hours"
	ConditionTotalDays     BadgeCondition = "total_days"
	ConditionBooksFinished BadgeCondition = "books_finished"
	ConditionBooksRead     BadgeCondition = "books_read"
)

// Valid returns true if the condition is a recognized value.
func (c BadgeCondition) Valid() bool {
	switch c {
	case ConditionStreakDays, ConditionMaxStreakDays, ConditionTotalHours,
		ConditionTotalDays, ConditionBooksFinished, ConditionBooksRead:
		return true
	default:
		return false
	}
}

// Metric extracts the condition's current value from a user aggregate.
func (c BadgeCondition) Metric(agg *UserAggregate) int {
	switch c {
	case ConditionStreakDays:
		return agg.CurrentStreakDays
	case ConditionMaxStreakDays:
		return agg.MaxStreakDays
	case ConditionTotalHours:
		return agg.TotalHours()
	case ConditionTotalDays:
		return agg.TotalReadingDays
	case ConditionBooksFinished:
		return agg.BooksFinishedCount
	case ConditionBooksRead:
		return agg.BooksReadCount
	default:
		return 0
	}
}

// Unit returns the human-readable unit for remainder strings.
func (c BadgeCondition) Unit() string {
	switch c {
	case ConditionStreakDays, ConditionMaxStreakDays, ConditionTotalDays:
		return "days"
	case ConditionTotalHours:
		return "hours"
	case ConditionBooksFinished, ConditionBooksRead:
		return "books"
	default:
		return ""
	}
}

// BadgeLevel orders badges within a category.
type BadgeLevel string

// Badge levels.
const (
	LevelBronze   BadgeLevel = "bronze"
	LevelSilver   BadgeLevel = "silver"
	LevelGold     BadgeLevel = "gold"
	LevelPlatinum BadgeLevel = "platinum"
)

// Badge is one catalog entry. The catalog is static apart from EarnedCount,
// which is a denormalized counter incremented on each award.
type Badge struct {
	ID             string         `json:"id"`
	Category       string         `json:"category"`
	Level          BadgeLevel     `json:"level"`
	ConditionType  BadgeCondition `json:"condition_type"`
	ConditionValue int            `json:"condition_value"`

	Name        string `json:"name"`
	Description string `json:"description"`
	IconPath    string `json:"icon_path,omitempty"`
	IsActive    bool   `json:"is_active"`

	EarnedCount int       `json:"earned_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserBadge is a unique (user, badge) award fact, immutable once created.
type UserBadge struct {
	UserID   string    `json:"user_id"`
	BadgeID  string    `json:"badge_id"`
	EarnedAt time.Time `json:"earned_at"`
}

// BadgeProgress is the in-progress view of an unearned badge.
type BadgeProgress struct {
	Badge     *Badge  `json:"badge"`
	Current   int     `json:"current"`
	Target    int     `json:"target"`
	Percent   float64 `json:"percent"`   // 0-100, clamped
	Remaining string  `json:"remaining"` // "N more <unit> to earn"
}

// NewBadgeProgress computes clamped progress toward an unearned badge.
func NewBadgeProgress(badge *Badge, agg *UserAggregate) BadgeProgress {
	current := badge.ConditionType.Metric(agg)
	target := badge.ConditionValue

	pct := 0.0
	if target > 0 {
		pct = float64(current) / float64(target) * 100
		if pct > 100 {
			pct = 100
		}
	}

	remaining := target - current
	if remaining < 0 {
		remaining = 0
	}

	return BadgeProgress{
		Badge:     badge,
		Current:   current,
		Target:    target,
		Percent:   pct,
		Remaining: fmt.Sprintf("%d more %s to earn", remaining, badge.ConditionType.Unit()),
	}
}

// defaultBadgeSpec is one row of the seed catalog.
type defaultBadgeSpec struct {
	category  string
	condition BadgeCondition
	levels    [4]int // bronze, silver, gold, platinum thresholds
	name      string
}

var defaultBadgeSpecs = []defaultBadgeSpec{
	{"streak", ConditionStreakDays, [4]int{7, 30, 90, 365}, "Streak"},
	{"streak", ConditionMaxStreakDays, [4]int{14, 60, 180, 500}, "Best Streak"},
	{"hours", ConditionTotalHours, [4]int{10, 50, 100, 500}, "Reading Hours"},
	{"days", ConditionTotalDays, [4]int{30, 100, 365, 1000}, "Reading Days"},
	{"books", ConditionBooksFinished, [4]int{1, 10, 50, 100}, "Finisher"},
	{"books", ConditionBooksRead, [4]int{5, 25, 100, 250}, "Explorer"},
}

// DefaultBadges builds the seed catalog: every condition type at four levels.
// IDs are deterministic so re-seeding is naturally idempotent.
func DefaultBadges(now time.Time) []*Badge {
	levels := []BadgeLevel{LevelBronze, LevelSilver, LevelGold, LevelPlatinum}
	badges := make([]*Badge, 0, len(defaultBadgeSpecs)*len(levels))

	for _, spec := range defaultBadgeSpecs {
		for i, level := range levels {
			value := spec.levels[i]
			badges = append(badges, &Badge{
				ID:             fmt.Sprintf("badge-%s-%s", spec.condition, level),
				Category:       spec.category,
				Level:          level,
				ConditionType:  spec.condition,
				ConditionValue: value,
				Name:           fmt.Sprintf("%s %s", spec.name, level),
				Description:    fmt.Sprintf("Reach %d %s", value, spec.condition.Unit()),
				IsActive:       true,
				CreatedAt:      now,
			})
		}
	}
	return badges
}
