package domain

// DayStat is one dense calendar entry in a range query result.
// Days without activity carry zero values, never gaps.
type DayStat struct {
	Date                 string `json:"date"` // date key
	TotalDurationSeconds int64  `json:"total_duration_seconds"`
	BooksRead            int    `json:"books_read"`
	BooksFinished        int    `json:"books_finished"`
	PagesRead            int    `json:"pages_read"`
	NotesCreated         int    `json:"notes_created"`
	HighlightsCreated    int    `json:"highlights_created"`
}

// MonthStat is one dense month bucket in a year query result.
type MonthStat struct {
	Month                int   `json:"month"` // 1-12
	TotalDurationSeconds int64 `json:"total_duration_seconds"`
	BooksFinished        int   `json:"books_finished"`
}

// PeriodStats is the common shape of week/month/year range answers.
type PeriodStats struct {
	UserID    string `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	TotalDurationSeconds int64 `json:"total_duration_seconds"`
	BooksRead            int   `json:"books_read"`
	BooksFinished        int   `json:"books_finished"`
	PagesRead            int   `json:"pages_read"`

	// Days is dense over the range for week/month queries; nil for year.
	Days []DayStat `json:"days,omitempty"`
	// Months is dense (12 entries) for year queries; nil otherwise.
	Months []MonthStat `json:"months,omitempty"`

	// ComparisonChange is the percent change vs. the same-length prior
	// period: (current - previous) / previous * 100, 0 when previous is 0.
	ComparisonChange float64 `json:"comparison_change"`
}

// TotalStats is the lifetime answer, straight off the user aggregate plus
// breakdowns.
type TotalStats struct {
	UserID               string           `json:"user_id"`
	TotalDurationSeconds int64            `json:"total_duration_seconds"`
	TotalReadingDays     int              `json:"total_reading_days"`
	CurrentStreakDays    int              `json:"current_streak_days"`
	MaxStreakDays        int              `json:"max_streak_days"`
	BooksRead            int              `json:"books_read"`
	BooksFinished        int              `json:"books_finished"`
	CategorySeconds      map[string]int64 `json:"category_seconds,omitempty"`
}

// ComparisonChange computes the period-over-period percent change, defined
// as 0 when the previous period had no activity.
func ComparisonChange(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}
