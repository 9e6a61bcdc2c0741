package domain

import "time"

// UserAggregate is the lifetime engagement slice of a user's profile.
// It is mutated exactly once per session-end event; the streak fields
// depend on the previous LastReadingDate read in the same transaction.
type UserAggregate struct {
	UserID string `json:"user_id"`

	TotalReadingDuration int64  `json:"total_reading_duration"` // seconds
	TotalReadingDays     int    `json:"total_reading_days"`
	CurrentStreakDays    int    `json:"current_streak_days"`
	MaxStreakDays        int    `json:"max_streak_days"`
	LastReadingDate      string `json:"last_reading_date,omitempty"` // date key

	BooksReadCount     int `json:"books_read_count"`
	BooksFinishedCount int `json:"books_finished_count"`

	UpdatedAt time.Time `json:"updated_at"`
}

// AggregateDelta is one session end's contribution to the aggregate.
type AggregateDelta struct {
	DurationSeconds int64
	BooksRead       int
	BooksFinished   int
}

// ApplySessionEnd folds a session end on the given calendar date into the
// aggregate. Streak law: consecutive day extends the streak, a gap resets it
// to 1, the same day leaves it unchanged. MaxStreakDays is monotone and
// TotalReadingDays only grows on a new day. Duration always accumulates.
func (a *UserAggregate) ApplySessionEnd(delta AggregateDelta, today string, now time.Time) {
	isNewDay := a.LastReadingDate != today

	if isNewDay {
		if isConsecutiveDay(a.LastReadingDate, today) {
			a.CurrentStreakDays++
		} else {
			a.CurrentStreakDays = 1
		}
		if a.CurrentStreakDays > a.MaxStreakDays {
			a.MaxStreakDays = a.CurrentStreakDays
		}
		a.TotalReadingDays++
		a.LastReadingDate = today
	}

	a.TotalReadingDuration += delta.DurationSeconds
	a.BooksReadCount += delta.BooksRead
	a.BooksFinishedCount += delta.BooksFinished
	a.UpdatedAt = now
}

// TotalHours returns whole hours of lifetime reading.
func (a *UserAggregate) TotalHours() int {
	return int(a.TotalReadingDuration / 3600)
}

// isConsecutiveDay reports whether prev is exactly one calendar day before next.
func isConsecutiveDay(prev, next string) bool {
	if prev == "" {
		return false
	}
	prevDate, err := ParseDateKey(prev)
	if err != nil {
		return false
	}
	return DateKey(prevDate.AddDate(0, 0, 1)) == next
}
