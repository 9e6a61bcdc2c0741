package domain

import "time"

// DateKey formats a time as the canonical per-day key (local calendar date).
// The format sorts lexicographically in chronological order, which the store
// relies on for range scans.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDateKey parses a canonical date key back into a local-time date.
func ParseDateKey(key string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", key, time.Local)
}

// WeekStart returns the date key of the Monday of t's ISO week.
func WeekStart(t time.Time) string {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}
	monday := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).
		AddDate(0, 0, -(weekday - 1))
	return DateKey(monday)
}

// DailyReadingStat accumulates one user's reading activity for one calendar
// date. Created lazily on the first session end of the day, mutated only by
// accumulation, never deleted.
type DailyReadingStat struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"` // date key, YYYY-MM-DD

	TotalDurationSeconds int64 `json:"total_duration_seconds"`
	BooksRead            int   `json:"books_read"`
	BooksFinished        int   `json:"books_finished"`
	PagesRead            int   `json:"pages_read"`
	NotesCreated         int   `json:"notes_created"`
	HighlightsCreated    int   `json:"highlights_created"`

	// Per-category and per-content duration breakdowns, key -> seconds.
	CategorySeconds map[string]int64 `json:"category_seconds,omitempty"`
	ContentSeconds  map[string]int64 `json:"content_seconds,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// StatDelta is one additive contribution to a daily stat row.
type StatDelta struct {
	DurationSeconds   int64
	BooksRead         int
	BooksFinished     int
	PagesRead         int
	NotesCreated      int
	HighlightsCreated int

	// Breakdown keys for the duration contribution.
	Category  string
	ContentID string
}

// Accumulate adds a delta to the stat row. Counters only ever grow.
func (d *DailyReadingStat) Accumulate(delta StatDelta, now time.Time) {
	d.TotalDurationSeconds += delta.DurationSeconds
	d.BooksRead += delta.BooksRead
	d.BooksFinished += delta.BooksFinished
	d.PagesRead += delta.PagesRead
	d.NotesCreated += delta.NotesCreated
	d.HighlightsCreated += delta.HighlightsCreated

	if delta.DurationSeconds > 0 {
		if delta.Category != "" {
			if d.CategorySeconds == nil {
				d.CategorySeconds = make(map[string]int64)
			}
			d.CategorySeconds[delta.Category] += delta.DurationSeconds
		}
		if delta.ContentID != "" {
			if d.ContentSeconds == nil {
				d.ContentSeconds = make(map[string]int64)
			}
			d.ContentSeconds[delta.ContentID] += delta.DurationSeconds
		}
	}

	d.UpdatedAt = now
}
