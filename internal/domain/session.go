package domain

import "time"

// ReadingSession is one user's reading window on one piece of content.
// A session is created on start, mutated by heartbeat/pause/resume, and
// finalized (immutable) on end. At most one session per user is active.
type ReadingSession struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`

	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// DurationSeconds is the effective duration, paused time excluded.
	// Persisted on finalize; recomputed live before that.
	DurationSeconds int64 `json:"duration_seconds"`

	// Positions are opaque tokens - CFI, page number, or byte offset
	// depending on content type.
	StartPosition string `json:"start_position,omitempty"`
	EndPosition   string `json:"end_position,omitempty"`
	StartChapter  string `json:"start_chapter,omitempty"`
	EndChapter    string `json:"end_chapter,omitempty"`

	PagesRead int `json:"pages_read"`

	IsActive           bool       `json:"is_active"`
	IsPaused           bool       `json:"is_paused"`
	PausedAt           *time.Time `json:"paused_at,omitempty"`
	TotalPausedSeconds int64      `json:"total_paused_seconds"`

	DeviceID  string    `json:"device_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReadingSession creates an active session starting now.
func NewReadingSession(id, userID, contentID string, contentType ContentType, now time.Time) *ReadingSession {
	return &ReadingSession{
		ID:          id,
		UserID:      userID,
		ContentID:   contentID,
		ContentType: contentType,
		StartTime:   now,
		IsActive:    true,
		CreatedAt:   now,
	}
}

// EffectiveDurationSeconds computes elapsed wall-clock time minus all paused
// intervals, including the currently open pause. Never negative.
func (s *ReadingSession) EffectiveDurationSeconds(now time.Time) int64 {
	elapsed := int64(now.Sub(s.StartTime).Seconds())
	paused := s.TotalPausedSeconds
	if s.IsPaused && s.PausedAt != nil {
		paused += int64(now.Sub(*s.PausedAt).Seconds())
	}
	effective := elapsed - paused
	if effective < 0 {
		return 0
	}
	return effective
}

// Pause marks the session paused at now.
// The caller is responsible for checking IsActive/IsPaused first.
func (s *ReadingSession) Pause(now time.Time) {
	s.IsPaused = true
	s.PausedAt = &now
}

// Resume folds the open pause into TotalPausedSeconds and clears the pause.
func (s *ReadingSession) Resume(now time.Time) {
	if s.PausedAt != nil {
		pausedFor := int64(now.Sub(*s.PausedAt).Seconds())
		if pausedFor > 0 {
			s.TotalPausedSeconds += pausedFor
		}
	}
	s.IsPaused = false
	s.PausedAt = nil
}

// ApplyProgress records a heartbeat's position update.
func (s *ReadingSession) ApplyProgress(position, chapter string, pagesReadDelta int) {
	if position != "" {
		s.EndPosition = position
	}
	if chapter != "" {
		s.EndChapter = chapter
	}
	if pagesReadDelta > 0 {
		s.PagesRead += pagesReadDelta
	}
}

// Finalize ends the session at now, persisting the final effective duration.
// An open pause is folded in first so paused time is never counted.
func (s *ReadingSession) Finalize(now time.Time) {
	if s.IsPaused {
		s.Resume(now)
	}
	s.DurationSeconds = s.EffectiveDurationSeconds(now)
	s.IsActive = false
	s.IsPaused = false
	s.PausedAt = nil
	s.EndTime = &now
}
