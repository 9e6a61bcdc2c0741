package domain

import "time"

// ContentProgress is a materialized per-(user, content) view over ended
// sessions. It drives books-read / books-finished derivation and the
// per-content totals returned by heartbeats.
type ContentProgress struct {
	UserID      string      `json:"user_id"`
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`

	TotalDurationSeconds int64 `json:"total_duration_seconds"`
	TotalPagesRead       int   `json:"total_pages_read"`

	Progress   float64    `json:"progress"` // 0.0 - 1.0
	IsFinished bool       `json:"is_finished"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	LastReadAt time.Time `json:"last_read_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProgressID generates the composite key: "userID:contentID".
func ProgressID(userID, contentID string) string {
	return userID + ":" + contentID
}

// completionThreshold marks content finished at 99% so trailing credits or
// back matter don't block completion.
const completionThreshold = 0.99

// NewContentProgress creates progress from the first ended session.
func NewContentProgress(session *ReadingSession, content *Content, now time.Time) *ContentProgress {
	p := &ContentProgress{
		UserID:      session.UserID,
		ContentID:   session.ContentID,
		ContentType: session.ContentType,
		StartedAt:   session.StartTime,
		UpdatedAt:   now,
	}
	p.ApplySession(session, content, now)
	return p
}

// ApplySession folds an ended session into the progress view. Totals always
// accumulate; the finished flag only ever flips forward.
func (p *ContentProgress) ApplySession(session *ReadingSession, content *Content, now time.Time) {
	p.TotalDurationSeconds += session.DurationSeconds
	p.TotalPagesRead += session.PagesRead
	if session.EndTime != nil {
		p.LastReadAt = *session.EndTime
	}
	p.recalculate(content, now)
	p.UpdatedAt = now
}

// recalculate derives the progress fraction from whichever size signal the
// content carries: pages for paginated content, duration for audiobooks.
func (p *ContentProgress) recalculate(content *Content, now time.Time) {
	if content == nil {
		return
	}

	var fraction float64
	switch {
	case content.PageCount > 0:
		fraction = float64(p.TotalPagesRead) / float64(content.PageCount)
	case content.DurationSeconds > 0:
		fraction = float64(p.TotalDurationSeconds) / float64(content.DurationSeconds)
	default:
		return
	}

	if fraction > 1 {
		fraction = 1
	}
	p.Progress = fraction

	if !p.IsFinished && fraction >= completionThreshold {
		p.IsFinished = true
		p.FinishedAt = &now
	}
}
