package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/logan676/bookpost-sub007/internal/domain"
	domainerrors "github.com/logan676/bookpost-sub007/internal/errors"
	"github.com/logan676/bookpost-sub007/internal/id"
	"github.com/logan676/bookpost-sub007/internal/store"
)

// SessionService manages the reading session lifecycle: start, heartbeat,
// pause, resume, end. Session end is the single write path that fans out to
// the daily aggregator, the user aggregate, and the milestone and badge
// evaluators, in that order.
type SessionService struct {
	store      *store.Store
	aggregator *AggregatorService
	milestones *MilestoneService
	badges     *BadgeService
	logger     *slog.Logger
	now        func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(
	store *store.Store,
	aggregator *AggregatorService,
	milestones *MilestoneService,
	badges *BadgeService,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		store:      store,
		aggregator: aggregator,
		milestones: milestones,
		badges:     badges,
		logger:     logger,
		now:        time.Now,
	}
}

// StartSessionRequest contains the data for starting a reading session.
type StartSessionRequest struct {
	ContentID   string `json:"content_id" validate:"required"`
	ContentType string `json:"content_type" validate:"required,oneof=ebook magazine audiobook"`
	Position    string `json:"position"`
	Chapter     string `json:"chapter"`
	DeviceID    string `json:"device_id"`
}

// StartSession creates a new active session for the user. Any previously
// active session is finalized silently in the same store transaction;
// abandoned sessions are expected, not an error.
func (s *SessionService) StartSession(ctx context.Context, userID string, req StartSessionRequest) (*domain.ReadingSession, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	now := s.now()

	sessionID, err := id.Generate("rs")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	session := domain.NewReadingSession(sessionID, userID, req.ContentID, domain.ContentType(req.ContentType), now)
	session.StartPosition = req.Position
	session.EndPosition = req.Position
	session.StartChapter = req.Chapter
	session.EndChapter = req.Chapter
	session.DeviceID = req.DeviceID

	previous, err := s.store.CreateSession(ctx, session, now)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if previous != nil {
		s.logger.Debug("finalized abandoned session",
			"user_id", userID,
			"session_id", previous.ID,
			"duration_s", previous.DurationSeconds,
		)
	}

	s.logger.Debug("started reading session",
		"user_id", userID,
		"session_id", session.ID,
		"content_id", req.ContentID,
	)
	return session, nil
}

// HeartbeatRequest contains a heartbeat's position update.
type HeartbeatRequest struct {
	Position       string `json:"position"`
	Chapter        string `json:"chapter"`
	PagesReadDelta int    `json:"pages_read_delta" validate:"gte=0"`
}

// HeartbeatResponse reports the live state of the session.
type HeartbeatResponse struct {
	DurationSeconds      int64 `json:"duration_seconds"`
	TodayDuration        int64 `json:"today_duration"`
	TotalContentDuration int64 `json:"total_content_duration"`
	IsPaused             bool  `json:"is_paused"`
}

// Heartbeat records a position update on an active session and returns its
// live effective duration. Heartbeats against a paused session write
// nothing; the returned duration is always the live computation, whether or
// not a write occurred.
func (s *SessionService) Heartbeat(ctx context.Context, sessionID string, req HeartbeatRequest) (*HeartbeatResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, domainerrors.NotFoundf("session %s not found", sessionID)
	}
	if !session.IsActive {
		return nil, domainerrors.NotFoundf("session %s is not active", sessionID)
	}

	now := s.now()
	live := session.EffectiveDurationSeconds(now)

	if !session.IsPaused {
		session.ApplyProgress(req.Position, req.Chapter, req.PagesReadDelta)
		session.DurationSeconds = live
		if err := s.store.UpdateSession(ctx, session); err != nil {
			return nil, fmt.Errorf("update session: %w", err)
		}
	}

	today, contentTotal, err := s.sessionTotals(ctx, session)
	if err != nil {
		return nil, err
	}

	return &HeartbeatResponse{
		DurationSeconds:      live,
		TodayDuration:        today + live,
		TotalContentDuration: contentTotal + live,
		IsPaused:             session.IsPaused,
	}, nil
}

// PauseSession pauses an active session.
func (s *SessionService) PauseSession(ctx context.Context, sessionID string) (*domain.ReadingSession, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, domainerrors.NotFoundf("session %s not found", sessionID)
	}
	if !session.IsActive {
		return nil, domainerrors.InvalidState("session is not active")
	}
	if session.IsPaused {
		return nil, domainerrors.InvalidState("session is already paused")
	}

	session.Pause(s.now())
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// ResumeSession resumes a paused session, folding the open pause into the
// session's total paused time.
func (s *SessionService) ResumeSession(ctx context.Context, sessionID string) (*domain.ReadingSession, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, domainerrors.NotFoundf("session %s not found", sessionID)
	}
	if !session.IsActive {
		return nil, domainerrors.InvalidState("session is not active")
	}
	if !session.IsPaused {
		return nil, domainerrors.InvalidState("session is not paused")
	}

	session.Resume(s.now())
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// EndSessionRequest contains the final position update for a session.
type EndSessionRequest struct {
	Position       string `json:"position"`
	Chapter        string `json:"chapter"`
	PagesReadDelta int    `json:"pages_read_delta" validate:"gte=0"`
}

// EndSessionResponse reports the finalized session plus anything it earned.
type EndSessionResponse struct {
	DurationSeconds      int64                      `json:"duration_seconds"`
	TodayDuration        int64                      `json:"today_duration"`
	TotalContentDuration int64                      `json:"total_content_duration"`
	MilestonesAchieved   []*domain.ReadingMilestone `json:"milestones_achieved,omitempty"`
}

// EndSession finalizes a session and fans out: daily aggregation, then the
// user-aggregate update, then the milestone check against the just-updated
// aggregate. Badge evaluation runs last and opportunistically; a badge
// failure is logged, never surfaced, because the session end itself already
// committed.
func (s *SessionService) EndSession(ctx context.Context, sessionID string, req EndSessionRequest) (*EndSessionResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, domainerrors.NotFoundf("session %s not found", sessionID)
	}
	if !session.IsActive {
		return nil, domainerrors.InvalidState("session already ended")
	}

	now := s.now()
	session.ApplyProgress(req.Position, req.Chapter, req.PagesReadDelta)
	session.Finalize(now)

	if err := s.store.FinalizeSession(ctx, session); err != nil {
		return nil, fmt.Errorf("finalize session: %w", err)
	}

	progress, category, booksRead, booksFinished, err := s.updateProgress(ctx, session, now)
	if err != nil {
		return nil, err
	}

	delta := domain.StatDelta{
		DurationSeconds: session.DurationSeconds,
		BooksRead:       booksRead,
		BooksFinished:   booksFinished,
		PagesRead:       session.PagesRead,
		Category:        category,
		ContentID:       session.ContentID,
	}
	if err := s.aggregator.Accumulate(ctx, session.UserID, domain.DateKey(now), delta); err != nil {
		return nil, fmt.Errorf("aggregate session: %w", err)
	}

	if _, err := s.milestones.UpdateUserAggregate(ctx, session.UserID, domain.AggregateDelta{
		DurationSeconds: session.DurationSeconds,
		BooksRead:       booksRead,
		BooksFinished:   booksFinished,
	}); err != nil {
		return nil, fmt.Errorf("update user aggregate: %w", err)
	}

	achieved, err := s.milestones.CheckMilestones(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("check milestones: %w", err)
	}

	if _, err := s.badges.CheckAndAwardBadges(ctx, session.UserID); err != nil {
		s.logger.Warn("badge evaluation failed after session end",
			"user_id", session.UserID,
			"session_id", session.ID,
			"error", err,
		)
	}

	todayStat, err := s.store.GetDailyStat(ctx, session.UserID, domain.DateKey(now))
	if err != nil {
		return nil, fmt.Errorf("get daily stat: %w", err)
	}
	var todayDuration int64
	if todayStat != nil {
		todayDuration = todayStat.TotalDurationSeconds
	}

	var contentTotal int64
	if progress != nil {
		contentTotal = progress.TotalDurationSeconds
	}

	s.logger.Debug("ended reading session",
		"user_id", session.UserID,
		"session_id", session.ID,
		"duration_s", session.DurationSeconds,
		"milestones", len(achieved),
	)

	return &EndSessionResponse{
		DurationSeconds:      session.DurationSeconds,
		TodayDuration:        todayDuration,
		TotalContentDuration: contentTotal,
		MilestonesAchieved:   achieved,
	}, nil
}

// GetActiveSession returns the user's active session, or nil if none.
func (s *SessionService) GetActiveSession(ctx context.Context, userID string) (*domain.ReadingSession, error) {
	session, err := s.store.GetActiveSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return session, nil
}

// GetReadingHistory retrieves a user's sessions, most recent first.
func (s *SessionService) GetReadingHistory(ctx context.Context, userID string, limit int) ([]*domain.ReadingSession, error) {
	sessions, err := s.store.GetSessionsForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get reading history: %w", err)
	}
	return sessions, nil
}

// updateProgress folds an ended session into the (user, content) progress
// view. Returns the updated view, the content's category for the daily
// breakdown, and the books-read / books-finished deltas derived from the
// view transitions (first session on the content, crossed the completion
// threshold).
func (s *SessionService) updateProgress(ctx context.Context, session *domain.ReadingSession, now time.Time) (*domain.ContentProgress, string, int, int, error) {
	content, err := s.store.GetContent(ctx, session.ContentID)
	if err != nil && !errors.Is(err, store.ErrContentNotFound) {
		return nil, "", 0, 0, fmt.Errorf("get content: %w", err)
	}
	var category string
	if content != nil {
		category = content.Category
	}

	booksRead := 0
	progress, err := s.store.GetProgress(ctx, session.UserID, session.ContentID)
	if err != nil && !errors.Is(err, store.ErrProgressNotFound) {
		return nil, "", 0, 0, fmt.Errorf("get progress: %w", err)
	}

	wasFinished := progress != nil && progress.IsFinished

	if progress == nil {
		progress = domain.NewContentProgress(session, content, now)
		booksRead = 1
		if content != nil {
			if err := s.store.IncrementContentReaders(ctx, session.ContentID); err != nil {
				s.logger.Warn("increment content readers failed",
					"content_id", session.ContentID,
					"error", err,
				)
			}
		}
	} else {
		progress.ApplySession(session, content, now)
	}

	booksFinished := 0
	if !wasFinished && progress.IsFinished {
		booksFinished = 1
	}

	if err := s.store.UpsertProgress(ctx, progress); err != nil {
		return nil, "", 0, 0, fmt.Errorf("store progress: %w", err)
	}

	return progress, category, booksRead, booksFinished, nil
}

// sessionTotals reads today's accumulated duration and the content's
// accumulated duration, neither of which yet includes the live session.
func (s *SessionService) sessionTotals(ctx context.Context, session *domain.ReadingSession) (today, contentTotal int64, err error) {
	stat, err := s.store.GetDailyStat(ctx, session.UserID, domain.DateKey(s.now()))
	if err != nil {
		return 0, 0, fmt.Errorf("get daily stat: %w", err)
	}
	if stat != nil {
		today = stat.TotalDurationSeconds
	}

	progress, err := s.store.GetProgress(ctx, session.UserID, session.ContentID)
	if err != nil && !errors.Is(err, store.ErrProgressNotFound) {
		return 0, 0, fmt.Errorf("get progress: %w", err)
	}
	if progress != nil {
		contentTotal = progress.TotalDurationSeconds
	}

	return today, contentTotal, nil
}
