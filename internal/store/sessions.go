package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/logan676/bookpost-sub007/internal/domain"
)

const (
	sessionPrefix          = "rsession:"
	sessionActiveIdxPrefix = "rsession:idx:active:"  // + userID -> sessionID
	sessionUserIdxPrefix   = "rsession:idx:user:"    // + userID:sessionID -> sessionID
	sessionContentIdx      = "rsession:idx:content:" // + contentID:sessionID -> sessionID
	sessionDayIdxPrefix    = "rsession:idx:day:"     // + YYYY-MM-DD:sessionID -> sessionID
)

// CreateSession stores a new active session and claims the user's active
// slot. Any previously active session for the user is finalized in the same
// transaction (abandoned sessions end silently, they are not an error) and
// returned so the caller can log it.
func (s *Store) CreateSession(ctx context.Context, session *domain.ReadingSession, now time.Time) (*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var previous *domain.ReadingSession

	err := s.db.Update(func(txn *badger.Txn) error {
		previous = nil
		activeKey := []byte(sessionActiveIdxPrefix + session.UserID)

		// Finalize the previous active session, if any.
		item, err := txn.Get(activeKey)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err == nil {
			var prevID string
			if err := item.Value(func(val []byte) error {
				prevID = string(val)
				return nil
			}); err != nil {
				return err
			}

			prev := new(domain.ReadingSession)
			found, err := txnGet(txn, []byte(sessionPrefix+prevID), prev)
			if err != nil {
				return err
			}
			if found && prev.IsActive {
				prev.Finalize(now)
				if err := writeFinalizedSession(txn, prev); err != nil {
					return err
				}
				previous = prev
			}
		}

		if err := writeSessionRow(txn, session); err != nil {
			return err
		}
		return txn.Set(activeKey, []byte(session.ID))
	})
	if err != nil {
		return nil, err
	}
	return previous, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var session domain.ReadingSession
	err := s.get([]byte(sessionPrefix+id), &session)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetActiveSession returns the user's active session, or nil if none.
func (s *Store) GetActiveSession(ctx context.Context, userID string) (*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var session *domain.ReadingSession
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionActiveIdxPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		sess := new(domain.ReadingSession)
		found, err := txnGet(txn, []byte(sessionPrefix+id), sess)
		if err != nil {
			return err
		}
		if found && sess.IsActive {
			session = sess
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSession rewrites a mutable (still active) session row.
func (s *Store) UpdateSession(ctx context.Context, session *domain.ReadingSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return writeSessionRow(txn, session)
	})
}

// FinalizeSession persists an ended session, releases the user's active slot
// if this session still holds it, and indexes the session under its end day
// for ranking window scans.
func (s *Store) FinalizeSession(ctx context.Context, session *domain.ReadingSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := writeFinalizedSession(txn, session); err != nil {
			return err
		}

		activeKey := []byte(sessionActiveIdxPrefix + session.UserID)
		item, err := txn.Get(activeKey)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err == nil {
			var activeID string
			if err := item.Value(func(val []byte) error {
				activeID = string(val)
				return nil
			}); err != nil {
				return err
			}
			if activeID == session.ID {
				if err := txn.Delete(activeKey); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeSessionRow writes the primary row plus the user and content indexes.
func writeSessionRow(txn *badger.Txn, session *domain.ReadingSession) error {
	if err := txnSet(txn, []byte(sessionPrefix+session.ID), session); err != nil {
		return err
	}
	userIdx := sessionUserIdxPrefix + session.UserID + ":" + session.ID
	if err := txn.Set([]byte(userIdx), []byte(session.ID)); err != nil {
		return err
	}
	contentIdx := sessionContentIdx + session.ContentID + ":" + session.ID
	return txn.Set([]byte(contentIdx), []byte(session.ID))
}

// writeFinalizedSession writes the row and its end-day index.
func writeFinalizedSession(txn *badger.Txn, session *domain.ReadingSession) error {
	if err := writeSessionRow(txn, session); err != nil {
		return err
	}
	if session.EndTime != nil {
		dayIdx := sessionDayIdxPrefix + domain.DateKey(*session.EndTime) + ":" + session.ID
		return txn.Set([]byte(dayIdx), []byte(session.ID))
	}
	return nil
}

// GetSessionsForUser retrieves a user's sessions, most recent first.
// limit <= 0 means no limit.
func (s *Store) GetSessionsForUser(ctx context.Context, userID string, limit int) ([]*domain.ReadingSession, error) {
	sessions, err := s.getSessionsByIndex(ctx, sessionUserIdxPrefix+userID+":")
	if err != nil {
		return nil, err
	}

	slices.SortFunc(sessions, func(a, b *domain.ReadingSession) int {
		return b.StartTime.Compare(a.StartTime)
	})

	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// GetSessionsForContent retrieves all sessions for a content item.
func (s *Store) GetSessionsForContent(ctx context.Context, contentID string) ([]*domain.ReadingSession, error) {
	return s.getSessionsByIndex(ctx, sessionContentIdx+contentID+":")
}

// GetSessionsEndedInRange retrieves finalized sessions whose end time falls
// in [start, end). It walks the per-day index so the scan is bounded by the
// window, not by session history.
func (s *Store) GetSessionsEndedInRange(ctx context.Context, start, end time.Time) ([]*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Walk date keys inclusively: the window's final calendar day holds the
	// sessions ended between midnight and end.
	var all []*domain.ReadingSession
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		daySessions, err := s.getSessionsByIndex(ctx, sessionDayIdxPrefix+domain.DateKey(day)+":")
		if err != nil {
			return nil, err
		}
		for _, sess := range daySessions {
			if sess.EndTime == nil {
				continue
			}
			endedAt := *sess.EndTime
			if !endedAt.Before(start) && endedAt.Before(end) {
				all = append(all, sess)
			}
		}
	}
	return all, nil
}

// getSessionsByIndex retrieves sessions matching an index prefix.
// Uses a single transaction to collect IDs and fetch all rows (no N+1).
func (s *Store) getSessionsByIndex(ctx context.Context, prefix string) ([]*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sessions []*domain.ReadingSession

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		var ids []string
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}

		sessions = make([]*domain.ReadingSession, 0, len(ids))
		for _, id := range ids {
			item, err := txn.Get([]byte(sessionPrefix + id))
			if err != nil {
				continue // Skip missing sessions
			}

			var session domain.ReadingSession
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			}); err != nil {
				continue // Skip corrupt rows
			}
			sessions = append(sessions, &session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
