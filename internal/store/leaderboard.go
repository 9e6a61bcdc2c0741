package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/logan676/bookpost-sub007/internal/domain"
)

const (
	leaderboardPrefix = "lb:"     // + weekStart:userID
	lbLikePrefix      = "lblike:" // + weekStart:targetUserID:likerUserID
)

func leaderboardKey(weekStart, userID string) []byte {
	return []byte(leaderboardPrefix + weekStart + ":" + userID)
}

// BumpLeaderboardEntry adds a session's duration to the user's row for the
// week, creating the row on first activity. Upsert-by-add in one transaction,
// same discipline as the daily stat rows.
func (s *Store) BumpLeaderboardEntry(ctx context.Context, weekStart, userID string, durationSeconds int64, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := leaderboardKey(weekStart, userID)
		entry := &domain.LeaderboardEntry{WeekStart: weekStart, UserID: userID}

		if _, err := txnGet(txn, key, entry); err != nil {
			return err
		}

		entry.DurationSeconds += durationSeconds
		entry.UpdatedAt = now
		return txnSet(txn, key, entry)
	})
}

// GetLeaderboardEntries retrieves every row for a week, unsorted.
// Ranking is the query layer's job.
func (s *Store) GetLeaderboardEntries(ctx context.Context, weekStart string) ([]*domain.LeaderboardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := leaderboardPrefix + weekStart + ":"
	var entries []*domain.LeaderboardEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			var entry domain.LeaderboardEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// LikeLeaderboardUser records a like and increments the target's like count
// in the same transaction. The like key is unique per (week, target, liker),
// so a second like from the same user surfaces ErrAlreadyLiked instead of
// double-counting.
func (s *Store) LikeLeaderboardUser(ctx context.Context, weekStart, targetUserID, likerUserID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		likeKey := []byte(lbLikePrefix + weekStart + ":" + targetUserID + ":" + likerUserID)

		_, err := txn.Get(likeKey)
		if err == nil {
			return ErrAlreadyLiked
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		entryKey := leaderboardKey(weekStart, targetUserID)
		entry := new(domain.LeaderboardEntry)
		found, err := txnGet(txn, entryKey, entry)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}

		like := &domain.LeaderboardLike{
			WeekStart:    weekStart,
			TargetUserID: targetUserID,
			LikerUserID:  likerUserID,
			CreatedAt:    now,
		}
		if err := txnSet(txn, likeKey, like); err != nil {
			return err
		}

		entry.LikeCount++
		entry.UpdatedAt = now
		return txnSet(txn, entryKey, entry)
	})
}

// GetLikesByUser returns the set of target user IDs the liker has liked this
// week. Used to mark LikedByCaller on leaderboard rows.
func (s *Store) GetLikesByUser(ctx context.Context, weekStart, likerUserID string) (map[string]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := lbLikePrefix + weekStart + ":"
	liked := make(map[string]bool)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			var like domain.LeaderboardLike
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &like)
			})
			if err != nil {
				return err
			}
			if like.LikerUserID == likerUserID {
				liked[like.TargetUserID] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return liked, nil
}
