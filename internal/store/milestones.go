package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/logan676/bookpost-sub007/internal/domain"
)

const milestonePrefix = "milestone:" // + userID:type:value

// InsertMilestone attempts an insert-if-absent keyed by the unique
// (userID, type, value) tuple. Returns false when the milestone already
// exists; the duplicate is a no-op, not an error - key uniqueness is the
// concurrency lock that keeps milestones one-time.
func (s *Store) InsertMilestone(ctx context.Context, m *domain.ReadingMilestone) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := []byte(milestonePrefix + domain.MilestoneKey(m.UserID, m.MilestoneType, m.MilestoneValue))
	created := false

	err := s.db.Update(func(txn *badger.Txn) error {
		created = false
		_, err := txn.Get(key)
		if err == nil {
			return nil // already achieved
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txnSet(txn, key, m); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// GetMilestones retrieves a user's milestones, most recent first.
// year > 0 filters to milestones achieved in that calendar year;
// limit <= 0 means no limit.
func (s *Store) GetMilestones(ctx context.Context, userID string, limit, year int) ([]*domain.ReadingMilestone, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := milestonePrefix + userID + ":"
	var results []*domain.ReadingMilestone

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			var m domain.ReadingMilestone
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				return err
			}
			if year > 0 && m.AchievedAt.Year() != year {
				continue
			}
			results = append(results, &m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *domain.ReadingMilestone) int {
		return b.AchievedAt.Compare(a.AchievedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
