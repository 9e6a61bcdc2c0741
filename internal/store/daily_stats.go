package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/logan676/bookpost-sub007/internal/domain"
)

const dailyStatPrefix = "daily:" // + userID:date

func dailyStatKey(userID, date string) []byte {
	return []byte(dailyStatPrefix + userID + ":" + date)
}

// AccumulateDailyStat applies upsert-by-add semantics for a (user, date) row
// in a single Badger transaction: concurrent session ends for the same user
// and day serialize on the transaction, so no delta is ever lost.
func (s *Store) AccumulateDailyStat(ctx context.Context, userID, date string, delta domain.StatDelta, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := dailyStatKey(userID, date)
		stat := &domain.DailyReadingStat{UserID: userID, Date: date}

		if _, err := txnGet(txn, key, stat); err != nil {
			return err
		}

		stat.Accumulate(delta, now)
		return txnSet(txn, key, stat)
	})
}

// GetDailyStat retrieves one (user, date) row. Returns nil, nil if no
// activity was recorded that day.
func (s *Store) GetDailyStat(ctx context.Context, userID, date string) (*domain.DailyReadingStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stat domain.DailyReadingStat
	err := s.get(dailyStatKey(userID, date), &stat)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// GetDailyStatsInRange retrieves a user's rows with startDate <= date <= endDate.
// Date keys sort lexicographically in chronological order, so a prefix scan
// with a range filter suffices. Missing days are simply absent; callers fill
// gaps.
func (s *Store) GetDailyStatsInRange(ctx context.Context, userID, startDate, endDate string) ([]*domain.DailyReadingStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := dailyStatPrefix + userID + ":"
	var results []*domain.DailyReadingStat

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek straight to the range start.
		seekKey := []byte(prefix + startDate)
		for it.Seek(seekKey); it.ValidForPrefix([]byte(prefix)); it.Next() {
			var stat domain.DailyReadingStat
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &stat)
			})
			if err != nil {
				return err
			}
			if stat.Date > endDate {
				break
			}
			results = append(results, &stat)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
