package store

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/logan676/bookpost-sub007/internal/domain"
)

const shelfAddPrefix = "shelfadd:" // + date:contentID:userID

// shelfAddRecord is the stored shelf-add fact. The key carries the lookup
// dimensions; the value just timestamps the event.
type shelfAddRecord struct {
	Date      string    `json:"date"`
	ContentID string    `json:"content_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordShelfAdd stores a shelf-add event. Keyed by (date, content, user),
// so re-shelving the same content on the same day is a natural no-op.
func (s *Store) RecordShelfAdd(ctx context.Context, userID, contentID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	date := domain.DateKey(now)
	key := []byte(shelfAddPrefix + date + ":" + contentID + ":" + userID)
	return s.set(key, &shelfAddRecord{
		Date:      date,
		ContentID: contentID,
		UserID:    userID,
		CreatedAt: now,
	})
}

// CountShelfAddsInRange counts shelf adds per content with
// startDate <= date <= endDate. Date-first keys keep the scan bounded by the
// window.
func (s *Store) CountShelfAddsInRange(ctx context.Context, startDate, endDate string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(shelfAddPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		seekKey := []byte(shelfAddPrefix + startDate)
		for it.Seek(seekKey); it.ValidForPrefix([]byte(shelfAddPrefix)); it.Next() {
			key := string(it.Item().Key())
			rest := key[len(shelfAddPrefix):] // date:contentID:userID

			if len(rest) < len("2006-01-02") {
				continue
			}
			date := rest[:len("2006-01-02")]
			if date > endDate {
				break
			}

			parts := rest[len(date)+1:]
			sep := -1
			for i := len(parts) - 1; i >= 0; i-- {
				if parts[i] == ':' {
					sep = i
					break
				}
			}
			if sep <= 0 {
				continue
			}
			counts[parts[:sep]]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
