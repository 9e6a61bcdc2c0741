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
	badgePrefix     = "badge:"  // + badgeID
	userBadgePrefix = "ubadge:" // + userID:badgeID
)

// UpsertBadge writes a catalog entry. Used by the seed path.
func (s *Store) UpsertBadge(ctx context.Context, badge *domain.Badge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set([]byte(badgePrefix+badge.ID), badge)
}

// GetBadge retrieves one catalog entry.
func (s *Store) GetBadge(ctx context.Context, id string) (*domain.Badge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var badge domain.Badge
	err := s.get([]byte(badgePrefix+id), &badge)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrBadgeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &badge, nil
}

// GetAllBadges retrieves the full catalog ordered by category, then
// ascending condition value (bronze before platinum).
func (s *Store) GetAllBadges(ctx context.Context) ([]*domain.Badge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var badges []*domain.Badge
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgePrefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(badgePrefix)); it.ValidForPrefix([]byte(badgePrefix)); it.Next() {
			var badge domain.Badge
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &badge)
			})
			if err != nil {
				return err
			}
			badges = append(badges, &badge)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(badges, func(a, b *domain.Badge) int {
		if a.Category != b.Category {
			if a.Category < b.Category {
				return -1
			}
			return 1
		}
		return a.ConditionValue - b.ConditionValue
	})
	return badges, nil
}

// HasBadges reports whether the catalog holds any entry at all.
func (s *Store) HasBadges(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgePrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek([]byte(badgePrefix))
		found = it.ValidForPrefix([]byte(badgePrefix))
		return nil
	})
	return found, err
}

// GetUserBadges retrieves all award facts for a user.
func (s *Store) GetUserBadges(ctx context.Context, userID string) ([]*domain.UserBadge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := userBadgePrefix + userID + ":"
	var awards []*domain.UserBadge

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			var award domain.UserBadge
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &award)
			})
			if err != nil {
				return err
			}
			awards = append(awards, &award)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return awards, nil
}

// AwardBadge inserts the (user, badge) award fact if absent and increments
// the badge's denormalized earned counter in the same transaction. Returns
// false when the user already holds the badge.
func (s *Store) AwardBadge(ctx context.Context, userID, badgeID string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	awarded := false
	err := s.db.Update(func(txn *badger.Txn) error {
		awarded = false
		awardKey := []byte(userBadgePrefix + userID + ":" + badgeID)

		_, err := txn.Get(awardKey)
		if err == nil {
			return nil // already earned
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		badge := new(domain.Badge)
		found, err := txnGet(txn, []byte(badgePrefix+badgeID), badge)
		if err != nil {
			return err
		}
		if !found {
			return ErrBadgeNotFound
		}

		award := &domain.UserBadge{
			UserID:   userID,
			BadgeID:  badgeID,
			EarnedAt: now,
		}
		if err := txnSet(txn, awardKey, award); err != nil {
			return err
		}

		badge.EarnedCount++
		if err := txnSet(txn, []byte(badgePrefix+badgeID), badge); err != nil {
			return err
		}

		awarded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return awarded, nil
}
