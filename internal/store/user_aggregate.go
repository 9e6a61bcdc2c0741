package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/logan676/bookpost-sub007/internal/domain"
)

const userAggregatePrefix = "uagg:" // + userID

// GetUserAggregate retrieves the lifetime aggregate for a user.
// Returns a zero-valued aggregate if the user has never ended a session:
// "no activity yet" is a valid state, distinct from "no user".
func (s *Store) GetUserAggregate(ctx context.Context, userID string) (*domain.UserAggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var agg domain.UserAggregate
	err := s.get([]byte(userAggregatePrefix+userID), &agg)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &domain.UserAggregate{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// ApplyAggregateSessionEnd folds one session end into the user aggregate in
// a single transaction. The streak fields are computed from the
// LastReadingDate read inside the same transaction, which is the
// read-immediately-before-write the streak law requires.
func (s *Store) ApplyAggregateSessionEnd(
	ctx context.Context,
	userID string,
	delta domain.AggregateDelta,
	today string,
	now time.Time,
) (*domain.UserAggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *domain.UserAggregate

	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(userAggregatePrefix + userID)
		agg := &domain.UserAggregate{UserID: userID}

		if _, err := txnGet(txn, key, agg); err != nil {
			return err
		}

		agg.ApplySessionEnd(delta, today, now)
		updated = agg
		return txnSet(txn, key, agg)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
