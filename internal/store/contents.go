package store

import (
	"context"
	"encoding/json/v2"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/logan676/bookpost-sub007/internal/domain"
)

const contentPrefix = "content:" // + contentID

// UpsertContent writes a content row. The ingest layer owns metadata; the
// analytics core calls this from seeds and tests.
func (s *Store) UpsertContent(ctx context.Context, content *domain.Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set([]byte(contentPrefix+content.ID), content)
}

// GetContent retrieves a content row by ID.
func (s *Store) GetContent(ctx context.Context, id string) (*domain.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var content domain.Content
	err := s.get([]byte(contentPrefix+id), &content)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// GetContentsByIDs batch-fetches content rows in one read transaction.
// Missing IDs are skipped rather than failing the batch.
func (s *Store) GetContentsByIDs(ctx context.Context, ids []string) (map[string]*domain.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contents := make(map[string]*domain.Content, len(ids))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get([]byte(contentPrefix + id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			var content domain.Content
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &content)
			}); err != nil {
				return err
			}
			contents[id] = &content
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contents, nil
}

// GetAllContents retrieves the full content catalog. The ranking engine
// scores every refresh from this scan.
func (s *Store) GetAllContents(ctx context.Context) ([]*domain.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var contents []*domain.Content

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(contentPrefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(contentPrefix)); it.ValidForPrefix([]byte(contentPrefix)); it.Next() {
			var content domain.Content
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &content)
			})
			if err != nil {
				return err
			}
			contents = append(contents, &content)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contents, nil
}

// AddInternalRating folds one reader rating into the content's denormalized
// rating sum and count in a single transaction.
func (s *Store) AddInternalRating(ctx context.Context, contentID string, rating float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(contentPrefix + contentID)
		content := new(domain.Content)
		found, err := txnGet(txn, key, content)
		if err != nil {
			return err
		}
		if !found {
			return ErrContentNotFound
		}

		content.InternalRatingSum += rating
		content.InternalRatingCount++
		return txnSet(txn, key, content)
	})
}

// IncrementContentReaders bumps the distinct-reader counter when a user's
// first progress row for the content is created.
func (s *Store) IncrementContentReaders(ctx context.Context, contentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(contentPrefix + contentID)
		content := new(domain.Content)
		found, err := txnGet(txn, key, content)
		if err != nil {
			return err
		}
		if !found {
			return ErrContentNotFound
		}

		content.TotalReaders++
		return txnSet(txn, key, content)
	})
}
