package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/logan676/bookpost-sub007/internal/domain"
)

const progressPrefix = "cprog:" // + userID:contentID

// GetProgress retrieves the (user, content) progress view.
func (s *Store) GetProgress(ctx context.Context, userID, contentID string) (*domain.ContentProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p domain.ContentProgress
	err := s.get([]byte(progressPrefix+domain.ProgressID(userID, contentID)), &p)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProgress writes a progress view row.
func (s *Store) UpsertProgress(ctx context.Context, p *domain.ContentProgress) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set([]byte(progressPrefix+domain.ProgressID(p.UserID, p.ContentID)), p)
}
