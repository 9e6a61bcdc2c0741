package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/logan676/bookpost-sub007/internal/config"
	"github.com/logan676/bookpost-sub007/internal/domain"
	"github.com/logan676/bookpost-sub007/internal/store"
)

// Scoring constants.
const (
	// Bayesian shrinkage for top_rated: low-sample averages are pulled
	// toward the prior mean.
	ratingConfidence = 10.0
	ratingPriorMean  = 3.5

	// hidden_gems candidate gates.
	gemMinRating      = 4.0
	gemMinRatingCount = 10
	gemMaxReaders     = 50

	// Lookback windows.
	sessionWindow    = 7 * 24 * time.Hour
	newReleaseWindow = 365 * 24 * time.Hour

	defaultRankingSize = 100
	hiddenGemsSize     = 50
)

// Engine recomputes each ranking type over its lookback window and replaces
// the corresponding cache slot. A failed computation leaves the previous
// slot in place; the cycle is restartable at any point.
type Engine struct {
	store  *store.Store
	cache  *Cache
	cfg    config.RankingConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates a ranking engine writing into the given cache.
func NewEngine(store *store.Store, cache *Cache, cfg config.RankingConfig, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// ComputeBookRankings recomputes every ranking type, one at a time. A failure
// in one type is logged and does not stop the others; its stale slot keeps
// serving until the next successful cycle.
func (e *Engine) ComputeBookRankings(ctx context.Context) {
	for _, rankingType := range domain.AllRankingTypes {
		if err := e.ComputeRanking(ctx, rankingType); err != nil {
			e.logger.Error("ranking computation failed",
				"type", rankingType,
				"error", err,
			)
		}
	}
}

// ComputeRanking recomputes one ranking type and replaces its cache slot.
func (e *Engine) ComputeRanking(ctx context.Context, rankingType domain.RankingType) error {
	now := e.now()

	var (
		books []domain.RankedBook
		err   error
	)
	switch rankingType {
	case domain.RankingTrending:
		books, err = e.computeTrending(ctx, now)
	case domain.RankingTopRated:
		books, err = e.computeTopRated(ctx)
	case domain.RankingMostRead:
		books, err = e.computeMostRead(ctx)
	case domain.RankingNewReleases:
		books, err = e.computeNewReleases(ctx, now)
	case domain.RankingPopularThisWeek:
		books, err = e.computePopularThisWeek(ctx, now)
	case domain.RankingHiddenGems:
		books, err = e.computeHiddenGems(ctx)
	default:
		return fmt.Errorf("unknown ranking type %q", rankingType)
	}
	if err != nil {
		return err
	}

	for i := range books {
		books[i].Rank = i + 1
	}

	e.cache.Put(&domain.RankingResult{
		Type:       rankingType,
		Books:      books,
		ComputedAt: now,
		NextUpdate: now.Add(e.intervalFor(rankingType)),
	})

	e.logger.Info("ranking recomputed",
		"type", rankingType,
		"entries", len(books),
	)
	return nil
}

// intervalFor returns the refresh interval for a ranking type.
func (e *Engine) intervalFor(rankingType domain.RankingType) time.Duration {
	switch rankingType {
	case domain.RankingTrending:
		return e.cfg.TrendingInterval
	case domain.RankingPopularThisWeek:
		return e.cfg.PopularInterval
	default:
		return e.cfg.DailyInterval
	}
}

// contentActivity is per-content session activity over a lookback window.
type contentActivity struct {
	uniqueReaders int
	sessionCount  int
}

// sessionActivity groups the window's ended sessions by content.
func (e *Engine) sessionActivity(ctx context.Context, now time.Time) (map[string]*contentActivity, error) {
	sessions, err := e.store.GetSessionsEndedInRange(ctx, now.Add(-sessionWindow), now)
	if err != nil {
		return nil, fmt.Errorf("get sessions in window: %w", err)
	}

	readers := make(map[string]map[string]bool)
	activity := make(map[string]*contentActivity)

	for _, session := range sessions {
		act := activity[session.ContentID]
		if act == nil {
			act = &contentActivity{}
			activity[session.ContentID] = act
			readers[session.ContentID] = make(map[string]bool)
		}
		act.sessionCount++
		if !readers[session.ContentID][session.UserID] {
			readers[session.ContentID][session.UserID] = true
			act.uniqueReaders++
		}
	}
	return activity, nil
}

// computeTrending scores the trailing week's session activity:
// score = 2*uniqueReaders + sessionCount, ordered by readers then sessions.
func (e *Engine) computeTrending(ctx context.Context, now time.Time) ([]domain.RankedBook, error) {
	activity, err := e.sessionActivity(ctx, now)
	if err != nil {
		return nil, err
	}

	books := make([]domain.RankedBook, 0, len(activity))
	for contentID, act := range activity {
		books = append(books, domain.RankedBook{
			ContentID:     contentID,
			Score:         float64(2*act.uniqueReaders + act.sessionCount),
			UniqueReaders: act.uniqueReaders,
			SessionCount:  act.sessionCount,
		})
	}

	slices.SortFunc(books, func(a, b domain.RankedBook) int {
		if a.UniqueReaders != b.UniqueReaders {
			return b.UniqueReaders - a.UniqueReaders
		}
		return b.SessionCount - a.SessionCount
	})

	return e.enrich(ctx, capAt(books, defaultRankingSize))
}

// computeTopRated blends internal and external ratings with Bayesian
// shrinkage toward the prior mean, so a handful of five-star ratings does
// not outrank a well-established book.
func (e *Engine) computeTopRated(ctx context.Context) ([]domain.RankedBook, error) {
	contents, err := e.store.GetAllContents(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contents: %w", err)
	}

	var books []domain.RankedBook
	for _, content := range contents {
		n := content.InternalRatingCount + content.ExternalRatingCount
		if n == 0 {
			continue
		}

		rawSum := content.InternalRatingSum + content.ExternalRating*float64(content.ExternalRatingCount)
		rawAverage := rawSum / float64(n)

		nf := float64(n)
		weighted := (nf/(nf+ratingConfidence))*rawAverage + (ratingConfidence/(nf+ratingConfidence))*ratingPriorMean

		books = append(books, rankedFromContent(content, weighted, func(b *domain.RankedBook) {
			b.Rating = rawAverage
			b.RatingCount = n
		}))
	}

	sortByScore(books)
	return capAt(books, defaultRankingSize), nil
}

// computeMostRead orders by the all-time distinct-reader counter. No decay.
func (e *Engine) computeMostRead(ctx context.Context) ([]domain.RankedBook, error) {
	contents, err := e.store.GetAllContents(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contents: %w", err)
	}

	var books []domain.RankedBook
	for _, content := range contents {
		if content.TotalReaders == 0 {
			continue
		}
		books = append(books, rankedFromContent(content, float64(content.TotalReaders), func(b *domain.RankedBook) {
			b.TotalReaders = content.TotalReaders
		}))
	}

	sortByScore(books)
	return capAt(books, defaultRankingSize), nil
}

// computeNewReleases filters to content published or ingested in the
// trailing year, ordered by publication then ingestion recency. No scoring.
func (e *Engine) computeNewReleases(ctx context.Context, now time.Time) ([]domain.RankedBook, error) {
	contents, err := e.store.GetAllContents(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contents: %w", err)
	}

	cutoff := now.Add(-newReleaseWindow)
	var recent []*domain.Content
	for _, content := range contents {
		if content.PublishedAt.After(cutoff) || content.IngestedAt.After(cutoff) {
			recent = append(recent, content)
		}
	}

	slices.SortFunc(recent, func(a, b *domain.Content) int {
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return b.PublishedAt.Compare(a.PublishedAt)
		}
		return b.IngestedAt.Compare(a.IngestedAt)
	})

	var books []domain.RankedBook
	for _, content := range recent {
		books = append(books, rankedFromContent(content, 0, nil))
	}
	return capAt(books, defaultRankingSize), nil
}

// computePopularThisWeek combines the trailing week's shelf adds and session
// activity into one additive score: 3*shelfAdds + 5*uniqueReaders + sessions.
func (e *Engine) computePopularThisWeek(ctx context.Context, now time.Time) ([]domain.RankedBook, error) {
	activity, err := e.sessionActivity(ctx, now)
	if err != nil {
		return nil, err
	}

	windowStart := now.Add(-sessionWindow)
	shelfAdds, err := e.store.CountShelfAddsInRange(ctx, domain.DateKey(windowStart), domain.DateKey(now))
	if err != nil {
		return nil, fmt.Errorf("count shelf adds: %w", err)
	}

	scores := make(map[string]*domain.RankedBook)
	for contentID, count := range shelfAdds {
		scores[contentID] = &domain.RankedBook{
			ContentID: contentID,
			Score:     float64(3 * count),
			ShelfAdds: count,
		}
	}
	for contentID, act := range activity {
		book := scores[contentID]
		if book == nil {
			book = &domain.RankedBook{ContentID: contentID}
			scores[contentID] = book
		}
		book.Score += float64(5*act.uniqueReaders + act.sessionCount)
		book.UniqueReaders = act.uniqueReaders
		book.SessionCount = act.sessionCount
	}

	books := make([]domain.RankedBook, 0, len(scores))
	for _, book := range scores {
		books = append(books, *book)
	}

	sortByScore(books)
	return e.enrich(ctx, capAt(books, defaultRankingSize))
}

// computeHiddenGems surfaces highly-rated content few readers have found:
// external rating >= 4.0 with >= 10 ratings, fewer than 50 internal readers.
// score = rating*20 - log10(readers+1)*5.
func (e *Engine) computeHiddenGems(ctx context.Context) ([]domain.RankedBook, error) {
	contents, err := e.store.GetAllContents(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contents: %w", err)
	}

	var books []domain.RankedBook
	for _, content := range contents {
		if content.ExternalRating < gemMinRating ||
			content.ExternalRatingCount < gemMinRatingCount ||
			content.TotalReaders >= gemMaxReaders {
			continue
		}

		score := content.ExternalRating*20 - math.Log10(float64(content.TotalReaders)+1)*5
		books = append(books, rankedFromContent(content, score, func(b *domain.RankedBook) {
			b.Rating = content.ExternalRating
			b.RatingCount = content.ExternalRatingCount
			b.TotalReaders = content.TotalReaders
		}))
	}

	sortByScore(books)
	return capAt(books, hiddenGemsSize), nil
}

// enrich fills title/author/cover for rankings built from session or shelf
// activity rather than content rows. Content deleted since the activity
// happened is dropped from the ranking.
func (e *Engine) enrich(ctx context.Context, books []domain.RankedBook) ([]domain.RankedBook, error) {
	ids := make([]string, 0, len(books))
	for _, book := range books {
		ids = append(ids, book.ContentID)
	}

	contents, err := e.store.GetContentsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get contents: %w", err)
	}

	enriched := books[:0]
	for _, book := range books {
		content, ok := contents[book.ContentID]
		if !ok {
			continue
		}
		book.ContentType = content.ContentType
		book.Title = content.Title
		book.Author = content.Author
		book.CoverPath = content.CoverPath
		enriched = append(enriched, book)
	}
	return enriched, nil
}

// rankedFromContent builds a display-ready entry from a content row.
func rankedFromContent(content *domain.Content, score float64, extra func(*domain.RankedBook)) domain.RankedBook {
	book := domain.RankedBook{
		ContentID:   content.ID,
		ContentType: content.ContentType,
		Title:       content.Title,
		Author:      content.Author,
		CoverPath:   content.CoverPath,
		Score:       score,
	}
	if extra != nil {
		extra(&book)
	}
	return book
}

func sortByScore(books []domain.RankedBook) {
	slices.SortFunc(books, func(a, b domain.RankedBook) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			// Deterministic order for equal scores.
			if a.ContentID < b.ContentID {
				return -1
			}
			return 1
		}
	})
}

func capAt(books []domain.RankedBook, limit int) []domain.RankedBook {
	if len(books) > limit {
		return books[:limit]
	}
	return books
}
