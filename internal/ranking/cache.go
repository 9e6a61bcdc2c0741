// Package ranking computes the content leaderboards (trending, top rated,
// most read, new releases, popular this week, hidden gems) on a schedule and
// serves them from an in-memory cache.
package ranking

import (
	"sync"
	"time"

	"github.com/logan676/bookpost-sub007/internal/domain"
)

// Cache holds one slot per ranking type, replaced wholesale on each
// recomputation. It is an explicit component with its own lifecycle, injected
// into both the engine (writer) and the query paths (readers), so tests can
// run independent instances.
type Cache struct {
	mu    sync.RWMutex
	slots map[domain.RankingType]*domain.RankingResult
}

// NewCache creates an empty ranking cache.
func NewCache() *Cache {
	return &Cache{
		slots: make(map[domain.RankingType]*domain.RankingResult),
	}
}

// Put replaces the slot for the result's ranking type.
func (c *Cache) Put(result *domain.RankingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[result.Type] = result
}

// GetRanking returns the cached slot for a type, or nil if never computed.
// Stale slots are returned as-is; staleness only drives recomputation.
func (c *Cache) GetRanking(rankingType domain.RankingType) *domain.RankingResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slots[rankingType]
}

// GetAllRankings returns every computed slot keyed by type.
func (c *Cache) GetAllRankings() map[domain.RankingType]*domain.RankingResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[domain.RankingType]*domain.RankingResult, len(c.slots))
	for t, result := range c.slots {
		out[t] = result
	}
	return out
}

// NeedsRefresh reports whether a type has never been computed or its
// scheduled next update has passed.
func (c *Cache) NeedsRefresh(rankingType domain.RankingType, now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	slot, ok := c.slots[rankingType]
	if !ok {
		return true
	}
	return now.After(slot.NextUpdate)
}

// Clear drops every slot.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = make(map[domain.RankingType]*domain.RankingResult)
}
