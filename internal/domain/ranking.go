package domain

import "time"

// RankingType identifies one independently-scored content leaderboard.
type RankingType string

// Ranking types.
const (
	RankingTrending        RankingType = "trending"
	RankingTopRated        RankingType = "top_rated"
	RankingMostRead        RankingType = "most_read"
	RankingNewReleases     RankingType = "new_releases"
	RankingPopularThisWeek RankingType = "popular_this_week"
	RankingHiddenGems      RankingType = "hidden_gems"
)

// AllRankingTypes lists every ranking type in computation order.
var AllRankingTypes = []RankingType{
	RankingTrending,
	RankingTopRated,
	RankingMostRead,
	RankingNewReleases,
	RankingPopularThisWeek,
	RankingHiddenGems,
}

// Valid returns true if the ranking type is a recognized value.
func (t RankingType) Valid() bool {
	switch t {
	case RankingTrending, RankingTopRated, RankingMostRead,
		RankingNewReleases, RankingPopularThisWeek, RankingHiddenGems:
		return true
	default:
		return false
	}
}

// RankedBook is one entry in a computed ranking, denormalized for display.
type RankedBook struct {
	Rank        int         `json:"rank"`
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`
	Title       string      `json:"title"`
	Author      string      `json:"author"`
	CoverPath   string      `json:"cover_path,omitempty"`

	Score float64 `json:"score"`

	// Metrics behind the score, populated per ranking type.
	UniqueReaders int     `json:"unique_readers,omitempty"`
	SessionCount  int     `json:"session_count,omitempty"`
	ShelfAdds     int     `json:"shelf_adds,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
	RatingCount   int     `json:"rating_count,omitempty"`
	TotalReaders  int     `json:"total_readers,omitempty"`
}

// RankingResult is one cached, wholesale-replaced slot. Stale slots are
// served until the next successful recomputation.
type RankingResult struct {
	Type       RankingType  `json:"type"`
	Books      []RankedBook `json:"books"`
	ComputedAt time.Time    `json:"computed_at"`
	NextUpdate time.Time    `json:"next_update"`
}
