package domain

import "time"

// ContentType identifies the kind of content a session is attached to.
type ContentType string

// Content type constants.
const (
	ContentTypeEbook     ContentType = "ebook"
	ContentTypeMagazine  ContentType = "magazine"
	ContentTypeAudiobook ContentType = "audiobook"
)

// Valid returns true if the content type is a recognized value.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeEbook, ContentTypeMagazine, ContentTypeAudiobook:
		return true
	default:
		return false
	}
}

// Content holds content metadata plus the denormalized engagement signals
// the ranking engine scores from. Metadata fields are written by the ingest
// layer; the analytics core only increments TotalReaders.
type Content struct {
	ID          string      `json:"id"`
	ContentType ContentType `json:"content_type"`
	Title       string      `json:"title"`
	Author      string      `json:"author"`
	CoverPath   string      `json:"cover_path,omitempty"`
	Category    string      `json:"category,omitempty"`

	// Size of the content, used for completion detection.
	PageCount       int   `json:"page_count,omitempty"`
	DurationSeconds int64 `json:"duration_seconds,omitempty"`

	PublishedAt time.Time `json:"published_at,omitempty"`
	IngestedAt  time.Time `json:"ingested_at,omitempty"`

	// Engagement signals.
	TotalReaders        int     `json:"total_readers"`
	InternalRatingSum   float64 `json:"internal_rating_sum"`
	InternalRatingCount int     `json:"internal_rating_count"`
	ExternalRating      float64 `json:"external_rating"`
	ExternalRatingCount int     `json:"external_rating_count"`
}

// InternalRatingAvg returns the mean internal rating, 0 when unrated.
func (c *Content) InternalRatingAvg() float64 {
	if c.InternalRatingCount == 0 {
		return 0
	}
	return c.InternalRatingSum / float64(c.InternalRatingCount)
}

// SizeSeconds returns the content length normalized to seconds of reading.
// Audiobooks use their audio duration; paginated content has no duration,
// so completion for those is tracked in pages instead.
func (c *Content) SizeSeconds() int64 {
	return c.DurationSeconds
}
