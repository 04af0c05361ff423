package domain

import "time"

// Article is a single news record as delivered by the feed. The feed gives
// no uniqueness guarantee; identity is derived from the title at ingestion.
type Article struct {
	Title       string
	Description string
	URL         string
	Source      string
	Image       string
	Category    string
	Language    string
	Country     string
	PublishedAt time.Time
}

// Document is the persisted form of an Article. ID is a 32-character
// lowercase hex digest of the title, so re-ingesting the same title
// overwrites the existing document instead of duplicating it.
type Document struct {
	ID         string
	Article    Article
	Popularity float64
}

// StoredDocument is a window-selection hit read back from the document
// store. Only the fields the enrichment stage needs are carried.
type StoredDocument struct {
	ID          string
	Title       string
	Popularity  float64
	PublishedAt time.Time
}

// FeedPage is one page of a paginated feed response.
type FeedPage struct {
	Articles []Article
	Total    int
}
