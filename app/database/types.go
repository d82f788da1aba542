package database

import (
	"time"
)

type Feed struct {
	ID            string // Database UUID
	Name          string // Source name derived from the file name
	FeedURL       string
	Link          string // Website from the parsed document
	Title         string
	Description   string
	ImageURL      string
	Language      string
	Dialect       string // atom, rss1 or rss2 as last detected
	FeedUpdatedAt *time.Time
	LastFetchedAt *time.Time
	NextFetchAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time // Last successful processing
}

// FeedMetadata is what a successful fetch learns about a feed.
type FeedMetadata struct {
	Title         string
	Link          string
	Description   string
	ImageURL      string
	Language      string
	Dialect       string
	FeedUpdatedAt *time.Time
}

type Enclosure struct {
	URL    string `json:"url"`
	Type   string `json:"type"`
	Length int64  `json:"length"`
}

type Entry struct {
	ID               string
	FeedID           string
	EntryID          string // id from the document, unique per feed
	Title            string
	Link             string
	Summary          string
	Content          string
	Author           string
	Keywords         []string
	Enclosures       []Enclosure
	PublishedAt      time.Time
	UpdatedAt        *time.Time
	IsFiltered       bool
	FilterReason     string
	ExtractedContent string
	ExtractionStatus string // pending, success, failed, skipped
	ExtractionError  string
	ExtractedAt      *time.Time
	CreatedAt        time.Time
}

const (
	ExtractionPending = "pending"
	ExtractionSuccess = "success"
	ExtractionFailed  = "failed"
	ExtractionSkipped = "skipped"
)
