package database

import (
	"time"
)

// EntryRecord is the writable part of an entry as produced by a fetch.
type EntryRecord struct {
	EntryID      string
	Title        string
	Link         string
	Summary      string
	Content      string
	Author       string
	Keywords     []string
	Enclosures   []Enclosure
	PublishedAt  time.Time
	UpdatedAt    *time.Time
	IsFiltered   bool
	FilterReason string
}

type FeedRepository interface {
	GetFeed(feedName string) (*Feed, error)
	GetFeedCount() (int, error)

	UpsertFeed(feedName, feedURL string) error
	UpdateFeedMetadata(feedName string, metadata FeedMetadata, nextFetch time.Time) error
	UpdateNextFetch(feedName string, nextFetch time.Time) error
}

type EntryForExtraction struct {
	ID   string
	Link string
}

type EntryRepository interface {
	GetVisibleEntries(feedName string, limit int) ([]Entry, error)
	GetAllEntries(feedName string) ([]Entry, error)
	GetEntryCount(feedName string) (int, error)
	GetEntryStats(feedName string) (int, int, int, error)

	UpsertEntry(feedName string, entry EntryRecord) (bool, error)
	UpdateEntryFilterStatus(entryID string, isFiltered bool, reason string) error

	GetEntriesForExtraction(feedName string, limit int) ([]EntryForExtraction, error)
	UpdateExtractionStatus(entryID string, status string, extractedAt *time.Time, errorMsg string) error
	UpdateExtractedContentAndStatus(entryID string, content string, status string, extractedAt *time.Time, errorMsg string) error
}
