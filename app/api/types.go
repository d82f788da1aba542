package api

import (
	"time"

	"github.com/lysyi3m/feedunify/app/database"
	"github.com/lysyi3m/feedunify/app/feed"
	"github.com/lysyi3m/feedunify/app/sources"
	"github.com/lysyi3m/feedunify/app/tasks"
)

type GeneratorInterface interface {
	Run(feed database.Feed, entries []database.Entry) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	registry     *sources.Registry
	feedRepo     database.FeedRepository
	entryRepo    database.EntryRepository
	generator    GeneratorInterface
	scheduler    tasks.TaskSchedulerInterface
	maxParseSize int64
}

type parseResponse struct {
	Dialect string     `json:"dialect"`
	Feed    *feed.Feed `json:"feed"`
}

type feedSummary struct {
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	Dialect         string     `json:"dialect,omitempty"`
	Enabled         bool       `json:"enabled"`
	MaxItems        int        `json:"max_items"`
	RefreshInterval string     `json:"refresh_interval"`
	ExtractContent  bool       `json:"extract_content"`
	Filters         int        `json:"filters"`
	EntryCount      int        `json:"entry_count"`
	LastFetchedAt   *time.Time `json:"last_fetched_at,omitempty"`
	NextFetchAt     *time.Time `json:"next_fetch_at,omitempty"`
}

type entryStats struct {
	Total    int `json:"total"`
	Visible  int `json:"visible"`
	Filtered int `json:"filtered"`
}

type entryView struct {
	ID               string               `json:"id"`
	EntryID          string               `json:"entry_id"`
	Title            string               `json:"title"`
	Link             string               `json:"link,omitempty"`
	Author           string               `json:"author,omitempty"`
	Keywords         []string             `json:"keywords"`
	Enclosures       []database.Enclosure `json:"enclosures"`
	PublishedAt      time.Time            `json:"published_at"`
	UpdatedAt        *time.Time           `json:"updated_at,omitempty"`
	IsFiltered       bool                 `json:"is_filtered"`
	FilterReason     string               `json:"filter_reason,omitempty"`
	ExtractionStatus string               `json:"extraction_status"`
}

type taskRef struct {
	ID   string         `json:"id"`
	Type tasks.TaskType `json:"type"`
}
