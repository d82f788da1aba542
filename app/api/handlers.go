package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/feedunify/app/cfg"
	"github.com/lysyi3m/feedunify/app/database"
	"github.com/lysyi3m/feedunify/app/feed"
	"github.com/lysyi3m/feedunify/app/sources"
	"github.com/lysyi3m/feedunify/app/tasks"
	"github.com/samber/lo"
)

func NewHandler(registry *sources.Registry, feedRepo database.FeedRepository,
	entryRepo database.EntryRepository, scheduler tasks.TaskSchedulerInterface, maxParseSize int64) *Handler {
	return &Handler{
		registry:     registry,
		feedRepo:     feedRepo,
		entryRepo:    entryRepo,
		generator:    feed.NewGenerator(),
		scheduler:    scheduler,
		maxParseSize: maxParseSize,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("name")

	source, err := h.registry.Get(name)
	if err != nil {
		slog.Debug("Source not found", "feed", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	stored, err := h.feedRepo.GetFeed(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if stored == nil {
		slog.Error("Feed not found in database", "feed", name)
		c.Status(http.StatusNotFound)
		return
	}

	entries, err := h.entryRepo.GetVisibleEntries(name, source.Settings.MaxItems)
	if err != nil {
		slog.Error("Database error", "operation", "get_entries", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(*stored, entries)
	if err != nil {
		slog.Error("RSS generation error", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("X-Feed-Items", strconv.Itoa(len(entries)))
	c.Header("X-Feed-Name", name)
	c.Header("X-Last-Updated", stored.UpdatedAt.Format(time.RFC3339))

	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"version":   cfg.GetVersion(),
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"sources":   h.registry.Count(),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}

// Parse runs the feed parser over the request body and returns the unified
// model as JSON.
func (h *Handler) Parse(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxParseSize)

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Document too large",
				"limit": tooLarge.Limit,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	parsed, dialect, err := feed.ParseDialect(data)
	if err != nil {
		if errors.Is(err, feed.ErrNotAFeed) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "Not a feed",
				"details": err.Error(),
			})
			return
		}
		slog.Error("Parse error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse document"})
		return
	}

	c.JSON(http.StatusOK, parseResponse{Dialect: dialect.String(), Feed: parsed})
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	all := h.registry.All()
	names := lo.Keys(all)
	slices.Sort(names)

	feeds := lo.Map(names, func(name string, _ int) feedSummary {
		source := all[name]
		summary := feedSummary{
			Name:            name,
			URL:             source.URL,
			Enabled:         source.Settings.Enabled,
			MaxItems:        source.Settings.MaxItems,
			RefreshInterval: (time.Duration(source.Settings.RefreshInterval) * time.Second).String(),
			ExtractContent:  source.Settings.ExtractContent,
			Filters:         len(source.Filters),
		}

		if stored, err := h.feedRepo.GetFeed(name); err == nil && stored != nil {
			summary.Title = stored.Title
			summary.Dialect = stored.Dialect
			summary.LastFetchedAt = stored.LastFetchedAt
			summary.NextFetchAt = stored.NextFetchAt
		}

		if count, err := h.entryRepo.GetEntryCount(name); err == nil {
			summary.EntryCount = count
		}

		return summary
	})

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIGetEntries(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.registry.Get(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	entries, err := h.entryRepo.GetAllEntries(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_entries", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if c.Query("filtered") == "false" {
		entries = lo.Filter(entries, func(e database.Entry, _ int) bool { return !e.IsFiltered })
	}

	total, visible, filtered, err := h.entryRepo.GetEntryStats(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_entry_stats", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":    name,
		"stats":   entryStats{Total: total, Visible: visible, Filtered: filtered},
		"entries": lo.Map(entries, func(e database.Entry, _ int) entryView { return toEntryView(e) }),
	})
}

func (h *Handler) APIReloadFeed(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.registry.Get(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	queued, err := h.scheduler.ReloadSource(name)
	if err != nil {
		slog.Error("Error reloading source", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload source",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Source reloaded and tasks enqueued successfully",
		"tasks": lo.Map(queued, func(t tasks.TaskInterface, _ int) taskRef {
			return taskRef{ID: t.GetID(), Type: t.GetType()}
		}),
	})
}

func toEntryView(e database.Entry) entryView {
	return entryView{
		ID:               e.ID,
		EntryID:          e.EntryID,
		Title:            e.Title,
		Link:             e.Link,
		Author:           e.Author,
		Keywords:         e.Keywords,
		Enclosures:       e.Enclosures,
		PublishedAt:      e.PublishedAt,
		UpdatedAt:        e.UpdatedAt,
		IsFiltered:       e.IsFiltered,
		FilterReason:     e.FilterReason,
		ExtractionStatus: e.ExtractionStatus,
	}
}
