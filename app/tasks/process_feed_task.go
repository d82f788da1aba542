package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lysyi3m/feedunify/app/database"
	"github.com/lysyi3m/feedunify/app/feed"
	"github.com/lysyi3m/feedunify/app/sources"
)

var ErrBodyTooLarge = errors.New("response body exceeds max size")

type ProcessFeedTask struct {
	Task
	Source     *sources.Source
	httpClient *http.Client
	filterer   *feed.Filterer
	feedRepo   database.FeedRepository
	entryRepo  database.EntryRepository
	userAgent  string
}

func NewProcessFeedTask(source *sources.Source, httpClient *http.Client, filterer *feed.Filterer, feedRepo database.FeedRepository, entryRepo database.EntryRepository, userAgent string) *ProcessFeedTask {
	return &ProcessFeedTask{
		Task:       NewTask(TaskTypeProcessFeed, source.Name),
		Source:     source,
		httpClient: httpClient,
		filterer:   filterer,
		feedRepo:   feedRepo,
		entryRepo:  entryRepo,
		userAgent:  userAgent,
	}
}

func (t *ProcessFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Source.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.GetFeedName())
		return nil
	}

	data, err := t.fetchFeed(ctx, t.Source.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	parsed, dialect, err := feed.ParseDialect(data)
	if err != nil {
		// not retried; the next scheduled fetch tries again
		if errors.Is(err, feed.ErrNotAFeed) {
			if scheduleErr := t.feedRepo.UpdateNextFetch(t.GetFeedName(), t.nextFetch()); scheduleErr != nil {
				slog.Warn("Failed to reschedule feed", "feed", t.GetFeedName(), "error", scheduleErr)
			}
			slog.Error("Fetched document is not a feed", "feed", t.GetFeedName(), "url", t.Source.URL, "error", err)
			return nil
		}
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := database.FeedMetadata{
		Title:         parsed.Title,
		Link:          parsed.Website,
		Description:   parsed.Description,
		ImageURL:      parsed.VisualURL,
		Language:      parsed.Language,
		Dialect:       dialect.String(),
		FeedUpdatedAt: parsed.LastUpdated,
	}
	if err := t.feedRepo.UpdateFeedMetadata(t.GetFeedName(), metadata, t.nextFetch()); err != nil {
		return fmt.Errorf("failed to store feed metadata: %w", err)
	}

	filteredCount := 0
	newCount := 0

	for _, entry := range t.filterer.Run(parsed.Entries, t.Source.Filters) {
		if entry.IsFiltered {
			filteredCount++
		}

		created, err := t.entryRepo.UpsertEntry(t.GetFeedName(), toEntryRecord(entry))
		if err != nil {
			return fmt.Errorf("failed to store entry: %w", err)
		}
		if created && !entry.IsFiltered {
			newCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.GetFeedName(),
		"dialect", dialect.String(),
		"duration", t.Elapsed(),
		"total", len(parsed.Entries),
		"filtered", filteredCount,
		"new", newCount)

	return nil
}

func (t *ProcessFeedTask) nextFetch() time.Time {
	return time.Now().UTC().Add(time.Duration(t.Source.Settings.RefreshInterval) * time.Second)
}

func (t *ProcessFeedTask) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.Source.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/rdf+xml, application/xml;q=0.9, text/xml;q=0.8")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return readLimited(resp.Body, t.Source.Settings.MaxSize)
}

// readLimited reads r fully but fails once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
	}
	return data, nil
}
