package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/feedunify/app/database"
	"github.com/lysyi3m/feedunify/app/feed"
	"github.com/lysyi3m/feedunify/app/sources"
)

type ExtractContentTask struct {
	Task
	Source           *sources.Source
	httpClient       *http.Client
	contentExtractor *feed.ContentExtractor
	entryRepo        database.EntryRepository
	userAgent        string
}

func NewExtractContentTask(source *sources.Source, httpClient *http.Client, contentExtractor *feed.ContentExtractor, entryRepo database.EntryRepository, userAgent string) *ExtractContentTask {
	return &ExtractContentTask{
		Task:             NewTask(TaskTypeExtractContent, source.Name),
		Source:           source,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		entryRepo:        entryRepo,
		userAgent:        userAgent,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Source.Settings.ExtractContent {
		slog.Debug("Content extraction disabled for feed", "feed", t.GetFeedName())
		return nil
	}

	entries, err := t.entryRepo.GetEntriesForExtraction(t.GetFeedName(), t.Source.Settings.MaxItems)
	if err != nil {
		return fmt.Errorf("failed to get entries for content extraction: %w", err)
	}

	if len(entries) == 0 {
		slog.Debug("No entries need content extraction", "feed", t.GetFeedName())
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := t.extractContentForEntry(ctx, entry); err != nil {
			slog.Error("Failed to extract content for entry", "entry_id", entry.ID, "url", entry.Link, "error", err)
			errorCount++

			now := time.Now().UTC()
			if err := t.entryRepo.UpdateExtractionStatus(entry.ID, database.ExtractionFailed, &now, err.Error()); err != nil {
				slog.Error("Failed to update content extraction status", "entry_id", entry.ID, "error", err)
			}
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.GetFeedName(),
		"duration", t.Elapsed(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractContentTask) extractContentForEntry(ctx context.Context, entry database.EntryForExtraction) error {
	data, err := t.fetchArticle(ctx, entry.Link)
	if err != nil {
		return fmt.Errorf("failed to fetch article: %w", err)
	}

	content, err := t.contentExtractor.Run(data, entry.Link)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	now := time.Now().UTC()
	if err := t.entryRepo.UpdateExtractedContentAndStatus(entry.ID, content, database.ExtractionSuccess, &now, ""); err != nil {
		return fmt.Errorf("failed to update extracted content and status: %w", err)
	}

	slog.Debug("Content extracted successfully", "entry_id", entry.ID, "url", entry.Link, "content_length", len(content))
	return nil
}

func (t *ExtractContentTask) fetchArticle(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.Source.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	return readLimited(resp.Body, t.Source.Settings.MaxSize)
}
