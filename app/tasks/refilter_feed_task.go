package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/feedunify/app/database"
	"github.com/lysyi3m/feedunify/app/feed"
	"github.com/lysyi3m/feedunify/app/sources"
	"github.com/samber/lo"
)

// RefilterFeedTask re-applies a source's filters to every stored entry.
type RefilterFeedTask struct {
	Task
	Source    *sources.Source
	filterer  *feed.Filterer
	entryRepo database.EntryRepository
}

func NewRefilterFeedTask(source *sources.Source, filterer *feed.Filterer, entryRepo database.EntryRepository) *RefilterFeedTask {
	return &RefilterFeedTask{
		Task:      NewTask(TaskTypeRefilterFeed, source.Name, WithMaxRetries(1)),
		Source:    source,
		filterer:  filterer,
		entryRepo: entryRepo,
	}
}

func (t *RefilterFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	stored, err := t.entryRepo.GetAllEntries(t.GetFeedName())
	if err != nil {
		return fmt.Errorf("failed to get feed entries: %w", err)
	}

	filtered := t.filterer.Run(lo.Map(stored, func(e database.Entry, _ int) feed.Entry {
		return fromStoredEntry(e)
	}), t.Source.Filters)

	updatedCount := 0
	errorCount := 0

	for i, result := range filtered {
		original := stored[i]
		if original.IsFiltered == result.IsFiltered && original.FilterReason == result.FilterReason {
			continue
		}

		if err := t.entryRepo.UpdateEntryFilterStatus(original.ID, result.IsFiltered, result.FilterReason); err != nil {
			slog.Error("Failed to update entry filter status", "entry_id", original.ID, "error", err)
			errorCount++
		} else {
			updatedCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.GetFeedName(),
		"duration", t.Elapsed(),
		"success", updatedCount,
		"errors", errorCount)

	return nil
}
