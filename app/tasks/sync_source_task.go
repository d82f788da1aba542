package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/feedunify/app/database"
	"github.com/lysyi3m/feedunify/app/sources"
)

// SyncSourceTask registers a source file in the database.
type SyncSourceTask struct {
	Task
	Source   *sources.Source
	feedRepo database.FeedRepository
}

func NewSyncSourceTask(source *sources.Source, feedRepo database.FeedRepository) *SyncSourceTask {
	return &SyncSourceTask{
		Task:     NewTask(TaskTypeSyncSource, source.Name),
		Source:   source,
		feedRepo: feedRepo,
	}
}

func (t *SyncSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.feedRepo.UpsertFeed(t.Source.Name, t.Source.URL); err != nil {
		return fmt.Errorf("failed to sync source to database: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.GetFeedName(),
		"duration", t.Elapsed())

	return nil
}
