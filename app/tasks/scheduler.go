package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lysyi3m/feedunify/app/cfg"
	"github.com/lysyi3m/feedunify/app/database"
	"github.com/lysyi3m/feedunify/app/feed"
	"github.com/lysyi3m/feedunify/app/sources"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

var ErrQueueFull = errors.New("task queue is full")

const (
	queueSize   = 300
	taskTimeout = 5 * time.Minute
)

type Scheduler struct {
	registry         *sources.Registry
	feedRepo         database.FeedRepository
	entryRepo        database.EntryRepository
	httpClient       *http.Client
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
	userAgent        string
	interval         time.Duration
	workerCount      int
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(registry *sources.Registry, feedRepo database.FeedRepository, entryRepo database.EntryRepository,
	httpClient *http.Client, filterer *feed.Filterer, contentExtractor *feed.ContentExtractor) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		registry:         registry,
		feedRepo:         feedRepo,
		entryRepo:        entryRepo,
		httpClient:       httpClient,
		filterer:         filterer,
		contentExtractor: contentExtractor,
		userAgent:        c.UserAgent,
		interval:         time.Duration(c.SchedulerInterval) * time.Second,
		workerCount:      c.WorkerCount,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

// Stop cancels running tasks and waits for the workers. Queued tasks are
// dropped.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// ReloadSource re-reads a source file and queues a sync followed by a
// refilter of the stored entries.
func (s *Scheduler) ReloadSource(name string) ([]TaskInterface, error) {
	source, err := s.registry.Load(name)
	if err != nil {
		return nil, fmt.Errorf("failed to reload source: %w", err)
	}

	queued := []TaskInterface{
		NewSyncSourceTask(source, s.feedRepo),
		NewRefilterFeedTask(source, s.filterer, s.entryRepo),
	}
	for _, task := range queued {
		if err := s.EnqueueTask(task); err != nil {
			return nil, fmt.Errorf("failed to enqueue %s task: %w", task.GetType(), err)
		}
	}

	return queued, nil
}

func (s *Scheduler) enqueueStartupTasks() {
	all := s.registry.All()
	if len(all) == 0 {
		slog.Debug("No sources found")
		return
	}

	slog.Debug("Processing sources", "count", len(all))

	for name, source := range all {
		// synced inline so that process tasks find their feed row
		syncTask := NewSyncSourceTask(source, s.feedRepo)
		syncTask.Start()
		if err := syncTask.Execute(s.ctx); err != nil {
			slog.Warn("Failed to sync source", "feed", name, "error", err)
			continue
		}

		if !source.Settings.Enabled {
			slog.Debug("Feed disabled, skipping ProcessFeedTask", "feed", name)
			continue
		}

		processTask := NewProcessFeedTask(source, s.httpClient, s.filterer, s.feedRepo, s.entryRepo, s.userAgent)
		if err := s.EnqueueTask(processTask); err != nil {
			slog.Warn("Failed to enqueue ProcessFeedTask", "feed", name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	enabled := s.registry.Enabled()
	if len(enabled) == 0 {
		slog.Debug("No enabled sources found")
		return
	}

	slog.Debug("Processing enabled sources for task scheduling", "count", len(enabled))

	now := time.Now().UTC()
	for name, source := range enabled {
		stored, err := s.feedRepo.GetFeed(name)
		if err != nil {
			slog.Warn("Failed to get feed from database, skipping", "feed", name, "error", err)
			continue
		}
		if stored == nil {
			slog.Warn("Feed not found in database, skipping", "feed", name)
			continue
		}

		if stored.NextFetchAt != nil && stored.NextFetchAt.After(now) {
			slog.Debug("Feed not due for refresh yet", "feed", name, "next_fetch_at", stored.NextFetchAt)
		} else {
			processTask := NewProcessFeedTask(source, s.httpClient, s.filterer, s.feedRepo, s.entryRepo, s.userAgent)
			if err := s.EnqueueTask(processTask); err != nil {
				slog.Warn("Failed to enqueue ProcessFeedTask", "feed", name, "error", err)
			}
		}

		if source.Settings.ExtractContent {
			extractTask := NewExtractContentTask(source, s.httpClient, s.contentExtractor, s.entryRepo, s.userAgent)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractContentTask", "feed", name, "error", err)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", task.GetType().String(), "id", task.GetID(), "attempt", task.Attempts(), "error", err)

	delay, ok := task.Retry()
	if !ok {
		slog.Error("Task failed after maximum retries", "type", task.GetType().String(), "id", task.GetID(), "attempts", task.Attempts(), "last_error", err)
		return
	}

	slog.Warn("Task retry scheduled", "type", task.GetType().String(), "feed", task.GetFeedName(), "attempt", task.Attempts(), "delay", delay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", task.GetType().String(), "id", task.GetID())
		case <-time.After(delay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", task.GetType().String(), "id", task.GetID(), "attempt", task.Attempts(), "error", retryErr)
			}
		}
	}()
}
