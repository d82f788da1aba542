package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/feedunify/app/cfg"
	"github.com/lysyi3m/feedunify/app/feed"
	"github.com/lysyi3m/feedunify/app/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTask struct {
	Task
	failures int32
	runs     atomic.Int32
}

func newCountingTask(failures int32) *countingTask {
	return &countingTask{Task: NewTask(TaskTypeProcessFeed, "counting"), failures: failures}
}

func (t *countingTask) Execute(ctx context.Context) error {
	if t.runs.Add(1) <= t.failures {
		return errors.New("temporary failure")
	}
	return nil
}

func newTestScheduler(t *testing.T, dir string, store testStore) *Scheduler {
	t.Helper()
	_, err := cfg.LoadArgs([]string{"--worker-count", "2", "--scheduler-interval", "3600", "--user-agent", "scheduler-test"})
	require.NoError(t, err)

	registry := sources.NewRegistry(dir)
	require.NoError(t, registry.Run())

	return NewScheduler(registry, store.feeds, store.entries, http.DefaultClient, feed.NewFilterer(), feed.NewContentExtractor())
}

func writeSourceFile(t *testing.T, dir, name, url string) {
	t.Helper()
	content := fmt.Sprintf("url: %q\nsettings:\n  enabled: true\n  timeout: 5\n", url)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644))
}

func TestSchedulerQueueFull(t *testing.T) {
	s := newTestScheduler(t, t.TempDir(), newTestStore(t))

	for i := 0; i < queueSize; i++ {
		require.NoError(t, s.EnqueueTask(newCountingTask(0)))
	}
	assert.ErrorIs(t, s.EnqueueTask(newCountingTask(0)), ErrQueueFull)

	s.Stop()
	assert.ErrorIs(t, s.EnqueueTask(newCountingTask(0)), context.Canceled)
}

func TestSchedulerRetriesFailedTask(t *testing.T) {
	s := newTestScheduler(t, t.TempDir(), newTestStore(t))
	s.Start()
	defer s.Stop()

	task := newCountingTask(1)
	require.NoError(t, s.EnqueueTask(task))

	assert.Eventually(t, func() bool { return task.runs.Load() == 2 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 2, task.Attempts())
}

func TestSchedulerStartupProcessesSources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testRSS))
	}))
	defer server.Close()

	dir := t.TempDir()
	writeSourceFile(t, dir, "tech", server.URL)

	store := newTestStore(t)
	s := newTestScheduler(t, dir, store)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		stored, err := store.feeds.GetFeed("tech")
		return err == nil && stored != nil && stored.Title == "Tech News"
	}, 5*time.Second, 20*time.Millisecond)

	count, err := store.entries.GetEntryCount("tech")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSchedulerReloadSource(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "tech", "https://example.com/old.xml")

	store := newTestStore(t)
	s := newTestScheduler(t, dir, store)

	writeSourceFile(t, dir, "tech", "https://example.com/new.xml")
	queued, err := s.ReloadSource("tech")
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.Equal(t, TaskTypeSyncSource, queued[0].GetType())
	assert.Equal(t, TaskTypeRefilterFeed, queued[1].GetType())

	source, err := s.registry.Get("tech")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new.xml", source.URL)

	_, err = s.ReloadSource("unknown")
	assert.Error(t, err)
}
