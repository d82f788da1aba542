package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/feedunify/app/feed"
	"github.com/lysyi3m/feedunify/app/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessFeedTaskStoresEntries(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}))
	defer server.Close()

	store := newTestStore(t)
	source := testSource("tech", server.URL)
	source.Filters = []sources.Filter{{Field: "title", Excludes: []string{"sponsored"}}}
	require.NoError(t, store.feeds.UpsertFeed(source.Name, source.URL))

	task := NewProcessFeedTask(source, server.Client(), feed.NewFilterer(), store.feeds, store.entries, "feedunify-test")
	task.Start()
	require.NoError(t, task.Execute(context.Background()))

	assert.Equal(t, "feedunify-test", gotUserAgent)

	stored, err := store.feeds.GetFeed("tech")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Tech News", stored.Title)
	assert.Equal(t, "https://example.com", stored.Link)
	assert.Equal(t, "rss2", stored.Dialect)
	require.NotNil(t, stored.NextFetchAt)
	assert.True(t, stored.NextFetchAt.After(time.Now().UTC()))

	total, visible, filtered, err := store.entries.GetEntryStats("tech")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, visible)
	assert.Equal(t, 1, filtered)

	entries, err := store.entries.GetVisibleEntries("tech", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "go-124", entries[0].EntryID)
	assert.Equal(t, "https://example.com/go", entries[0].Link)
	assert.Equal(t, []string{"golang"}, entries[0].Keywords)
	assert.Equal(t, time.Date(2025, 2, 11, 10, 0, 0, 0, time.UTC), entries[0].PublishedAt.UTC())

	// a second run updates rows in place
	task = NewProcessFeedTask(source, server.Client(), feed.NewFilterer(), store.feeds, store.entries, "feedunify-test")
	require.NoError(t, task.Execute(context.Background()))
	count, err := store.entries.GetEntryCount("tech")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProcessFeedTaskNotAFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Moved</body></html>"))
	}))
	defer server.Close()

	store := newTestStore(t)
	source := testSource("moved", server.URL)
	require.NoError(t, store.feeds.UpsertFeed(source.Name, source.URL))

	task := NewProcessFeedTask(source, server.Client(), feed.NewFilterer(), store.feeds, store.entries, "test")
	require.NoError(t, task.Execute(context.Background()))

	stored, err := store.feeds.GetFeed("moved")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Empty(t, stored.Title)
	require.NotNil(t, stored.NextFetchAt)
	assert.True(t, stored.NextFetchAt.After(time.Now().UTC()))

	count, err := store.entries.GetEntryCount("moved")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessFeedTaskBodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testRSS))
	}))
	defer server.Close()

	store := newTestStore(t)
	source := testSource("big", server.URL)
	source.Settings.MaxSize = 64
	require.NoError(t, store.feeds.UpsertFeed(source.Name, source.URL))

	task := NewProcessFeedTask(source, server.Client(), feed.NewFilterer(), store.feeds, store.entries, "test")
	err := task.Execute(context.Background())
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestProcessFeedTaskHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	store := newTestStore(t)
	source := testSource("down", server.URL)
	require.NoError(t, store.feeds.UpsertFeed(source.Name, source.URL))

	task := NewProcessFeedTask(source, server.Client(), feed.NewFilterer(), store.feeds, store.entries, "test")
	err := task.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestProcessFeedTaskDisabledSource(t *testing.T) {
	store := newTestStore(t)
	source := testSource("off", "http://127.0.0.1:1/unreachable")
	source.Settings.Enabled = false

	task := NewProcessFeedTask(source, http.DefaultClient, feed.NewFilterer(), store.feeds, store.entries, "test")
	assert.NoError(t, task.Execute(context.Background()))
}

func TestProcessFeedTaskCancelledContext(t *testing.T) {
	store := newTestStore(t)
	task := NewProcessFeedTask(testSource("x", "http://example.com"), http.DefaultClient, feed.NewFilterer(), store.feeds, store.entries, "test")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, task.Execute(ctx), context.Canceled)
}

func TestReadLimited(t *testing.T) {
	data, err := readLimited(strings.NewReader("12345"), 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(data))

	_, err = readLimited(strings.NewReader("123456"), 5)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestProcessFeedTaskRefetchIsStable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<rss version="2.0"><channel><title>Undated</title>
  <item><title>No guid</title><link>https://example.com/a</link></item>
  <item><guid>b</guid><title>No date</title></item>
  <item><title>Neither guid nor link</title><description>text only</description></item>
</channel></rss>`))
	}))
	defer server.Close()

	store := newTestStore(t)
	source := testSource("undated", server.URL)
	require.NoError(t, store.feeds.UpsertFeed(source.Name, source.URL))

	var firstPublished time.Time
	for run := 0; run < 3; run++ {
		task := NewProcessFeedTask(source, server.Client(), feed.NewFilterer(), store.feeds, store.entries, "test")
		require.NoError(t, task.Execute(context.Background()))

		entries, err := store.entries.GetAllEntries("undated")
		require.NoError(t, err)
		require.Len(t, entries, 3, "run %d", run)

		for _, e := range entries {
			if e.EntryID != "b" {
				continue
			}
			if run == 0 {
				firstPublished = e.PublishedAt
			} else {
				assert.True(t, firstPublished.Equal(e.PublishedAt), "run %d moved published to %s", run, e.PublishedAt)
			}
		}
		time.Sleep(10 * time.Millisecond)
	}

	entries, err := store.entries.GetAllEntries("undated")
	require.NoError(t, err)
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.EntryID)
	}
	assert.Contains(t, keys, "https://example.com/a")
	assert.Contains(t, keys, "b")
}
