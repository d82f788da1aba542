package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
}

func TestFeedRepositoryUpsertAndMetadata(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	feed, err := repo.GetFeed("news")
	require.NoError(t, err)
	assert.Nil(t, feed)

	require.NoError(t, repo.UpsertFeed("news", "https://example.com/a.xml"))
	require.NoError(t, repo.UpsertFeed("news", "https://example.com/a.xml"))

	count, err := repo.GetFeedCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	updated := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	next := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	err = repo.UpdateFeedMetadata("news", FeedMetadata{
		Title:         "News",
		Link:          "https://example.com",
		Description:   "All the news",
		ImageURL:      "https://example.com/logo.png",
		Language:      "en",
		Dialect:       "rss2",
		FeedUpdatedAt: &updated,
	}, next)
	require.NoError(t, err)

	feed, err = repo.GetFeed("news")
	require.NoError(t, err)
	require.NotNil(t, feed)
	assert.NotEmpty(t, feed.ID)
	assert.Equal(t, "https://example.com/a.xml", feed.FeedURL)
	assert.Equal(t, "News", feed.Title)
	assert.Equal(t, "https://example.com", feed.Link)
	assert.Equal(t, "rss2", feed.Dialect)
	require.NotNil(t, feed.FeedUpdatedAt)
	assert.True(t, updated.Equal(*feed.FeedUpdatedAt))
	require.NotNil(t, feed.NextFetchAt)
	assert.True(t, next.Equal(*feed.NextFetchAt))
	assert.NotNil(t, feed.LastFetchedAt)
}

func TestFeedRepositoryURLChangeResetsSchedule(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	require.NoError(t, repo.UpsertFeed("news", "https://example.com/a.xml"))
	require.NoError(t, repo.UpdateNextFetch("news", time.Now().Add(time.Hour)))

	require.NoError(t, repo.UpsertFeed("news", "https://example.com/b.xml"))

	feed, err := repo.GetFeed("news")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/b.xml", feed.FeedURL)
	assert.Nil(t, feed.NextFetchAt)
}

func TestFeedRepositoryUnknownFeed(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	err := repo.UpdateNextFetch("missing", time.Now())
	assert.ErrorIs(t, err, ErrFeedNotFound)

	err = repo.UpdateFeedMetadata("missing", FeedMetadata{}, time.Now())
	assert.ErrorIs(t, err, ErrFeedNotFound)
}

func TestEntryRepositoryUpsert(t *testing.T) {
	db := newTestDB(t)
	feeds := NewFeedRepository(db)
	entries := NewEntryRepository(db)
	require.NoError(t, feeds.UpsertFeed("news", "https://example.com/a.xml"))

	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	record := EntryRecord{
		EntryID:     "guid-1",
		Title:       "First",
		Link:        "https://example.com/1",
		Summary:     "Summary",
		Keywords:    []string{"go", "feeds"},
		Enclosures:  []Enclosure{{URL: "https://example.com/1.mp3", Type: "audio/mpeg", Length: 42}},
		PublishedAt: published,
	}

	created, err := entries.UpsertEntry("news", record)
	require.NoError(t, err)
	assert.True(t, created)

	record.Title = "First (edited)"
	created, err = entries.UpsertEntry("news", record)
	require.NoError(t, err)
	assert.False(t, created)

	all, err := entries.GetAllEntries("news")
	require.NoError(t, err)
	require.Len(t, all, 1)

	stored := all[0]
	assert.Equal(t, "guid-1", stored.EntryID)
	assert.Equal(t, "First (edited)", stored.Title)
	assert.Equal(t, []string{"go", "feeds"}, stored.Keywords)
	assert.Equal(t, record.Enclosures, stored.Enclosures)
	assert.True(t, published.Equal(stored.PublishedAt))
	assert.Nil(t, stored.UpdatedAt)
	assert.Equal(t, ExtractionPending, stored.ExtractionStatus)

	_, err = entries.UpsertEntry("missing", record)
	assert.ErrorIs(t, err, ErrFeedNotFound)
}

func TestEntryRepositoryKeepsEarliestPublished(t *testing.T) {
	db := newTestDB(t)
	feeds := NewFeedRepository(db)
	entries := NewEntryRepository(db)
	require.NoError(t, feeds.UpsertFeed("news", "https://example.com/a.xml"))

	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, published := range []time.Time{
		first,
		first.Add(time.Hour),
		first.Add(1500 * time.Millisecond),
		first.Add(48 * time.Hour),
	} {
		_, err := entries.UpsertEntry("news", EntryRecord{EntryID: "undated", Title: "No date", PublishedAt: published})
		require.NoError(t, err)
	}

	all, err := entries.GetAllEntries("news")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, first.Equal(all[0].PublishedAt), "got %s", all[0].PublishedAt)

	earlier := first.Add(-time.Minute)
	_, err = entries.UpsertEntry("news", EntryRecord{EntryID: "undated", Title: "No date", PublishedAt: earlier})
	require.NoError(t, err)

	all, err = entries.GetAllEntries("news")
	require.NoError(t, err)
	assert.True(t, earlier.Equal(all[0].PublishedAt), "got %s", all[0].PublishedAt)
}

func TestEntryRepositoryVisibilityAndStats(t *testing.T) {
	db := newTestDB(t)
	feeds := NewFeedRepository(db)
	entries := NewEntryRepository(db)
	require.NoError(t, feeds.UpsertFeed("news", "https://example.com/a.xml"))

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		_, err := entries.UpsertEntry("news", EntryRecord{
			EntryID:     id,
			Title:       id,
			PublishedAt: base.Add(time.Duration(i) * time.Hour),
			IsFiltered:  id == "mid",
		})
		require.NoError(t, err)
	}

	visible, err := entries.GetVisibleEntries("news", 10)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "new", visible[0].EntryID)
	assert.Equal(t, "old", visible[1].EntryID)

	limited, err := entries.GetVisibleEntries("news", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	total, shown, filtered, err := entries.GetEntryStats("news")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, shown)
	assert.Equal(t, 1, filtered)

	count, err := entries.GetEntryCount("news")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, entries.UpdateEntryFilterStatus(visible[0].ID, true, "Excluded by title filter"))
	visible, err = entries.GetVisibleEntries("news", 10)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	total, shown, filtered, err = entries.GetEntryStats("empty")
	require.NoError(t, err)
	assert.Zero(t, total+shown+filtered)
}

func TestEntryRepositoryExtraction(t *testing.T) {
	db := newTestDB(t)
	feeds := NewFeedRepository(db)
	entries := NewEntryRepository(db)
	require.NoError(t, feeds.UpsertFeed("news", "https://example.com/a.xml"))

	now := time.Now().UTC()
	records := []EntryRecord{
		{EntryID: "needs", Link: "https://example.com/needs", PublishedAt: now},
		{EntryID: "has-content", Link: "https://example.com/has", Content: "<p>body</p>", PublishedAt: now},
		{EntryID: "no-link", PublishedAt: now},
		{EntryID: "hidden", Link: "https://example.com/hidden", IsFiltered: true, PublishedAt: now},
	}
	for _, record := range records {
		_, err := entries.UpsertEntry("news", record)
		require.NoError(t, err)
	}

	pending, err := entries.GetEntriesForExtraction("news", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "https://example.com/needs", pending[0].Link)

	require.NoError(t, entries.UpdateExtractedContentAndStatus(pending[0].ID, "<p>article</p>", ExtractionSuccess, &now, ""))

	pending, err = entries.GetEntriesForExtraction("news", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := entries.GetAllEntries("news")
	require.NoError(t, err)
	for _, entry := range all {
		if entry.EntryID == "needs" {
			assert.Equal(t, "<p>article</p>", entry.ExtractedContent)
			assert.Equal(t, ExtractionSuccess, entry.ExtractionStatus)
			assert.NotNil(t, entry.ExtractedAt)
		}
		if entry.EntryID == "has-content" {
			assert.Equal(t, ExtractionSkipped, entry.ExtractionStatus)
		}
	}

	// re-fetching keeps extraction results
	_, err = entries.UpsertEntry("news", records[0])
	require.NoError(t, err)
	all, err = entries.GetAllEntries("news")
	require.NoError(t, err)
	for _, entry := range all {
		if entry.EntryID == "needs" {
			assert.Equal(t, "<p>article</p>", entry.ExtractedContent)
		}
	}

	require.NoError(t, entries.UpdateExtractionStatus(all[0].ID, ExtractionFailed, &now, "boom"))
}
