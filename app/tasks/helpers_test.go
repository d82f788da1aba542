package tasks

import (
	"path/filepath"
	"testing"

	"github.com/lysyi3m/feedunify/app/database"
	"github.com/lysyi3m/feedunify/app/sources"
	"github.com/stretchr/testify/require"
)

type testStore struct {
	feeds   *database.SQLiteFeedRepository
	entries *database.SQLiteEntryRepository
}

func newTestStore(t *testing.T) testStore {
	t.Helper()
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return testStore{
		feeds:   database.NewFeedRepository(db),
		entries: database.NewEntryRepository(db),
	}
}

func testSource(name, url string) *sources.Source {
	return &sources.Source{
		Name: name,
		URL:  url,
		Settings: sources.Settings{
			Enabled:         true,
			RefreshInterval: sources.DefaultRefreshInterval,
			MaxItems:        sources.DefaultMaxItems,
			Timeout:         5,
			MaxSize:         sources.DefaultMaxSize,
		},
	}
}

const testRSS = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Tech News</title>
    <link>https://example.com</link>
    <description>Daily tech</description>
    <language>en</language>
    <item>
      <title>Go 1.24 released</title>
      <link>https://example.com/go</link>
      <guid>go-124</guid>
      <description>Generic type aliases</description>
      <category>golang</category>
      <pubDate>Tue, 11 Feb 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Sponsored: buy things</title>
      <link>https://example.com/ad</link>
      <guid>ad-1</guid>
      <pubDate>Mon, 10 Feb 2025 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`
