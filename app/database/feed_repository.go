package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ FeedRepository = (*SQLiteFeedRepository)(nil)

type SQLiteFeedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) *SQLiteFeedRepository {
	return &SQLiteFeedRepository{db: db}
}

const feedColumns = `id, name, feed_url, link, title, description, image_url, language, dialect,
	feed_updated_at, last_fetched_at, next_fetch_at, created_at, updated_at`

func scanFeed(row interface{ Scan(...any) error }) (*Feed, error) {
	var feed Feed
	err := row.Scan(
		&feed.ID, &feed.Name, &feed.FeedURL, &feed.Link, &feed.Title, &feed.Description,
		&feed.ImageURL, &feed.Language, &feed.Dialect,
		&feed.FeedUpdatedAt, &feed.LastFetchedAt, &feed.NextFetchAt,
		&feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

// GetFeed returns nil without an error when no feed has that name.
func (r *SQLiteFeedRepository) GetFeed(feedName string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE name = ?`, feedName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return feed, nil
}

func (r *SQLiteFeedRepository) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// UpsertFeed registers a source. A changed URL resets the fetch schedule.
func (r *SQLiteFeedRepository) UpsertFeed(feedName, feedURL string) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(`
		INSERT INTO feeds (id, name, feed_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			next_fetch_at = CASE WHEN feeds.feed_url <> excluded.feed_url THEN NULL ELSE feeds.next_fetch_at END,
			feed_url = excluded.feed_url
	`, uuid.NewString(), feedName, feedURL, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}
	return nil
}

func (r *SQLiteFeedRepository) UpdateFeedMetadata(feedName string, metadata FeedMetadata, nextFetch time.Time) error {
	now := time.Now().UTC()
	res, err := r.db.Exec(`
		UPDATE feeds
		SET title = ?, link = ?, description = ?, image_url = ?, language = ?, dialect = ?,
		    feed_updated_at = ?, last_fetched_at = ?, next_fetch_at = ?, updated_at = ?
		WHERE name = ?
	`, metadata.Title, metadata.Link, metadata.Description, metadata.ImageURL, metadata.Language,
		metadata.Dialect, utcPtr(metadata.FeedUpdatedAt), now, nextFetch.UTC(), now, feedName)
	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}
	return expectOneRow(res, feedName)
}

// UpdateNextFetch records a fetch attempt without touching metadata.
func (r *SQLiteFeedRepository) UpdateNextFetch(feedName string, nextFetch time.Time) error {
	res, err := r.db.Exec(`
		UPDATE feeds SET next_fetch_at = ?, last_fetched_at = ? WHERE name = ?
	`, nextFetch.UTC(), time.Now().UTC(), feedName)
	if err != nil {
		return fmt.Errorf("failed to update next fetch time: %w", err)
	}
	return expectOneRow(res, feedName)
}

var ErrFeedNotFound = errors.New("feed not registered")

func expectOneRow(res sql.Result, feedName string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrFeedNotFound, feedName)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
