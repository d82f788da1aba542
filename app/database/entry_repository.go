package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ EntryRepository = (*SQLiteEntryRepository)(nil)

type SQLiteEntryRepository struct {
	db *DB
}

func NewEntryRepository(db *DB) *SQLiteEntryRepository {
	return &SQLiteEntryRepository{db: db}
}

const entryColumns = `e.id, e.feed_id, e.entry_id, e.title, e.link, e.summary, e.content, e.author,
	e.keywords, e.enclosures, e.published_at, e.updated_at, e.is_filtered, e.filter_reason,
	e.extracted_content, e.extraction_status, e.extraction_error, e.extracted_at, e.created_at`

// UpsertEntry stores an entry keyed by (feed, entry id) and reports whether
// it was new. Extraction results of an existing entry are kept, and so is
// the earliest published time seen for it.
func (r *SQLiteEntryRepository) UpsertEntry(feedName string, entry EntryRecord) (bool, error) {
	var feedID string
	err := r.db.QueryRow(`SELECT id FROM feeds WHERE name = ?`, feedName).Scan(&feedID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %s", ErrFeedNotFound, feedName)
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up feed: %w", err)
	}

	var existing int
	err = r.db.QueryRow(`SELECT COUNT(*) FROM entries WHERE feed_id = ? AND entry_id = ?`, feedID, entry.EntryID).Scan(&existing)
	if err != nil {
		return false, fmt.Errorf("failed to check existing entry: %w", err)
	}

	keywords, err := json.Marshal(nonNil(entry.Keywords))
	if err != nil {
		return false, fmt.Errorf("failed to encode keywords: %w", err)
	}
	enclosures, err := json.Marshal(nonNil(entry.Enclosures))
	if err != nil {
		return false, fmt.Errorf("failed to encode enclosures: %w", err)
	}

	extractionStatus := ExtractionPending
	if entry.Content != "" {
		extractionStatus = ExtractionSkipped
	}

	_, err = r.db.Exec(`
		INSERT INTO entries (
			id, feed_id, entry_id, title, link, summary, content, author,
			keywords, enclosures, published_at, updated_at, is_filtered, filter_reason,
			extraction_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (feed_id, entry_id) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			summary = excluded.summary,
			content = excluded.content,
			author = excluded.author,
			keywords = excluded.keywords,
			enclosures = excluded.enclosures,
			published_at = MIN(entries.published_at, excluded.published_at),
			updated_at = excluded.updated_at,
			is_filtered = excluded.is_filtered,
			filter_reason = excluded.filter_reason
	`, uuid.NewString(), feedID, entry.EntryID, entry.Title, entry.Link, entry.Summary, entry.Content,
		entry.Author, string(keywords), string(enclosures), entry.PublishedAt.UTC(), utcPtr(entry.UpdatedAt),
		entry.IsFiltered, entry.FilterReason, extractionStatus, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to upsert entry: %w", err)
	}

	return existing == 0, nil
}

// GetVisibleEntries returns unfiltered entries, newest first.
func (r *SQLiteEntryRepository) GetVisibleEntries(feedName string, limit int) ([]Entry, error) {
	return r.queryEntries(`
		SELECT `+entryColumns+`
		FROM entries e JOIN feeds f ON f.id = e.feed_id
		WHERE f.name = ? AND e.is_filtered = 0
		ORDER BY e.published_at DESC, e.created_at DESC
		LIMIT ?
	`, feedName, limit)
}

func (r *SQLiteEntryRepository) GetAllEntries(feedName string) ([]Entry, error) {
	return r.queryEntries(`
		SELECT `+entryColumns+`
		FROM entries e JOIN feeds f ON f.id = e.feed_id
		WHERE f.name = ?
		ORDER BY e.published_at DESC, e.created_at DESC
	`, feedName)
}

func (r *SQLiteEntryRepository) GetEntryCount(feedName string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM entries e JOIN feeds f ON f.id = e.feed_id WHERE f.name = ?
	`, feedName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get entry count: %w", err)
	}
	return count, nil
}

// GetEntryStats returns total, visible and filtered counts.
func (r *SQLiteEntryRepository) GetEntryStats(feedName string) (total, visible, filtered int, err error) {
	err = r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN e.is_filtered = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN e.is_filtered = 1 THEN 1 ELSE 0 END), 0)
		FROM entries e JOIN feeds f ON f.id = e.feed_id
		WHERE f.name = ?
	`, feedName).Scan(&total, &visible, &filtered)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get entry stats: %w", err)
	}
	return total, visible, filtered, nil
}

func (r *SQLiteEntryRepository) UpdateEntryFilterStatus(entryID string, isFiltered bool, reason string) error {
	_, err := r.db.Exec(`UPDATE entries SET is_filtered = ?, filter_reason = ? WHERE id = ?`, isFiltered, reason, entryID)
	if err != nil {
		return fmt.Errorf("failed to update entry filter status: %w", err)
	}
	return nil
}

// GetEntriesForExtraction lists visible entries that came without content
// and have a link to fetch the article from.
func (r *SQLiteEntryRepository) GetEntriesForExtraction(feedName string, limit int) ([]EntryForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT e.id, e.link
		FROM entries e JOIN feeds f ON f.id = e.feed_id
		WHERE f.name = ?
		  AND e.is_filtered = 0
		  AND e.extraction_status = ?
		  AND e.link <> ''
		ORDER BY e.published_at DESC
		LIMIT ?
	`, feedName, ExtractionPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries for extraction: %w", err)
	}
	defer rows.Close()

	var entries []EntryForExtraction
	for rows.Next() {
		var entry EntryForExtraction
		if err := rows.Scan(&entry.ID, &entry.Link); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}

	return entries, nil
}

func (r *SQLiteEntryRepository) UpdateExtractionStatus(entryID string, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE entries SET extraction_status = ?, extracted_at = ?, extraction_error = ? WHERE id = ?
	`, status, utcPtr(extractedAt), errorMsg, entryID)
	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}
	return nil
}

func (r *SQLiteEntryRepository) UpdateExtractedContentAndStatus(entryID string, content string, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE entries
		SET extracted_content = ?, extraction_status = ?, extracted_at = ?, extraction_error = ?
		WHERE id = ?
	`, content, status, utcPtr(extractedAt), errorMsg, entryID)
	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}
	return nil
}

func (r *SQLiteEntryRepository) queryEntries(query string, args ...any) ([]Entry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var keywords, enclosures string
		err := rows.Scan(
			&entry.ID, &entry.FeedID, &entry.EntryID, &entry.Title, &entry.Link, &entry.Summary,
			&entry.Content, &entry.Author, &keywords, &enclosures, &entry.PublishedAt, &entry.UpdatedAt,
			&entry.IsFiltered, &entry.FilterReason, &entry.ExtractedContent, &entry.ExtractionStatus,
			&entry.ExtractionError, &entry.ExtractedAt, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		if err := json.Unmarshal([]byte(keywords), &entry.Keywords); err != nil {
			return nil, fmt.Errorf("failed to decode keywords of %s: %w", entry.ID, err)
		}
		if err := json.Unmarshal([]byte(enclosures), &entry.Enclosures); err != nil {
			return nil, fmt.Errorf("failed to decode enclosures of %s: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}

	return entries, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
