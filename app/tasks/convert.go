package tasks

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/lysyi3m/feedunify/app/database"
	"github.com/lysyi3m/feedunify/app/feed"
	"github.com/samber/lo"
)

// primaryLink picks the HTML alternate, or the first one of any type.
func primaryLink(links []feed.Link) string {
	if link, ok := lo.Find(links, func(l feed.Link) bool { return l.Type == "text/html" }); ok {
		return link.Href
	}
	if len(links) > 0 {
		return links[0].Href
	}
	return ""
}

// storageKey is the per-feed key an entry is stored under. Ids the parser
// generated change on every fetch, so those entries are keyed by their link,
// or by a digest of their text when they have none.
func storageKey(entry feed.Entry) string {
	if !isGeneratedID(entry.ID) {
		return entry.ID
	}
	if link := primaryLink(entry.Alternate); link != "" {
		return link
	}
	if entry.Title == "" && entry.Summary == "" && entry.Content == "" {
		return entry.ID
	}

	sum := sha256.Sum256([]byte(entry.Title + "\x00" + entry.Summary + "\x00" + entry.Content))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// isGeneratedID reports whether id has the canonical random UUID form the
// parser assigns to entries without an id of their own.
func isGeneratedID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.Version() == 4 && u.String() == id
}

func toEntryRecord(entry feed.FilteredEntry) database.EntryRecord {
	return database.EntryRecord{
		EntryID:  storageKey(entry.Entry),
		Title:    entry.Title,
		Link:     primaryLink(entry.Alternate),
		Summary:  entry.Summary,
		Content:  entry.Content,
		Author:   entry.Author,
		Keywords: entry.Keywords,
		Enclosures: lo.Map(entry.Enclosure, func(l feed.Link, _ int) database.Enclosure {
			return database.Enclosure{URL: l.Href, Type: l.Type, Length: lo.FromPtr(l.Length)}
		}),
		PublishedAt:  entry.Published,
		UpdatedAt:    entry.Updated,
		IsFiltered:   entry.IsFiltered,
		FilterReason: entry.FilterReason,
	}
}

// fromStoredEntry rebuilds the filterable view of a stored entry.
func fromStoredEntry(entry database.Entry) feed.Entry {
	alternate := []feed.Link{}
	if entry.Link != "" {
		alternate = append(alternate, feed.Link{Href: entry.Link, Type: "text/html"})
	}

	return feed.Entry{
		ID:        entry.EntryID,
		Title:     entry.Title,
		Content:   entry.Content,
		Summary:   entry.Summary,
		Author:    entry.Author,
		Published: entry.PublishedAt,
		Updated:   entry.UpdatedAt,
		Alternate: alternate,
		Keywords:  entry.Keywords,
		Enclosure: lo.Map(entry.Enclosures, func(e database.Enclosure, _ int) feed.Link {
			return feed.Link{Href: e.URL, Type: e.Type, Length: lo.ToPtr(e.Length)}
		}),
	}
}
