package feed

import (
	"time"
)

// Feed is one parsed syndication document. Empty strings mean the source
// did not provide the field.
type Feed struct {
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Website     string     `json:"website,omitempty" yaml:"website,omitempty"`
	Language    string     `json:"language,omitempty" yaml:"language,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	VisualURL   string     `json:"visual_url,omitempty" yaml:"visual_url,omitempty"`
	Entries     []Entry    `json:"entries" yaml:"entries"`
}

// Entry is a single item of a feed. ID is never empty and Published is
// always set after extraction.
type Entry struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty"`
	Content   string     `json:"content,omitempty" yaml:"content,omitempty"`
	Summary   string     `json:"summary,omitempty" yaml:"summary,omitempty"`
	Author    string     `json:"author,omitempty" yaml:"author,omitempty"`
	Published time.Time  `json:"published" yaml:"published"`
	Updated   *time.Time `json:"updated,omitempty" yaml:"updated,omitempty"`
	Alternate []Link     `json:"alternate" yaml:"alternate"`
	Keywords  []string   `json:"keywords" yaml:"keywords"`
	Enclosure []Link     `json:"enclosure" yaml:"enclosure"`

	// Fingerprint is reserved for a content dedup key; no extractor fills it.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}

type Link struct {
	Href   string `json:"href" yaml:"href"`
	Type   string `json:"type" yaml:"type"`
	Length *int64 `json:"length,omitempty" yaml:"length,omitempty"`
}

func newLink(mimeType, href string) Link {
	return Link{Href: href, Type: mimeType}
}

func newEnclosure(mimeType string, length int64, href string) Link {
	return Link{Href: href, Type: mimeType, Length: &length}
}

func newEntry() Entry {
	return Entry{
		Alternate: []Link{},
		Keywords:  []string{},
		Enclosure: []Link{},
	}
}

// Dialect identifies which syndication vocabulary a document uses.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectAtom
	DialectRSS1
	DialectRSS2
)

func (d Dialect) String() string {
	switch d {
	case DialectAtom:
		return "atom"
	case DialectRSS1:
		return "rss1"
	case DialectRSS2:
		return "rss2"
	default:
		return "unknown"
	}
}
