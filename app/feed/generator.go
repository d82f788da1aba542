package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/feedunify/app/cfg"
	"github.com/lysyi3m/feedunify/app/database"
)

// Generator renders a stored feed back out as RSS 2.0, whatever dialect it
// was fetched in.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Run(feed database.Feed, entries []database.Entry) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(feed.Title, feed.Name), 4)
	g.writeElement(&buf, "link", cmp.Or(feed.Link, feed.FeedURL), 4)
	g.writeElement(&buf, "description", cmp.Or(feed.Description, fmt.Sprintf("Unified feed from %s", feed.FeedURL)), 4)

	fmt.Fprintf(&buf, "    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.selfLink(feed.Name)))

	if feed.FeedUpdatedAt != nil {
		g.writeElement(&buf, "pubDate", feed.FeedUpdatedAt.In(time.Local).Format(time.RFC1123Z), 4)
	}

	lastBuildDate := feed.UpdatedAt
	if len(entries) > 0 {
		lastBuildDate = cmp.Or(entries[0].PublishedAt, entries[0].CreatedAt, lastBuildDate)
	}
	if lastBuildDate.IsZero() {
		lastBuildDate = time.Now()
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.In(time.Local).Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("feedunify/%s", cfg.Get().Version), 4)
	g.writeElement(&buf, "language", feed.Language, 4)

	if feed.ImageURL != "" {
		buf.WriteString("    <image>\n")
		g.writeElement(&buf, "url", feed.ImageURL, 6)
		g.writeElement(&buf, "title", cmp.Or(feed.Title, feed.Name), 6)
		g.writeElement(&buf, "link", cmp.Or(feed.Link, feed.FeedURL), 6)
		buf.WriteString("    </image>\n")
	}

	for _, entry := range entries {
		g.writeEntry(&buf, entry)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) selfLink(name string) string {
	c := cfg.Get()
	if c.BaseUrl != "" {
		return fmt.Sprintf("%s/feeds/%s", strings.TrimSuffix(c.BaseUrl, "/"), name)
	}
	return fmt.Sprintf("http://localhost:%s/feeds/%s", c.Port, name)
}

func (g *Generator) writeEntry(buf *bytes.Buffer, entry database.Entry) {
	buf.WriteString("    <item>\n")

	fmt.Fprintf(buf, "      <guid isPermaLink=\"%t\">", g.isURL(entry.EntryID))
	xml.EscapeText(buf, []byte(entry.EntryID))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", entry.Title, 6)
	g.writeElement(buf, "link", entry.Link, 6)
	g.writeElement(buf, "description", cmp.Or(entry.Summary, "No description available"), 6)

	content := cmp.Or(entry.ExtractedContent, entry.Content)
	if content != "" && content != entry.Summary {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	g.writeElement(buf, "pubDate", entry.PublishedAt.In(time.Local).Format(time.RFC1123Z), 6)
	g.writeElement(buf, "author", entry.Author, 6)

	for _, keyword := range entry.Keywords {
		g.writeElement(buf, "category", keyword, 6)
	}

	for _, enclosure := range entry.Enclosures {
		fmt.Fprintf(buf, "      <enclosure url=\"%s\" length=\"%d\" type=\"%s\" />\n",
			html.EscapeString(enclosure.URL),
			enclosure.Length,
			html.EscapeString(enclosure.Type))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
