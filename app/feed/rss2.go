package feed

import (
	"strconv"
	"time"
)

const atomNS = "http://www.w3.org/2005/Atom"

func handleRSS2(root *node) *Feed {
	f := &Feed{Entries: []Entry{}}

	// Some producers put channel elements directly under <rss>.
	handleChannel(root, f)
	for _, c := range root.children {
		if c.isElement("channel") {
			handleChannel(c, f)
		}
	}

	return f
}

// handleChannel overwrites fields already set by an earlier channel.
func handleChannel(channel *node, f *Feed) {
	for _, c := range channel.children {
		if c.kind != elementNode {
			continue
		}

		switch c.name.Local {
		case "title":
			f.Title = text(c)
		case "description":
			f.Description = text(c)
		case "link":
			if c.name.Space == atomNS {
				href, hasHref := attr(c, "href")
				rel, _ := attr(c, "rel")
				if hasHref && rel == "self" {
					f.Website = href
				}
			} else if url := text(c); url != "" {
				f.Website = url
			}
		case "language":
			f.Language = text(c)
		case "lastBuildDate":
			f.LastUpdated = timestamp(c)
		case "image":
			f.VisualURL = imageURL(c)
		case "pubDate", "managingEditor", "webMaster", "copyright", "docs",
			"cloud", "ttl", "textInput", "skipHours", "skipDays", "category":
		case "item":
			if entry := handleItem(c); entry != nil {
				f.Entries = append(f.Entries, *entry)
			}
		}
	}
}

func imageURL(image *node) string {
	if url := child(image, "url"); url != nil {
		return text(url)
	}
	return ""
}

func handleItem(item *node) *Entry {
	entry := newEntry()
	var published *time.Time

	for _, c := range item.children {
		if c.kind != elementNode {
			continue
		}

		switch c.name.Local {
		case "title":
			entry.Title = text(c)
		case "description":
			entry.Summary = text(c)
		case "link":
			entry.Alternate = []Link{}
			if href := text(c); href != "" {
				entry.Alternate = []Link{newLink("text/html", href)}
			}
		case "author":
			entry.Author = text(c)
		case "category":
			if keyword := text(c); keyword != "" {
				entry.Keywords = append(entry.Keywords, keyword)
			}
		case "enclosure":
			if link, ok := enclosure(c, "url"); ok {
				entry.Enclosure = append(entry.Enclosure, link)
			}
		case "guid":
			entry.ID = text(c)
		case "pubDate":
			published = timestamp(c)
		case "comments", "source":
		}
	}

	if entry.ID == "" {
		entry.ID = newID()
	}
	if published != nil {
		entry.Published = *published
	} else {
		entry.Published = time.Now().UTC()
	}

	return &entry
}

// enclosure builds a media link only when type, length and a URL attribute
// are all present and length is an integer. urlAttrs are tried in order.
func enclosure(n *node, urlAttrs ...string) (Link, bool) {
	mimeType, hasType := attr(n, "type")
	rawLength, hasLength := attr(n, "length")
	if !hasType || !hasLength {
		return Link{}, false
	}

	var href string
	var hasHref bool
	for _, name := range urlAttrs {
		if href, hasHref = attr(n, name); hasHref {
			break
		}
	}
	if !hasHref {
		return Link{}, false
	}

	length, err := strconv.ParseInt(rawLength, 10, 64)
	if err != nil {
		return Link{}, false
	}

	return newEnclosure(mimeType, length, href), true
}
