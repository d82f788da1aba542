package feed

import (
	"time"
)

func handleAtom(root *node) *Feed {
	f := &Feed{Entries: []Entry{}}

	if lang, ok := attr(root, "lang"); ok {
		f.Language = lang
	}

	for _, c := range root.children {
		if c.kind != elementNode {
			continue
		}

		switch c.name.Local {
		case "title":
			f.Title = text(c)
		case "subtitle":
			f.Description = text(c)
		case "link":
			rel, _ := attr(c, "rel")
			href, hasHref := attr(c, "href")
			if hasHref && (rel == "" || rel == "alternate") {
				f.Website = href
			}
		case "updated":
			f.LastUpdated = timestampRFC3339(c)
		case "icon", "logo":
			if url := text(c); url != "" {
				f.VisualURL = url
			}
		case "id", "author", "contributor", "generator", "rights", "category":
		case "entry":
			if entry := handleEntry(c); entry != nil {
				f.Entries = append(f.Entries, *entry)
			}
		}
	}

	return f
}

func handleEntry(el *node) *Entry {
	entry := newEntry()
	var published *time.Time

	for _, c := range el.children {
		if c.kind != elementNode {
			continue
		}

		switch c.name.Local {
		case "id":
			entry.ID = text(c)
		case "title":
			entry.Title = text(c)
		case "content":
			entry.Content = text(c)
		case "summary":
			entry.Summary = text(c)
		case "author":
			if entry.Author == "" {
				if name := child(c, "name"); name != nil {
					entry.Author = text(name)
				}
			}
		case "published":
			published = timestampRFC3339(c)
		case "updated":
			entry.Updated = timestampRFC3339(c)
		case "link":
			handleEntryLink(c, &entry)
		case "category":
			if term, ok := attr(c, "term"); ok && term != "" {
				entry.Keywords = append(entry.Keywords, term)
			}
		case "contributor", "rights", "source":
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

// handleEntryLink sorts an Atom link into alternates or enclosures by rel.
// Links with other relations are ignored.
func handleEntryLink(link *node, entry *Entry) {
	rel, _ := attr(link, "rel")
	switch rel {
	case "", "alternate":
		href, ok := attr(link, "href")
		if !ok || href == "" {
			return
		}
		mimeType, _ := attr(link, "type")
		if mimeType == "" {
			mimeType = "text/html"
		}
		entry.Alternate = append(entry.Alternate, newLink(mimeType, href))
	case "enclosure":
		if enc, ok := enclosure(link, "href"); ok {
			entry.Enclosure = append(entry.Enclosure, enc)
		}
	}
}
