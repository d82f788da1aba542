package feed

import (
	"time"
)

// handleRSS1 reads an RDF document. Channel metadata, images and items are
// siblings under the root rather than nested.
func handleRSS1(root *node) *Feed {
	f := &Feed{Entries: []Entry{}}

	for _, c := range root.children {
		if c.kind != elementNode {
			continue
		}

		switch c.name.Local {
		case "channel":
			handleRDFChannel(c, f)
		case "image":
			if url := imageURL(c); url != "" {
				f.VisualURL = url
			}
		case "item":
			if entry := handleRDFItem(c); entry != nil {
				f.Entries = append(f.Entries, *entry)
			}
		case "textinput":
		}
	}

	return f
}

func handleRDFChannel(channel *node, f *Feed) {
	for _, c := range channel.children {
		if c.kind != elementNode {
			continue
		}

		switch c.name.Local {
		case "title":
			f.Title = text(c)
		case "link":
			if url := text(c); url != "" {
				f.Website = url
			}
		case "description":
			f.Description = text(c)
		case "language":
			f.Language = text(c)
		case "date":
			f.LastUpdated = timestampRFC3339(c)
		case "image":
			// usually only an rdf:resource reference to the root <image>
			if url := imageURL(c); url != "" {
				f.VisualURL = url
			}
		case "items", "textinput":
		}
	}
}

func handleRDFItem(item *node) *Entry {
	entry := newEntry()
	var published *time.Time

	if about, ok := attr(item, "about"); ok {
		entry.ID = about
	}

	for _, c := range item.children {
		if c.kind != elementNode {
			continue
		}

		switch c.name.Local {
		case "title":
			entry.Title = text(c)
		case "link":
			entry.Alternate = []Link{}
			if href := text(c); href != "" {
				entry.Alternate = []Link{newLink("text/html", href)}
			}
		case "description":
			entry.Summary = text(c)
		case "encoded":
			entry.Content = text(c)
		case "creator":
			entry.Author = text(c)
		case "subject":
			if keyword := text(c); keyword != "" {
				entry.Keywords = append(entry.Keywords, keyword)
			}
		case "date":
			published = timestampRFC3339(c)
		case "enclosure":
			// mod_enclosure carries the URL in rdf:resource
			if link, ok := enclosure(c, "resource", "url"); ok {
				entry.Enclosure = append(entry.Enclosure, link)
			}
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
