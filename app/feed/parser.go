package feed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrNotAFeed is returned when a document cannot be tokenized or contains no
// recognised feed root. Both cases return the same error.
var ErrNotAFeed = errors.New("document is not a supported feed")

// Space-prefixed rdf: qualifiers are dropped before tokenizing, so RDF
// attributes and children are matched by local name.
var rdfPrefix = []byte(" rdf:")

// Parse converts an RSS 1.0, RSS 2.0 or Atom document into a Feed. It is
// safe for concurrent use; callers should bound len(data) themselves.
func Parse(data []byte) (*Feed, error) {
	f, _, err := ParseDialect(data)
	return f, err
}

// ParseDialect is Parse that also reports which extractor handled data.
func ParseDialect(data []byte) (*Feed, Dialect, error) {
	root, err := buildTree(bytes.NewReader(bytes.ReplaceAll(data, rdfPrefix, []byte(" "))))
	if err != nil {
		return nil, DialectUnknown, fmt.Errorf("%w: %v", ErrNotAFeed, err)
	}

	dialect, el := classify(root)
	var f *Feed
	switch dialect {
	case DialectAtom:
		f = handleAtom(el)
	case DialectRSS2:
		f = handleRSS2(el)
	case DialectRSS1:
		f = handleRSS1(el)
	}

	if f == nil {
		return nil, DialectUnknown, ErrNotAFeed
	}
	return f, dialect, nil
}

// ParseReader reads r to the end and parses the result.
func ParseReader(r io.Reader) (*Feed, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	return Parse(data)
}

// DetectDialect reports the dialect Parse would route data to.
func DetectDialect(data []byte) Dialect {
	root, err := buildTree(bytes.NewReader(bytes.ReplaceAll(data, rdfPrefix, []byte(" "))))
	if err != nil {
		return DialectUnknown
	}
	dialect, _ := classify(root)
	return dialect
}

// classify walks the tree in pre-order and returns the first element that
// looks like a feed root, at any depth.
func classify(n *node) (Dialect, *node) {
	if n.kind == elementNode {
		version, _ := attr(n, "version")
		switch {
		case n.name.Local == "feed":
			return DialectAtom, n
		case n.name.Local == "rss" && version == "2.0":
			return DialectRSS2, n
		case n.name.Local == "RDF":
			return DialectRSS1, n
		}
	}

	for _, c := range n.children {
		if dialect, el := classify(c); dialect != DialectUnknown {
			return dialect, el
		}
	}
	return DialectUnknown, nil
}
