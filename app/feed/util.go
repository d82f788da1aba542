package feed

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// attr returns the value of the first attribute whose local name matches,
// ignoring its namespace.
func attr(n *node, name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// text returns the first direct text child of n. Nested elements and any
// text after the first text node are not included.
func text(n *node) string {
	for _, child := range n.children {
		if child.kind == textNode {
			return child.text
		}
	}
	return ""
}

// child returns the first direct element child with the given local name.
func child(n *node, local string) *node {
	for _, c := range n.children {
		if c.isElement(local) {
			return c
		}
	}
	return nil
}

func timestampRFC3339(n *node) *time.Time {
	return parseTimestamp(text(n), parseRFC3339)
}

func timestampRFC2822(n *node) *time.Time {
	return parseTimestamp(text(n), parseRFC2822)
}

// timestamp tries RFC 2822 first and falls back to RFC 3339.
func timestamp(n *node) *time.Time {
	return parseTimestamp(text(n), parseRFC2822, parseRFC3339)
}

func parseTimestamp(s string, parsers ...func(string) (time.Time, error)) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, parse := range parsers {
		if t, err := parse(s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// RFC 2822 allows an optional day name, one or two digit days, an obsolete
// two digit year, optional seconds and either a numeric offset or an
// obsolete zone name.
var rfc2822Layouts = func() []string {
	var layouts []string
	for _, day := range []string{"Mon, ", ""} {
		for _, year := range []string{"2006", "06"} {
			for _, clock := range []string{"15:04:05", "15:04"} {
				for _, zone := range []string{"-0700", "MST"} {
					layouts = append(layouts, day+"2 Jan "+year+" "+clock+" "+zone)
				}
			}
		}
	}
	return layouts
}()

// obsolete zone names from RFC 2822 section 4.3
var rfc2822Zones = map[string]int{
	"UT": 0, "GMT": 0, "Z": 0,
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

func parseRFC2822(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range rfc2822Layouts {
		var t time.Time
		var err error
		if prefix, ok := strings.CutSuffix(layout, " MST"); ok {
			t, err = parseNamedZone(prefix, s)
		} else {
			t, err = time.Parse(layout, s)
		}
		if err == nil {
			return obsoleteYear(layout, t), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// obsoleteYear maps two digit years 50-99 to the 1900s and 00-49 to the
// 2000s. time.Parse pivots at 69 instead.
func obsoleteYear(layout string, t time.Time) time.Time {
	if strings.Contains(layout, " 06 ") && t.Year() >= 2050 {
		return t.AddDate(-100, 0, 0)
	}
	return t
}

// parseNamedZone handles the obsolete zone names itself. time.Parse accepts
// any alphabetic abbreviation and resolves it against the local zone.
func parseNamedZone(layout, s string) (time.Time, error) {
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return time.Time{}, &time.ParseError{Layout: layout, Value: s, Message: ": missing zone"}
	}
	hours, ok := rfc2822Zones[s[i+1:]]
	if !ok {
		return time.Time{}, &time.ParseError{Layout: layout, Value: s, Message: ": unknown zone " + s[i+1:]}
	}
	return time.ParseInLocation(layout, s[:i], time.FixedZone(s[i+1:], hours*3600))
}

func newID() string {
	return uuid.NewString()
}
