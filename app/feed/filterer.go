package feed

import (
	"fmt"
	"strings"

	"github.com/lysyi3m/feedunify/app/sources"
	"github.com/samber/lo"
)

// FilteredEntry is an entry with the verdict of a source's filters.
type FilteredEntry struct {
	Entry
	IsFiltered   bool
	FilterReason string
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

func (f *Filterer) Run(entries []Entry, filters []sources.Filter) []FilteredEntry {
	return lo.Map(entries, func(entry Entry, _ int) FilteredEntry {
		isFiltered, reason := f.applyFilters(entry, filters)
		return FilteredEntry{Entry: entry, IsFiltered: isFiltered, FilterReason: reason}
	})
}

func (f *Filterer) applyFilters(entry Entry, filters []sources.Filter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(entry, filter.Field)

		if exclude, found := lo.Find(filter.Excludes, func(pattern string) bool {
			return f.matchesFilter(value, pattern)
		}); found {
			return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
		}

		if len(filter.Includes) > 0 && !lo.SomeBy(filter.Includes, func(pattern string) bool {
			return f.matchesFilter(value, pattern)
		}) {
			return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(entry Entry, field string) string {
	switch field {
	case "title":
		return entry.Title
	case "summary":
		return entry.Summary
	case "content":
		return entry.Content
	case "author":
		return entry.Author
	case "link":
		return strings.Join(lo.Map(entry.Alternate, func(l Link, _ int) string { return l.Href }), " ")
	case "keywords":
		return strings.Join(entry.Keywords, " ")
	default:
		return ""
	}
}
