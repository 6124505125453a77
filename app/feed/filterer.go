package feed

import (
	"fmt"
	"log/slog"
	"strings"
)

var validFilterFields = map[string]bool{
	"title":       true,
	"description": true,
	"link":        true,
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops every item rejected by one of the filters and keeps the order of
// the rest.
func (f *Filterer) Run(items []RawItem, filters []Filter) []RawItem {
	if len(filters) == 0 {
		return items
	}

	kept := make([]RawItem, 0, len(items))
	for _, item := range items {
		if isFiltered, reason := f.applyFilters(item, filters); isFiltered {
			slog.Debug("Item filtered", "title", item.Title, "reason", reason)
			continue
		}
		kept = append(kept, item)
	}

	return kept
}

func (f *Filterer) applyFilters(item RawItem, filters []Filter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(item RawItem, field string) string {
	switch field {
	case "title":
		return item.Title
	case "description":
		return item.Description
	case "link":
		return item.Link
	default:
		return ""
	}
}
