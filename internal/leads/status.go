package leads

import (
	"sort"
	"strings"
	"time"
)

// StatusOf derives a lead's lifecycle state. Archival wins over everything;
// a lead counts as triggered once its reminder fired or its alert time is in
// the past, whichever the process noticed first.
func StatusOf(lead Lead, now time.Time) Status {
	if lead.ArchivedAt != nil {
		return StatusArchived
	}
	if lead.TriggeredAt != nil || now.After(lead.AlertTime) {
		return StatusTriggered
	}
	return StatusPending
}

// matchQuery reports whether the lead matches a free-text search. The query
// is a case-insensitive substring test ORed across name, contact, category,
// source, and location. An empty query matches everything.
func matchQuery(lead Lead, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range []string{lead.Name, lead.ContactNo, lead.Category, lead.Source, lead.Location} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// applyFilter narrows leads to a derived status and a search query, stamping
// Status on every survivor.
func applyFilter(items []Lead, query string, filter Filter, now time.Time) []Lead {
	out := make([]Lead, 0, len(items))
	for _, lead := range items {
		if !matchQuery(lead, query) {
			continue
		}
		lead.Status = StatusOf(lead, now)
		switch filter {
		case FilterPending:
			if lead.Status != StatusPending {
				continue
			}
		case FilterTriggered:
			if lead.Status != StatusTriggered {
				continue
			}
		}
		out = append(out, lead)
	}
	return out
}

// sortByAlertAsc orders active leads soonest reminder first.
func sortByAlertAsc(items []Lead) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AlertTime.Before(items[j].AlertTime)
	})
}

// sortByAlertDesc orders archived leads most recent reminder first.
func sortByAlertDesc(items []Lead) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AlertTime.After(items[j].AlertTime)
	})
}
