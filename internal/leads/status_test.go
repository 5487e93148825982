package leads

import (
	"testing"
	"time"
)

var statusNow = time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestStatusOf(t *testing.T) {
	future := statusNow.Add(time.Hour)
	past := statusNow.Add(-time.Hour)

	tests := []struct {
		name string
		lead Lead
		want Status
	}{
		{"pending future alert", Lead{AlertTime: future}, StatusPending},
		{"triggered by flag", Lead{AlertTime: future, TriggeredAt: ptr(past)}, StatusTriggered},
		{"triggered by clock", Lead{AlertTime: past}, StatusTriggered},
		{"archived beats triggered", Lead{AlertTime: past, TriggeredAt: ptr(past), ArchivedAt: ptr(past)}, StatusArchived},
		{"archived beats pending", Lead{AlertTime: future, ArchivedAt: ptr(past)}, StatusArchived},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusOf(tc.lead, statusNow); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestMatchQuery(t *testing.T) {
	lead := Lead{
		Name:      "Justin",
		ContactNo: "5551234567",
		Category:  "Call",
		Source:    "Roomies",
		Location:  "Austin",
	}
	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"jus", true},
		{"555123", true},
		{"CALL", true},
		{"roomies", true},
		{"austin", true},
		{"dallas", false},
	}
	for _, tc := range tests {
		if got := matchQuery(lead, tc.query); got != tc.want {
			t.Errorf("matchQuery(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestApplyFilter(t *testing.T) {
	items := []Lead{
		{ID: "a", Name: "Ann", AlertTime: statusNow.Add(time.Hour)},
		{ID: "b", Name: "Bob", AlertTime: statusNow.Add(-time.Hour)},
		{ID: "c", Name: "Cal", AlertTime: statusNow.Add(time.Hour), TriggeredAt: ptr(statusNow)},
	}

	pending := applyFilter(items, "", FilterPending, statusNow)
	if len(pending) != 1 || pending[0].ID != "a" {
		t.Fatalf("pending filter: got %+v", pending)
	}
	triggered := applyFilter(items, "", FilterTriggered, statusNow)
	if len(triggered) != 2 {
		t.Fatalf("triggered filter: got %d leads, want 2", len(triggered))
	}
	all := applyFilter(items, "bob", FilterAll, statusNow)
	if len(all) != 1 || all[0].ID != "b" {
		t.Fatalf("query filter: got %+v", all)
	}
	for _, lead := range applyFilter(items, "", FilterAll, statusNow) {
		if lead.Status == "" {
			t.Errorf("lead %s missing derived status", lead.ID)
		}
	}
}

func TestSortOrders(t *testing.T) {
	items := []Lead{
		{ID: "late", AlertTime: statusNow.Add(3 * time.Hour)},
		{ID: "early", AlertTime: statusNow.Add(time.Hour)},
		{ID: "mid", AlertTime: statusNow.Add(2 * time.Hour)},
	}

	asc := append([]Lead(nil), items...)
	sortByAlertAsc(asc)
	if asc[0].ID != "early" || asc[2].ID != "late" {
		t.Errorf("asc order wrong: %s %s %s", asc[0].ID, asc[1].ID, asc[2].ID)
	}

	desc := append([]Lead(nil), items...)
	sortByAlertDesc(desc)
	if desc[0].ID != "late" || desc[2].ID != "early" {
		t.Errorf("desc order wrong: %s %s %s", desc[0].ID, desc[1].ID, desc[2].ID)
	}
}
