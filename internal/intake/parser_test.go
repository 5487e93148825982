package intake

import (
	"fmt"
	"testing"
	"time"
)

var testVocab = Vocabulary{
	Sources:    []string{"Roomies", "Facebook", "fb", "Roomster", "Telegram", "Sulekha", "WhatsApp"},
	Categories: []string{"Call", "Follow up with", "Send lease to", "landed", "Nuh-uh"},
	Locations:  []string{"Austin", "Dallas", "Houston"},
}

// Wednesday, 2026-01-07 09:00 local.
var anchor = time.Date(2026, time.January, 7, 9, 0, 0, 0, time.UTC)

func TestParse_TimeOfDay(t *testing.T) {
	tests := []struct {
		input      string
		wantHour   int
		wantMinute int
	}{
		{"meet at 12am", 0, 0},
		{"meet at 12pm", 12, 0},
		{"meet at 1am", 1, 0},
		{"meet at 1pm", 13, 0},
		{"meet at 11pm", 23, 0},
		{"meet at 8:30pm", 20, 30},
		{"meet at 9:05am", 9, 5},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			draft := Parse(tc.input, testVocab, anchor)
			if draft.Date.Hour() != tc.wantHour || draft.Date.Minute() != tc.wantMinute {
				t.Errorf("got %02d:%02d, want %02d:%02d",
					draft.Date.Hour(), draft.Date.Minute(), tc.wantHour, tc.wantMinute)
			}
		})
	}
}

func TestParse_CallNameTomorrow(t *testing.T) {
	draft := Parse("call Justin tomorrow 8pm", testVocab, anchor)

	if draft.Name != "Justin" {
		t.Errorf("name: got %q, want %q", draft.Name, "Justin")
	}
	if draft.Category != "Call" {
		t.Errorf("category: got %q, want %q", draft.Category, "Call")
	}
	if draft.IsPhoneNumber {
		t.Error("expected IsPhoneNumber=false")
	}
	want := time.Date(2026, time.January, 8, 20, 0, 0, 0, time.UTC)
	if !draft.Date.Equal(want) {
		t.Errorf("date: got %v, want %v", draft.Date, want)
	}
}

func TestParse_BarePhoneNumber(t *testing.T) {
	draft := Parse("5551234567", testVocab, anchor)

	if !draft.IsPhoneNumber {
		t.Fatal("expected IsPhoneNumber=true")
	}
	if draft.ContactNo != "5551234567" {
		t.Errorf("contact: got %q, want %q", draft.ContactNo, "5551234567")
	}
	if draft.Name != "5551234567" {
		t.Errorf("name should fall back to the number, got %q", draft.Name)
	}
	// No day and no time: two days out at 10:00.
	want := time.Date(2026, time.January, 9, 10, 0, 0, 0, time.UTC)
	if !draft.Date.Equal(want) {
		t.Errorf("date: got %v, want %v", draft.Date, want)
	}
}

func TestParse_PhoneWithHashtagAndCategory(t *testing.T) {
	draft := Parse("5551234567 #fb landed", testVocab, anchor)

	if !draft.IsPhoneNumber {
		t.Fatal("expected IsPhoneNumber=true")
	}
	if draft.ContactNo != "5551234567" {
		t.Errorf("contact: got %q", draft.ContactNo)
	}
	if draft.Source != "fb" {
		t.Errorf("source: got %q, want %q", draft.Source, "fb")
	}
	if draft.Category != "landed" {
		t.Errorf("category: got %q, want %q", draft.Category, "landed")
	}
	if draft.Name != "5551234567" {
		t.Errorf("name should fall back to the number, got %q", draft.Name)
	}
}

func TestParse_PhoneFormats(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"(555) 123-4567", "5551234567"},
		{"555.123.4567", "5551234567"},
		{"+1 555 123 4567", "15551234567"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			draft := Parse(tc.input, testVocab, anchor)
			if !draft.IsPhoneNumber {
				t.Fatal("expected IsPhoneNumber=true")
			}
			if draft.ContactNo != tc.want {
				t.Errorf("contact: got %q, want %q", draft.ContactNo, tc.want)
			}
		})
	}
}

func TestParse_WeekdayOffsets(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		input    string
		wantDate time.Time
	}{
		{
			name:     "friday said on a wednesday",
			now:      anchor,
			input:    "call Justin Friday",
			wantDate: time.Date(2026, time.January, 9, 10, 0, 0, 0, time.UTC),
		},
		{
			// 2026-01-09 is a Friday: same weekday means a full week out.
			name:     "friday said on a friday",
			now:      time.Date(2026, time.January, 9, 9, 0, 0, 0, time.UTC),
			input:    "call Justin Friday",
			wantDate: time.Date(2026, time.January, 16, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekend from a weekday",
			now:      anchor,
			input:    "showing weekend",
			wantDate: time.Date(2026, time.January, 10, 10, 0, 0, 0, time.UTC),
		},
		{
			// 2026-01-11 is a Sunday: already inside a weekend, jump to the next one.
			name:     "weekend said on a sunday",
			now:      time.Date(2026, time.January, 11, 9, 0, 0, 0, time.UTC),
			input:    "showing weekend",
			wantDate: time.Date(2026, time.January, 17, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "next week",
			now:      anchor,
			input:    "follow up next week",
			wantDate: time.Date(2026, time.January, 14, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "today keeps the date",
			now:      anchor,
			input:    "call Justin today 5pm",
			wantDate: time.Date(2026, time.January, 7, 17, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			draft := Parse(tc.input, testVocab, tc.now)
			if !draft.Date.Equal(tc.wantDate) {
				t.Errorf("date: got %v, want %v", draft.Date, tc.wantDate)
			}
		})
	}
}

func TestParse_CategoryTriggers(t *testing.T) {
	tests := []struct {
		input        string
		wantCategory string
	}{
		{"follow up with Maria", "Call"}, // "with" is a Call trigger and outranks "follow up with"
		{"send lease to Maria", "Send lease to"},
		{"Maria landed", "landed"},
		{"Maria nuh-uh", "Nuh-uh"},
		{"Maria viewing Saturday", DefaultCategory},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			draft := Parse(tc.input, testVocab, anchor)
			if draft.Category != tc.wantCategory {
				t.Errorf("category: got %q, want %q", draft.Category, tc.wantCategory)
			}
		})
	}
}

func TestParse_SourceAndLocation(t *testing.T) {
	draft := Parse("Maria from Roomies Austin tomorrow", testVocab, anchor)

	if draft.Source != "Roomies" {
		t.Errorf("source: got %q, want %q", draft.Source, "Roomies")
	}
	if draft.Location != "Austin" {
		t.Errorf("location: got %q, want %q", draft.Location, "Austin")
	}
	if draft.Name != "Maria from" {
		t.Errorf("name: got %q, want %q", draft.Name, "Maria from")
	}
}

func TestParse_EmptyishMessageFallsBack(t *testing.T) {
	msg := "tomorrow 8pm"
	draft := Parse(msg, testVocab, anchor)

	// Nothing survives extraction, so the raw message becomes the name.
	if draft.Name != msg {
		t.Errorf("name: got %q, want original message", draft.Name)
	}
	if draft.Category != DefaultCategory {
		t.Errorf("category: got %q, want default", draft.Category)
	}
}

func TestParse_DefaultsAreIndependent(t *testing.T) {
	// Day without time gets the default hour; time without day gets the offset.
	withDay := Parse("Maria tomorrow", testVocab, anchor)
	if withDay.Date.Hour() != 10 {
		t.Errorf("default hour: got %d, want 10", withDay.Date.Hour())
	}
	if withDay.Date.Day() != 8 {
		t.Errorf("day: got %d, want 8", withDay.Date.Day())
	}

	withTime := Parse("Maria 3pm", testVocab, anchor)
	if withTime.Date.Hour() != 15 {
		t.Errorf("hour: got %d, want 15", withTime.Date.Hour())
	}
	if withTime.Date.Day() != 9 {
		t.Errorf("default offset: got day %d, want 9", withTime.Date.Day())
	}
}

func ExampleParse() {
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	draft := Parse("call Justin tomorrow 8pm #fb", Vocabulary{Sources: []string{"fb"}}, now)
	fmt.Println(draft.Name, draft.Category, draft.Source, draft.Date.Format("Jan 2 15:04"))
	// Output: Justin Call fb Mar 3 20:00
}
