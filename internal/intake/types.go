package intake

import "time"

// DefaultCategory is assigned when no category trigger or vocabulary word matches.
const DefaultCategory = "Follow up with"

// Vocabulary holds the externally configured word lists the parser matches
// against. The day/time/phone/category-trigger grammar itself is fixed.
type Vocabulary struct {
	Sources    []string
	Categories []string
	Locations  []string
}

// Policy is the fallback reminder slot used when a message carries no
// explicit time or day.
type Policy struct {
	Hour      int
	DayOffset int
}

// Draft is the best-effort structured lead extracted from one free-text
// message. Date is always populated, falling back to the default reminder
// policy when the message carries no day or time.
type Draft struct {
	Name          string
	ContactNo     string
	Date          time.Time
	Category      string
	Source        string
	Location      string
	IsPhoneNumber bool
}
