// Package intake parses free-text lead messages ("call Justin tomorrow 8pm #fb")
// into structured lead drafts. Parsing is pure and never fails: missing pieces
// degrade to the default reminder policy.
package intake

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Default reminder policy applied when the message carries no time or day.
const (
	defaultHour      = 10
	defaultDayOffset = 2
)

var (
	timeRE     = regexp.MustCompile(`(?i)\b(1[0-2]|0?[1-9])(?::([0-5][0-9]))?\s*(am|pm)\b`)
	todayRE    = regexp.MustCompile(`(?i)\btoday\b`)
	tomorrowRE = regexp.MustCompile(`(?i)\b(?:tomorrow|tmrw|tmr)\b`)
	weekdayRE  = regexp.MustCompile(`(?i)\b(sunday|saturday|thursday|wednesday|tuesday|monday|friday|weekend|thurs|tues|thur|sun|sat|thu|wed|tue|mon|fri)\b`)
	nextWeekRE = regexp.MustCompile(`(?i)\bnext\s+week\b`)

	// Loose phone shape: optional country code, 3/3/4+ digit groups, flexible separators.
	phoneRE   = regexp.MustCompile(`(\+?\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4,}`)
	hashtagRE = regexp.MustCompile(`#([A-Za-z0-9_\-]+)`)
	digitsRE  = regexp.MustCompile(`\D`)

	// "(to) call (with) <name>" forces the Call category and names the lead.
	callNameRE = regexp.MustCompile(`(?i)\b(?:to\s+)?call\s+(?:with\s+)?([A-Za-z]+)`)

	// Leftover day/time fragments removed defensively before name extraction.
	residualRE = regexp.MustCompile(`(?i)\b(?:today|tomorrow|tmrw|tmr|weekend|next\s+week|sunday|saturday|thursday|wednesday|tuesday|monday|friday|thurs|tues|thur|sun|sat|thu|wed|tue|mon|fri|am|pm)\b`)
	spacesRE   = regexp.MustCompile(`\s+`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"thur":      time.Thursday,
	"thurs":     time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
}

// Ordered category trigger phrases; the first match wins and is consumed.
var categoryTriggers = []struct {
	re       *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`(?i)\b(?:call|with)\b`), "Call"},
	{regexp.MustCompile(`(?i)\bfollow\s+up\s+with\b`), "Follow up with"},
	{regexp.MustCompile(`(?i)\bsend\s+lease\s+to\b`), "Send lease to"},
	{regexp.MustCompile(`(?i)\blanded\b`), "landed"},
	{regexp.MustCompile(`(?i)\bnuh-uh\b`), "Nuh-uh"},
}

// Parse converts one free-text message into a lead draft using the standard
// reminder policy (10:00, two days out). Each grammar class (time, day, phone,
// category trigger, source, location) is tried at most once and its match is
// consumed from the working text so later steps cannot re-match the same
// tokens. now anchors all relative dates.
func Parse(message string, vocab Vocabulary, now time.Time) Draft {
	return ParseWithPolicy(message, vocab, now, Policy{Hour: defaultHour, DayOffset: defaultDayOffset})
}

// ParseWithPolicy is Parse with a custom default-reminder policy.
func ParseWithPolicy(message string, vocab Vocabulary, now time.Time, policy Policy) Draft {
	if policy.Hour <= 0 || policy.Hour > 23 {
		policy.Hour = defaultHour
	}
	if policy.DayOffset < 0 {
		policy.DayOffset = defaultDayOffset
	}
	working := strings.TrimSpace(message)
	date := now
	timeSpecified := false
	daySpecified := false

	// Time of day: H[:MM] am|pm, converted to a 24-hour clock.
	if loc := timeRE.FindStringSubmatchIndex(working); loc != nil {
		hour, _ := strconv.Atoi(working[loc[2]:loc[3]])
		minute := 0
		if loc[4] >= 0 {
			minute, _ = strconv.Atoi(working[loc[4]:loc[5]])
		}
		meridiem := strings.ToLower(working[loc[6]:loc[7]])
		if meridiem == "pm" && hour != 12 {
			hour += 12
		}
		if meridiem == "am" && hour == 12 {
			hour = 0
		}
		date = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
		working = cut(working, loc[0], loc[1])
		timeSpecified = true
	}

	// Target day, tried in priority order; the first match wins.
	if loc := todayRE.FindStringIndex(working); loc != nil {
		working = cut(working, loc[0], loc[1])
		daySpecified = true
	} else if loc := tomorrowRE.FindStringIndex(working); loc != nil {
		date = date.AddDate(0, 0, 1)
		working = cut(working, loc[0], loc[1])
		daySpecified = true
	} else if loc := weekdayRE.FindStringSubmatchIndex(working); loc != nil {
		token := strings.ToLower(working[loc[2]:loc[3]])
		date = date.AddDate(0, 0, weekdayOffset(token, date.Weekday()))
		working = cut(working, loc[0], loc[1])
		daySpecified = true
	} else if loc := nextWeekRE.FindStringIndex(working); loc != nil {
		date = date.AddDate(0, 0, 7)
		working = cut(working, loc[0], loc[1])
		daySpecified = true
	}

	// Defaults from the reminder policy when no time or day was given.
	if !timeSpecified {
		date = time.Date(date.Year(), date.Month(), date.Day(), policy.Hour, 0, 0, 0, date.Location())
	}
	if !daySpecified {
		date = date.AddDate(0, 0, policy.DayOffset)
	}

	// Strip leftover day/time fragments from partial matches.
	working = squeeze(residualRE.ReplaceAllString(working, " "))

	draft := Draft{
		Date:     date,
		Category: DefaultCategory,
	}

	// Contact-centric branch: a phone-shaped token makes the whole message
	// about the number; remaining words only qualify it.
	if loc := phoneRE.FindStringIndex(working); loc != nil {
		draft.IsPhoneNumber = true
		draft.ContactNo = digitsRE.ReplaceAllString(working[loc[0]:loc[1]], "")
		working = cut(working, loc[0], loc[1])
		working = scanVocabulary(working, vocab, &draft, true)
		draft.Name = strings.TrimSpace(working)
		if draft.Name == "" {
			draft.Name = draft.ContactNo
		}
		return draft
	}

	// Name/category branch.
	if loc := callNameRE.FindStringSubmatchIndex(working); loc != nil {
		draft.Name = working[loc[2]:loc[3]]
		draft.Category = "Call"
		working = cut(working, loc[0], loc[1])
	} else {
		for _, trigger := range categoryTriggers {
			if loc := trigger.re.FindStringIndex(working); loc != nil {
				draft.Category = trigger.category
				working = cut(working, loc[0], loc[1])
				break
			}
		}
	}

	working = scanVocabulary(working, vocab, &draft, false)
	if draft.Name == "" {
		draft.Name = strings.TrimSpace(working)
	}
	if draft.Name == "" {
		draft.Name = strings.TrimSpace(message)
	}
	return draft
}

// weekdayOffset returns the number of days from current to the requested
// weekday token. A zero offset is promoted to a full week ("Friday" said on a
// Friday means next Friday; "today" is its own token). "weekend" advances to
// the next Saturday and wraps to the following weekend when already inside one.
func weekdayOffset(token string, current time.Weekday) int {
	target := time.Saturday
	if token != "weekend" {
		target = weekdays[token]
	}
	offset := (int(target) - int(current) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return offset
}

// scanVocabulary consumes #hashtags and bare words that case-insensitively
// equal a configured source, category (contact-centric branch only), or
// location. The first hit of each kind wins; everything unmatched is
// returned for name extraction.
func scanVocabulary(working string, vocab Vocabulary, draft *Draft, withCategories bool) string {
	categoryMatched := false
	remaining := make([]string, 0, 8)
	for _, token := range strings.Fields(working) {
		word := token
		if m := hashtagRE.FindStringSubmatch(token); m != nil {
			word = m[1]
		}
		if draft.Source == "" {
			if hit, ok := lookupWord(word, vocab.Sources); ok {
				draft.Source = hit
				continue
			}
		}
		if withCategories && !categoryMatched {
			if hit, ok := lookupWord(word, vocab.Categories); ok {
				draft.Category = hit
				categoryMatched = true
				continue
			}
		}
		if draft.Location == "" {
			if hit, ok := lookupWord(word, vocab.Locations); ok {
				draft.Location = hit
				continue
			}
		}
		remaining = append(remaining, token)
	}
	return strings.Join(remaining, " ")
}

// lookupWord returns the canonical vocabulary entry equal to word, ignoring case.
func lookupWord(word string, entries []string) (string, bool) {
	word = strings.Trim(word, ".,!?:;")
	if word == "" {
		return "", false
	}
	for _, entry := range entries {
		if strings.EqualFold(word, entry) {
			return entry, true
		}
	}
	return "", false
}

func cut(s string, start, end int) string {
	return squeeze(s[:start] + " " + s[end:])
}

func squeeze(s string) string {
	return strings.TrimSpace(spacesRE.ReplaceAllString(s, " "))
}
