package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODate is the canonical date layout produced by NormalizeDate.
const ISODate = "2006-01-02"

var (
	canonicalDateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	canonicalTimeRE = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	inDaysRE = regexp.MustCompile(`^in\s+(\d{1,3})\s+days?$`)
	clockRE  = regexp.MustCompile(`^(\d{1,2})(?:[:.](\d{2}))?\s*(a\.m\.|p\.m\.|am|pm|a|p)?$`)
)

// absoluteDateLayouts are the accepted spellings of an explicit date.
var absoluteDateLayouts = []string{
	ISODate,
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
	"2 January 2006",
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// NormalizeDate converts a raw date expression to ISO form, resolving
// relative expressions against now. When the input cannot be parsed it
// returns the input unchanged and false so the caller can re-prompt
// instead of failing the turn.
func NormalizeDate(raw string, now time.Time) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return raw, false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch s {
	case "today":
		return today.Format(ISODate), true
	case "tomorrow":
		return today.AddDate(0, 0, 1).Format(ISODate), true
	case "day after tomorrow":
		return today.AddDate(0, 0, 2).Format(ISODate), true
	}

	if m := inDaysRE.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return today.AddDate(0, 0, n).Format(ISODate), true
		}
	}

	// "monday" or "next monday": the next future occurrence of that weekday.
	dayName := strings.TrimSpace(strings.TrimPrefix(s, "next "))
	if wd, ok := weekdays[dayName]; ok {
		offset := (int(wd) - int(today.Weekday()) + 7) % 7
		if offset == 0 {
			offset = 7
		}
		return today.AddDate(0, 0, offset).Format(ISODate), true
	}

	for _, layout := range absoluteDateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t.Format(ISODate), true
		}
	}

	return raw, false
}

// NormalizeTime converts a raw time expression to 24-hour HH:MM.
// A trailing am/pm marker resolves 12-hour input. Without a marker the
// value is read as a 24-hour clock when the hour is in range, except
// that hours 1-7 are taken as afternoon, matching how patients phrase
// times in practice. Unparseable input is returned unchanged with false.
func NormalizeTime(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return raw, false
	}

	switch s {
	case "noon", "midday":
		return "12:00", true
	case "midnight":
		return "00:00", true
	}

	if canonicalTimeRE.MatchString(s) {
		return s, true
	}

	m := clockRE.FindStringSubmatch(s)
	if m == nil {
		return raw, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return raw, false
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return raw, false
		}
	}

	switch normalizeMeridiem(m[3]) {
	case "am":
		if hour > 12 {
			return raw, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour > 12 {
			return raw, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		// No marker: bare 1-7 reads as afternoon, anything else as 24-hour.
		if hour >= 1 && hour <= 7 {
			hour += 12
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func normalizeMeridiem(s string) string {
	switch strings.TrimSpace(s) {
	case "a", "a.m.", "am":
		return "am"
	case "p", "p.m.", "pm":
		return "pm"
	}
	return ""
}

// IsCanonicalDate reports whether v is already an ISO date string.
func IsCanonicalDate(v string) bool {
	if !canonicalDateRE.MatchString(v) {
		return false
	}
	_, err := time.Parse(ISODate, v)
	return err == nil
}

// IsCanonicalTime reports whether v is already a 24-hour HH:MM string.
func IsCanonicalTime(v string) bool {
	return canonicalTimeRE.MatchString(v)
}
