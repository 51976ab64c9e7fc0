package pipeline

import (
	"regexp"
	"strconv"
	"time"
)

// Layouts tried before falling back to the regex shapes. Covers the
// timestamp formats the supported tool exports actually emit.
var directLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	time.RFC1123,
}

var (
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	dashDateRe  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
)

// ParseFlexibleDate parses the date-like strings found in uploaded
// exports. Slash-delimited dates are read as MM/DD/YYYY; when the first
// component cannot be a month the two are swapped rather than rejected.
// The second return is false when no shape matched. Never panics.
func ParseFlexibleDate(input string) (time.Time, bool) {
	if input == "" {
		return time.Time{}, false
	}

	for _, layout := range directLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t, true
		}
	}

	if m := slashDateRe.FindStringSubmatch(input); m != nil {
		return makeDate(m[3], m[1], m[2])
	}
	if m := isoDateRe.FindStringSubmatch(input); m != nil {
		return makeDate(m[1], m[2], m[3])
	}
	if m := dashDateRe.FindStringSubmatch(input); m != nil {
		return makeDate(m[3], m[1], m[2])
	}

	return time.Time{}, false
}

func makeDate(year, month, day string) (time.Time, bool) {
	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)

	// MM/DD convention, with a swap when the month slot overflows.
	if mo > 12 && d <= 12 {
		mo, d = d, mo
	}
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those.
	if t.Day() != d || t.Month() != time.Month(mo) {
		return time.Time{}, false
	}
	return t, true
}

// InRange reports whether t lies within [start, end] inclusive. A nil
// bound is open on that side.
func InRange(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}
