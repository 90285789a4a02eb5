// Package timeexpr turns spoken time phrases into instants.
package timeexpr

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var (
	clockRe  = regexp.MustCompile(`\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?`)
	offsetRe = regexp.MustCompile(`\bin\s+(\d+|an?)\s+(minutes?|mins?|hours?|hrs?|days?)\b`)
)

// Parse resolves text relative to now. It tries, in order: an absolute
// timestamp, "today"/"tomorrow" with an optional "at" clock (09:00 when
// absent), "in N minutes|hours|days", and finally now plus one hour.
func Parse(text string, now time.Time) time.Time {
	raw := strings.TrimSpace(text)
	s := strings.ToLower(raw)

	// Utterances arrive lower-cased, so "t"/"z" in a timestamp are retried upper-cased.
	for _, candidate := range []string{raw, strings.ToUpper(raw)} {
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, candidate, now.Location()); err == nil {
				return t
			}
		}
	}

	if t, ok := parseDay(s, now); ok {
		return t
	}

	if t, ok := parseOffset(s, now); ok {
		return t
	}

	return now.Add(time.Hour)
}

func parseDay(s string, now time.Time) (time.Time, bool) {
	var days int
	switch {
	case strings.Contains(s, "tomorrow"):
		days = 1
	case strings.Contains(s, "today"):
		days = 0
	default:
		return time.Time{}, false
	}

	hour, minute := 9, 0
	if h, m, ok := parseClock(s); ok {
		hour, minute = h, m
	}

	y, mo, d := now.Date()
	return time.Date(y, mo, d+days, hour, minute, 0, 0, now.Location()), true
}

// parseClock folds a 12-hour reading into 24-hour form: 12pm is 12,
// 1pm is 13, 12am is 0. A bare hour means minute zero.
func parseClock(s string) (int, int, bool) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}

	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return 0, 0, false
		}
	}

	switch strings.ReplaceAll(m[3], ".", "") {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func parseOffset(s string, now time.Time) (time.Time, bool) {
	m := offsetRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	n := 1
	if m[1] != "a" && m[1] != "an" {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		n = v
	}

	unit := 24 * time.Hour
	switch {
	case strings.HasPrefix(m[2], "min"):
		unit = time.Minute
	case strings.HasPrefix(m[2], "h"):
		unit = time.Hour
	}

	// Offsets that do not fit a Duration would wrap into the past.
	if int64(n) > math.MaxInt64/int64(unit) {
		return time.Time{}, false
	}
	if unit == 24*time.Hour {
		return now.AddDate(0, 0, n), true
	}
	return now.Add(time.Duration(n) * unit), true
}
