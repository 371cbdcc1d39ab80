package utils

import (
	"fmt"
	"strings"
	"time"
)

// FormatPrettyTime renders t relative to now: "Today 15:04", "Yesterday 09:12",
// "Mar 3 10:00", or with the year when it differs.
func FormatPrettyTime(t, now time.Time) string {
	year, month, day := t.Date()
	nowYear, nowMonth, nowDay := now.Date()

	timePart := t.Format("15:04")

	if year == nowYear && month == nowMonth && day == nowDay {
		return fmt.Sprintf("Today %s", timePart)
	}

	yesterday := now.AddDate(0, 0, -1)
	if year == yesterday.Year() && month == yesterday.Month() && day == yesterday.Day() {
		return fmt.Sprintf("Yesterday %s", timePart)
	}

	if year == nowYear {
		return fmt.Sprintf("%s %d %s", t.Format("Jan"), day, timePart)
	}

	return fmt.Sprintf("%d %s %02d %s", year, t.Format("Jan"), day, timePart)
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatDay is the label used for day-change markers.
func FormatDay(t time.Time) string {
	return t.Format("Monday, 2 January 2006")
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
