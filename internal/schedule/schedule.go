// Package schedule holds the slot arithmetic shared by the lesson store:
// time normalization, the half-open overlap predicate and reschedule
// detection. Everything here is pure so it can be tested without a database.
package schedule

import (
	"strings"
	"time"
)

// HHMM truncates a time-of-day string to minute precision ("09:00:00" → "09:00").
// Normalized values compare correctly as strings.
func HHMM(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

// Day reduces a timestamp to its calendar day.
func Day(t time.Time) string {
	return t.Format("2006-01-02")
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Inputs must be minute-normalized; lessons never
// wrap past midnight.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return HHMM(aStart) < HHMM(bEnd) && HHMM(aEnd) > HHMM(bStart)
}

// Changed reports whether the merged schedule differs from the stored one.
// Dates compare as calendar days, times at minute precision, rooms trimmed.
func Changed(curDate, newDate time.Time, curStart, newStart, curEnd, newEnd, curRoom, newRoom string) bool {
	if Day(curDate) != Day(newDate) {
		return true
	}
	if HHMM(curStart) != HHMM(newStart) || HHMM(curEnd) != HHMM(newEnd) {
		return true
	}
	return strings.TrimSpace(curRoom) != strings.TrimSpace(newRoom)
}

// ValidSpan reports whether start and end form a well-ordered same-day span.
func ValidSpan(start, end string) bool {
	start, end = HHMM(start), HHMM(end)
	if len(start) != 5 || len(end) != 5 {
		return false
	}
	return start < end
}
