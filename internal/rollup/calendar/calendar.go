// Package calendar holds the day-sequence and streak primitives shared by the rollup builders and the
// monthly aggregator. Days are Gregorian calendar dates rendered as YYYY-MM-DD strings.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

// InvalidRangeError reports malformed or inverted day bounds. It is never corrected silently.
type InvalidRangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range [%s, %s]: %s", e.Start, e.End, e.Reason)
}

// ParseDay parses a YYYY-MM-DD string as midnight UTC.
func ParseDay(day string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, strings.TrimSpace(day), time.UTC)
}

// FormatDay renders t's calendar date (in t's own location) as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// DayOf normalizes an instant to the calendar day observed in loc. A nil loc means UTC.
func DayOf(ts time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return FormatDay(ts.In(loc))
}

// LoadLocation resolves an IANA zone name; blank means UTC.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utc") {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// ParseRange validates both bounds and their order.
func ParseRange(start, end string) (time.Time, time.Time, error) {
	s, err := ParseDay(start)
	if err != nil {
		return time.Time{}, time.Time{}, &InvalidRangeError{Start: start, End: end, Reason: "malformed start"}
	}
	e, err := ParseDay(end)
	if err != nil {
		return time.Time{}, time.Time{}, &InvalidRangeError{Start: start, End: end, Reason: "malformed end"}
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, &InvalidRangeError{Start: start, End: end, Reason: "end precedes start"}
	}
	return s, e, nil
}

// ListDateRange returns every day from start to end, both inclusive. An inverted or malformed
// range fails with *InvalidRangeError rather than yielding an empty sequence.
func ListDateRange(start, end string) ([]string, error) {
	s, e, err := ParseRange(start, end)
	if err != nil {
		return nil, err
	}
	n := int(e.Sub(s).Hours()/24) + 1
	out := make([]string, 0, n)
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		out = append(out, FormatDay(d))
	}
	return out, nil
}

// DaysBetweenInclusive is len(ListDateRange(start, end)).
func DaysBetweenInclusive(start, end string) (int, error) {
	s, e, err := ParseRange(start, end)
	if err != nil {
		return 0, err
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

// AddDays shifts a day string by n days.
func AddDays(day string, n int) (string, error) {
	d, err := ParseDay(day)
	if err != nil {
		return "", &InvalidRangeError{Start: day, End: day, Reason: "malformed day"}
	}
	return FormatDay(d.AddDate(0, 0, n)), nil
}

// CountEntriesByDate counts items per day. Days without items are absent; callers default to zero.
func CountEntriesByDate[E any](items []E, dayOf func(E) string) map[string]int {
	counts := make(map[string]int)
	for _, it := range items {
		day := dayOf(it)
		if day == "" {
			continue
		}
		counts[day]++
	}
	return counts
}

// CalculateCurrentStreak counts consecutive days with a positive count, walking back from the last
// day of dateRange. It is a trailing streak, not a historical maximum.
func CalculateCurrentStreak(dateRange []string, counts map[string]int) int {
	streak := 0
	for i := len(dateRange) - 1; i >= 0; i-- {
		if counts[dateRange[i]] <= 0 {
			break
		}
		streak++
	}
	return streak
}

// MonthBounds returns the first and last day of a YYYY-MM month.
func MonthBounds(month string) (string, string, error) {
	m, err := time.ParseInLocation("2006-01", strings.TrimSpace(month), time.UTC)
	if err != nil {
		return "", "", &InvalidRangeError{Start: month, End: month, Reason: "malformed month"}
	}
	last := m.AddDate(0, 1, -1)
	return FormatDay(m), FormatDay(last), nil
}
