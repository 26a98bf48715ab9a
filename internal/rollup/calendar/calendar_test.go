package calendar

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestListDateRangeInclusive(t *testing.T) {
	got, err := ListDateRange("2026-01-01", "2026-01-03")
	if err != nil {
		t.Fatalf("ListDateRange: %v", err)
	}
	want := []string{"2026-01-01", "2026-01-02", "2026-01-03"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListDateRange: got=%v want=%v", got, want)
	}
}

func TestListDateRangeSingleDayAndMonthBoundary(t *testing.T) {
	got, err := ListDateRange("2026-02-27", "2026-03-02")
	if err != nil {
		t.Fatalf("ListDateRange: %v", err)
	}
	want := []string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListDateRange: got=%v want=%v", got, want)
	}
	one, err := ListDateRange("2026-05-05", "2026-05-05")
	if err != nil || len(one) != 1 {
		t.Fatalf("single day: got=%v err=%v", one, err)
	}
}

func TestListDateRangeRejectsInvertedAndMalformed(t *testing.T) {
	for _, tc := range [][2]string{
		{"2026-01-03", "2026-01-01"},
		{"2026-13-01", "2026-12-31"},
		{"2026-01-01", "tomorrow"},
	} {
		got, err := ListDateRange(tc[0], tc[1])
		var rangeErr *InvalidRangeError
		if !errors.As(err, &rangeErr) {
			t.Fatalf("ListDateRange(%s,%s): want InvalidRangeError, got=%v err=%v", tc[0], tc[1], got, err)
		}
		if got != nil {
			t.Fatalf("ListDateRange(%s,%s): want nil slice, got=%v", tc[0], tc[1], got)
		}
	}
}

func TestDaysBetweenInclusiveMatchesListLength(t *testing.T) {
	ranges := [][2]string{
		{"2026-01-01", "2026-01-01"},
		{"2026-01-01", "2026-01-07"},
		{"2024-02-01", "2024-03-01"},
		{"2025-12-28", "2026-01-04"},
		{"2026-03-01", "2026-11-30"},
	}
	for _, r := range ranges {
		days, err := ListDateRange(r[0], r[1])
		if err != nil {
			t.Fatalf("ListDateRange(%v): %v", r, err)
		}
		n, err := DaysBetweenInclusive(r[0], r[1])
		if err != nil {
			t.Fatalf("DaysBetweenInclusive(%v): %v", r, err)
		}
		if n != len(days) {
			t.Fatalf("DaysBetweenInclusive(%v): got=%d want=%d", r, n, len(days))
		}
	}
	if _, err := DaysBetweenInclusive("2026-01-02", "2026-01-01"); err == nil {
		t.Fatalf("DaysBetweenInclusive(inverted): want error")
	}
}

func TestCountEntriesByDateOmitsEmptyDays(t *testing.T) {
	days := []string{"2026-01-02", "2026-01-02", "", "2026-01-04"}
	counts := CountEntriesByDate(days, func(d string) string { return d })
	want := map[string]int{"2026-01-02": 2, "2026-01-04": 1}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("CountEntriesByDate: got=%v want=%v", counts, want)
	}
	if _, ok := counts["2026-01-03"]; ok {
		t.Fatalf("CountEntriesByDate: zero days must be absent")
	}
}

func TestCalculateCurrentStreak(t *testing.T) {
	cases := []struct {
		name   string
		days   []string
		counts map[string]int
		want   int
	}{
		{
			name:   "stops before absent first day",
			days:   []string{"01", "02", "03", "04"},
			counts: map[string]int{"02": 1, "03": 2, "04": 1},
			want:   3,
		},
		{
			name:   "breaks on gap",
			days:   []string{"01", "02", "03"},
			counts: map[string]int{"01": 1, "03": 1},
			want:   1,
		},
		{
			name:   "last day empty",
			days:   []string{"01", "02", "03"},
			counts: map[string]int{"01": 1, "02": 1},
			want:   0,
		},
		{
			name:   "full range",
			days:   []string{"01", "02"},
			counts: map[string]int{"01": 4, "02": 1},
			want:   2,
		},
		{
			name: "empty range",
			want: 0,
		},
	}
	for _, tc := range cases {
		if got := CalculateCurrentStreak(tc.days, tc.counts); got != tc.want {
			t.Fatalf("%s: got=%d want=%d", tc.name, got, tc.want)
		}
	}
}

func TestDayOfUsesConfiguredZone(t *testing.T) {
	// 23:30 in New York on Jan 5 is already Jan 6 in UTC.
	ny, err := LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	ts := time.Date(2026, 1, 6, 4, 30, 0, 0, time.UTC)
	if got := DayOf(ts, nil); got != "2026-01-06" {
		t.Fatalf("DayOf(UTC): got=%s want=2026-01-06", got)
	}
	if got := DayOf(ts, ny); got != "2026-01-05" {
		t.Fatalf("DayOf(NY): got=%s want=2026-01-05", got)
	}
	utc, err := LoadLocation("")
	if err != nil || utc != time.UTC {
		t.Fatalf("LoadLocation(blank): got=%v err=%v", utc, err)
	}
}

func TestMonthBoundsAndAddDays(t *testing.T) {
	start, end, err := MonthBounds("2024-02")
	if err != nil || start != "2024-02-01" || end != "2024-02-29" {
		t.Fatalf("MonthBounds(2024-02): got=(%s,%s) err=%v", start, end, err)
	}
	if _, _, err := MonthBounds("2024-2-1"); err == nil {
		t.Fatalf("MonthBounds(malformed): want error")
	}
	got, err := AddDays("2026-01-01", -7)
	if err != nil || got != "2025-12-25" {
		t.Fatalf("AddDays: got=%s err=%v", got, err)
	}
}
