package rollup

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/rollup-backend/internal/rollup/calendar"
	"github.com/yungbote/rollup-backend/internal/rollup/scoring"
)

func glucose() Category {
	return Category{Name: "Glucose", Kind: KindMeasurement, Scoring: scoring.DefaultConfig()}
}

func food() Category {
	cfg := scoring.DefaultConfig()
	cfg.DoubleFrequency = false
	return Category{Name: "food", Kind: KindMacro, Scoring: cfg, MacroAttributes: []string{"calories", "protein"}}
}

func TestBuildMeasurementFullWeek(t *testing.T) {
	days, _ := calendar.ListDateRange("2026-01-01", "2026-01-07")
	var events []Event
	for _, d := range days {
		events = append(events, Event{Date: d, Value: 90.0}, Event{Date: d, Value: 100.0})
	}

	res, err := NewBuilder(nil).Build(glucose(), events, "2026-01-01", "2026-01-07")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := res.Rollup
	if r.RunID != "glucose-2026-01-01-2026-01-07" || r.Category != "glucose" {
		t.Fatalf("identity: got runId=%s category=%s", r.RunID, r.Category)
	}
	if r.Stats.TotalEntries != 14 || r.Stats.Expected != 14 || r.Stats.Missing != 0 {
		t.Fatalf("counts: got=%+v", r.Stats)
	}
	if r.Stats.Avg != 95 || r.Stats.Min != 90 || r.Stats.Max != 100 {
		t.Fatalf("avg/min/max: got=%v/%v/%v", r.Stats.Avg, r.Stats.Min, r.Stats.Max)
	}
	if r.Streak != 7 || r.CompletionRate != 100 {
		t.Fatalf("streak/completion: got=%d/%d", r.Streak, r.CompletionRate)
	}
	if r.Score != 242 {
		t.Fatalf("score: got=%d want=242", r.Score)
	}
	want := []string{scoring.BadgeWeeklyConsistency, scoring.BadgeDoubleFrequency, scoring.BadgePerfectWeek, scoring.BadgeHealthyAverage}
	if !reflect.DeepEqual(r.Badges, want) {
		t.Fatalf("badges: got=%v want=%v", r.Badges, want)
	}
	if len(res.Dropped) != 0 {
		t.Fatalf("dropped: got=%v", res.Dropped)
	}
}

func TestBuildEmptyEventsIsValidZeroRollup(t *testing.T) {
	for _, cat := range []Category{glucose(), food()} {
		res, err := NewBuilder(nil).Build(cat, nil, "2026-01-01", "2026-01-07")
		if err != nil {
			t.Fatalf("%s: Build: %v", cat.Name, err)
		}
		r := res.Rollup
		if r.Score != 0 || r.Streak != 0 || r.CompletionRate != 0 || len(r.Badges) != 0 {
			t.Fatalf("%s: want zero rollup, got=%+v", cat.Name, r)
		}
		if r.Stats.TotalEntries != 0 || r.Stats.Avg != 0 || r.Stats.Min != 0 || r.Stats.Max != 0 {
			t.Fatalf("%s: want zero stats, got=%+v", cat.Name, r.Stats)
		}
		if r.Badges == nil {
			t.Fatalf("%s: badges must be an empty set, not nil", cat.Name)
		}
	}
}

func TestBuildRejectsInvertedPeriod(t *testing.T) {
	_, err := NewBuilder(nil).Build(glucose(), nil, "2026-01-07", "2026-01-01")
	var rangeErr *calendar.InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("Build(inverted): want InvalidRangeError, got=%v", err)
	}
}

func TestBuildDropsUnusableMeasurements(t *testing.T) {
	ts := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Date: "2026-01-02", Value: 80.0},
		{Date: "2026-01-02", Value: "120"},
		{Date: "2026-01-02", Value: math.NaN()},
		{Date: "2026-01-02", Value: math.Inf(1)},
		{Date: "2026-01-02", Value: "high"},
		{Date: "2026-01-02"},
		{Value: 100.0},
		{Date: "2026-02-30", Value: 100.0},
		{Date: "2026-01-09", Value: 100.0},
		{Timestamp: &ts, Value: 100.0},
	}
	res, err := NewBuilder(nil).Build(glucose(), events, "2026-01-01", "2026-01-07")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := res.Rollup.Stats
	if s.TotalEntries != 3 || s.Avg != 100 || s.Min != 80 || s.Max != 120 {
		t.Fatalf("stats: got=%+v", s)
	}
	if len(res.Dropped) != 7 || s.Dropped != 7 {
		t.Fatalf("dropped: got=%d stats=%d want=7", len(res.Dropped), s.Dropped)
	}
	if !reflect.DeepEqual(s.EntriesByDate, map[string]int{"2026-01-02": 2, "2026-01-03": 1}) {
		t.Fatalf("entriesByDate: got=%v", s.EntriesByDate)
	}
	if s.Expected != 14 || s.Missing != 11 {
		t.Fatalf("expected/missing: got=%d/%d", s.Expected, s.Missing)
	}
	if res.Rollup.CompletionRate != 21 {
		t.Fatalf("completion: got=%d want=21", res.Rollup.CompletionRate)
	}
}

func TestBuildNormalizesTimestampsWithConfiguredZone(t *testing.T) {
	ny, err := calendar.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Late-evening reading on Jan 7 local time, already Jan 8 in UTC.
	ts := time.Date(2026, 1, 8, 3, 0, 0, 0, time.UTC)
	events := []Event{{Timestamp: &ts, Value: 110.0}}

	utcRes, _ := NewBuilder(nil).Build(glucose(), events, "2026-01-01", "2026-01-07")
	if utcRes.Rollup.Stats.TotalEntries != 0 || len(utcRes.Dropped) != 1 {
		t.Fatalf("UTC: want the reading outside the period, got=%+v", utcRes.Rollup.Stats)
	}
	nyRes, _ := NewBuilder(ny).Build(glucose(), events, "2026-01-01", "2026-01-07")
	if nyRes.Rollup.Stats.EntriesByDate["2026-01-07"] != 1 || nyRes.Rollup.Streak != 1 {
		t.Fatalf("NY: want the reading on 2026-01-07, got=%+v", nyRes.Rollup.Stats)
	}
}

func TestBuildMeasurementAvgRoundsToOneDecimal(t *testing.T) {
	events := []Event{
		{Date: "2026-01-01", Value: 100.0},
		{Date: "2026-01-01", Value: 101.0},
		{Date: "2026-01-01", Value: 101.0},
	}
	res, err := NewBuilder(nil).Build(glucose(), events, "2026-01-01", "2026-01-01")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Rollup.Stats.Avg != 100.7 {
		t.Fatalf("avg: got=%v want=100.7", res.Rollup.Stats.Avg)
	}
	if res.Rollup.CompletionRate != 100 {
		t.Fatalf("completion must clamp at 100, got=%d", res.Rollup.CompletionRate)
	}
}

func TestBuildMacroSummary(t *testing.T) {
	events := []Event{
		{Date: "2026-01-01", Value: map[string]any{"calories": 500.0, "protein": 20.0}},
		{Date: "2026-01-01", Value: map[string]any{"calories": "250", "protein": "n/a"}},
		{Date: "2026-01-02", Value: map[string]any{"calories": math.Inf(1), "protein": 10.0, "sugar": 4.0}},
		{Date: "2026-01-04"},
		{Date: "2026-01-04", Value: "toast"},
	}
	res, err := NewBuilder(nil).Build(food(), events, "2026-01-01", "2026-01-04")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := res.Rollup.Stats
	if s.TotalEntries != 4 || s.UniqueDays != 3 || s.Expected != 4 || s.Missing != 1 {
		t.Fatalf("counts: got=%+v", s)
	}
	if s.AvgEntriesPerDay != 1 || s.MinEntriesPerDay != 0 || s.MaxEntriesPerDay != 2 {
		t.Fatalf("per-day: got avg=%v min=%d max=%d", s.AvgEntriesPerDay, s.MinEntriesPerDay, s.MaxEntriesPerDay)
	}
	wantMacros := map[string]MacroSummary{
		"calories": {Count: 2, Total: 750, Avg: 375},
		"protein":  {Count: 2, Total: 30, Avg: 15},
	}
	if !reflect.DeepEqual(s.MacroSummary, wantMacros) {
		t.Fatalf("macroSummary: got=%+v want=%+v", s.MacroSummary, wantMacros)
	}
	if res.Rollup.CompletionRate != 75 {
		t.Fatalf("completion uses unique days: got=%d want=75", res.Rollup.CompletionRate)
	}
	if res.Rollup.Streak != 1 {
		t.Fatalf("streak: got=%d want=1", res.Rollup.Streak)
	}
	if len(res.Dropped) != 1 || s.Dropped != 1 {
		t.Fatalf("dropped: got=%v", res.Dropped)
	}
	if s.Avg != 0 {
		t.Fatalf("macro rollups carry no measurement avg, got=%v", s.Avg)
	}
}

func TestBuildMacroNoDoubleFrequencyBadge(t *testing.T) {
	var events []Event
	days, _ := calendar.ListDateRange("2026-01-01", "2026-01-07")
	for _, d := range days {
		events = append(events, Event{Date: d}, Event{Date: d})
	}
	res, err := NewBuilder(nil).Build(food(), events, "2026-01-01", "2026-01-07")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{scoring.BadgeWeeklyConsistency, scoring.BadgePerfectWeek}
	if !reflect.DeepEqual(res.Rollup.Badges, want) {
		t.Fatalf("badges: got=%v want=%v", res.Rollup.Badges, want)
	}
	// 14 entries * 12 points * 1.2 perfect-week bonus.
	if res.Rollup.Score != 202 {
		t.Fatalf("score: got=%d want=202", res.Rollup.Score)
	}
}

func TestRunIDIsPureFunctionOfBounds(t *testing.T) {
	a := RunID(" Glucose ", "2026-01-01", "2026-01-07")
	b := RunID("glucose", "2026-01-01", "2026-01-07")
	if a != b || a != "glucose-2026-01-01-2026-01-07" {
		t.Fatalf("RunID: got=%q/%q", a, b)
	}
	if RunID("glucose", "2026-01-01", "2026-01-08") == b {
		t.Fatalf("RunID must change with the period end")
	}
}

func TestBadgeEventsOnePerBadge(t *testing.T) {
	now := time.Date(2026, 1, 8, 3, 0, 0, 0, time.UTC)
	r := WeeklyRollup{Category: "glucose", PeriodStart: "2026-01-01", PeriodEnd: "2026-01-07", Badges: []string{scoring.BadgePerfectWeek, scoring.BadgeHealthyAverage}}
	got := BadgeEvents(glucose(), r, now)
	if len(got) != 2 || got[0].Badge != scoring.BadgePerfectWeek || got[1].Reason == "" || !got[0].AwardedAt.Equal(now) {
		t.Fatalf("BadgeEvents: got=%+v", got)
	}
}

func TestWeightedAverageSkipsEmptyRollups(t *testing.T) {
	if got := WeightedAverage([]float64{90, 110, 500}, []int{2, 2, 0}); got != 100 {
		t.Fatalf("WeightedAverage: got=%v want=100", got)
	}
	if got := WeightedAverage(nil, nil); got != 0 {
		t.Fatalf("WeightedAverage(empty): got=%v want=0", got)
	}
}
