package monthly

import (
	"errors"
	"reflect"
	"testing"

	"github.com/yungbote/rollup-backend/internal/platform/errs"
	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/rollup/calendar"
	"github.com/yungbote/rollup-backend/internal/rollup/scoring"
)

var glucose = rollup.Category{Name: "glucose", Kind: rollup.KindMeasurement, Scoring: scoring.DefaultConfig()}
var food = rollup.Category{Name: "food", Kind: rollup.KindMacro, Scoring: scoring.DefaultConfig(), MacroAttributes: []string{"calories"}}

func week(start, end string, stats rollup.Stats, score int, badges ...string) rollup.WeeklyRollup {
	if badges == nil {
		badges = []string{}
	}
	return rollup.WeeklyRollup{
		RunID:       rollup.RunID("glucose", start, end),
		Category:    "glucose",
		PeriodStart: start,
		PeriodEnd:   end,
		Score:       score,
		Badges:      badges,
		Stats:       stats,
	}
}

func TestAggregateTakesMaxForOverlappingDays(t *testing.T) {
	a := week("2025-12-27", "2026-01-02", rollup.Stats{TotalEntries: 1, Avg: 90, Min: 90, Max: 90,
		EntriesByDate: map[string]int{"2026-01-02": 1}}, 12)
	b := week("2026-01-02", "2026-01-08", rollup.Stats{TotalEntries: 3, Avg: 100, Min: 95, Max: 104,
		EntriesByDate: map[string]int{"2026-01-02": 1, "2026-01-06": 2}}, 36)

	got, err := Aggregate(glucose, []rollup.WeeklyRollup{b, a}, "2026-01-01", "2026-01-31", ModeInclusive)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	want := map[string]int{"2026-01-02": 1, "2026-01-06": 2}
	if !reflect.DeepEqual(got.Stats.EntriesByDate, want) {
		t.Fatalf("entriesByDate: got=%v want=%v", got.Stats.EntriesByDate, want)
	}
	if got.Stats.TotalEntries != 3 {
		t.Fatalf("totalEntries: got=%d want=3", got.Stats.TotalEntries)
	}
	if got.Score != 48 || got.RollupsIncluded != 2 {
		t.Fatalf("score/included: got=%d/%d", got.Score, got.RollupsIncluded)
	}
	if got.Stats.Min != 90 || got.Stats.Max != 104 {
		t.Fatalf("min/max: got=%v/%v", got.Stats.Min, got.Stats.Max)
	}
	// (90*1 + 100*3) / 4
	if got.Stats.Avg != 97.5 {
		t.Fatalf("avg: got=%v want=97.5", got.Stats.Avg)
	}
}

func TestAggregateDropsDaysOutsideMonth(t *testing.T) {
	a := week("2025-12-29", "2026-01-04", rollup.Stats{TotalEntries: 4, Avg: 100, Min: 100, Max: 100,
		EntriesByDate: map[string]int{"2025-12-30": 2, "2026-01-03": 2}}, 48)
	got, err := Aggregate(glucose, []rollup.WeeklyRollup{a}, "2026-01-01", "2026-01-31", ModeInclusive)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !reflect.DeepEqual(got.Stats.EntriesByDate, map[string]int{"2026-01-03": 2}) || got.Stats.TotalEntries != 2 {
		t.Fatalf("entriesByDate: got=%v total=%d", got.Stats.EntriesByDate, got.Stats.TotalEntries)
	}
}

func TestAggregateWeightedAverage(t *testing.T) {
	a := week("2026-01-05", "2026-01-11", rollup.Stats{TotalEntries: 2, Avg: 90, Min: 85, Max: 95,
		EntriesByDate: map[string]int{"2026-01-05": 2}}, 24)
	b := week("2026-01-12", "2026-01-18", rollup.Stats{TotalEntries: 2, Avg: 110, Min: 100, Max: 120,
		EntriesByDate: map[string]int{"2026-01-12": 2}}, 24)
	empty := week("2026-01-19", "2026-01-25", rollup.Stats{EntriesByDate: map[string]int{}}, 0)

	got, err := Aggregate(glucose, []rollup.WeeklyRollup{a, b, empty}, "2026-01-01", "2026-01-31", ModeStrict)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got.Stats.Avg != 100 {
		t.Fatalf("avg: got=%v want=100", got.Stats.Avg)
	}
	if got.Stats.Min != 85 || got.Stats.Max != 120 {
		t.Fatalf("empty rollups must not affect min/max: got=%v/%v", got.Stats.Min, got.Stats.Max)
	}
	if got.RollupsIncluded != 3 {
		t.Fatalf("included: got=%d want=3", got.RollupsIncluded)
	}
}

func TestSelectStrictVersusInclusive(t *testing.T) {
	rows := []rollup.WeeklyRollup{
		week("2026-01-26", "2026-02-01", rollup.Stats{}, 0),
		week("2025-12-29", "2026-01-04", rollup.Stats{}, 0),
		week("2026-01-05", "2026-01-11", rollup.Stats{}, 0),
		week("2026-02-02", "2026-02-08", rollup.Stats{}, 0),
		week("2025-12-22", "2025-12-28", rollup.Stats{}, 0),
	}
	strict := Select(rows, "2026-01-01", "2026-01-31", ModeStrict)
	if len(strict) != 1 || strict[0].PeriodStart != "2026-01-05" {
		t.Fatalf("strict: got=%v", strict)
	}
	inclusive := Select(rows, "2026-01-01", "2026-01-31", ModeInclusive)
	var starts []string
	for _, r := range inclusive {
		starts = append(starts, r.PeriodStart)
	}
	if !reflect.DeepEqual(starts, []string{"2025-12-29", "2026-01-05", "2026-01-26"}) {
		t.Fatalf("inclusive: got=%v", starts)
	}
}

func TestAggregateRecomputesCompletionAndStreakForMonth(t *testing.T) {
	days, _ := calendar.ListDateRange("2026-02-01", "2026-02-28")
	counts := map[string]int{}
	for _, d := range days {
		counts[d] = 2
	}
	r := week("2026-02-01", "2026-02-28", rollup.Stats{TotalEntries: 56, Avg: 95, Min: 80, Max: 110, EntriesByDate: counts}, 800,
		scoring.BadgePerfectWeek, scoring.BadgeWeeklyConsistency)
	r2 := week("2026-02-22", "2026-02-28", rollup.Stats{TotalEntries: 14, Avg: 95, Min: 80, Max: 110, EntriesByDate: map[string]int{"2026-02-28": 2}}, 242,
		scoring.BadgeWeeklyConsistency, scoring.BadgeHealthyAverage)

	got, err := Aggregate(glucose, []rollup.WeeklyRollup{r, r2}, "2026-02-01", "2026-02-28", ModeStrict)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got.CompletionRate != 100 || got.Streak != 28 {
		t.Fatalf("completion/streak: got=%d/%d", got.CompletionRate, got.Streak)
	}
	if got.Stats.Expected != 56 || got.Stats.TotalEntries != 56 {
		t.Fatalf("expected/total: got=%d/%d", got.Stats.Expected, got.Stats.TotalEntries)
	}
	wantBadges := []string{scoring.BadgePerfectWeek, scoring.BadgeWeeklyConsistency, scoring.BadgeHealthyAverage}
	if !reflect.DeepEqual(got.Badges, wantBadges) {
		t.Fatalf("badges: got=%v want=%v", got.Badges, wantBadges)
	}
	if got.Message != scoring.MessageExcellent {
		t.Fatalf("message: got=%q", got.Message)
	}
}

func TestAggregateMacroMergesSummaries(t *testing.T) {
	a := rollup.WeeklyRollup{Category: "food", PeriodStart: "2026-03-02", PeriodEnd: "2026-03-08", Score: 24,
		Stats: rollup.Stats{TotalEntries: 2, EntriesByDate: map[string]int{"2026-03-02": 2},
			MacroSummary: map[string]rollup.MacroSummary{"calories": {Count: 2, Total: 900, Avg: 450}}}}
	b := rollup.WeeklyRollup{Category: "food", PeriodStart: "2026-03-09", PeriodEnd: "2026-03-15", Score: 12,
		Stats: rollup.Stats{TotalEntries: 1, EntriesByDate: map[string]int{"2026-03-10": 1},
			MacroSummary: map[string]rollup.MacroSummary{"calories": {Count: 1, Total: 600, Avg: 600}, "fat": {Count: 1, Total: 7, Avg: 7}}}}
	other := week("2026-03-09", "2026-03-15", rollup.Stats{TotalEntries: 9, EntriesByDate: map[string]int{"2026-03-11": 9}}, 500)

	got, err := Aggregate(food, []rollup.WeeklyRollup{a, b, other}, "2026-03-01", "2026-03-31", ModeStrict)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got.RollupsIncluded != 2 || got.Score != 36 {
		t.Fatalf("other categories must be ignored: included=%d score=%d", got.RollupsIncluded, got.Score)
	}
	if got.Stats.MacroSummary["calories"] != (rollup.MacroSummary{Count: 3, Total: 1500, Avg: 500}) {
		t.Fatalf("calories: got=%+v", got.Stats.MacroSummary["calories"])
	}
	if got.Stats.MacroSummary["fat"] != (rollup.MacroSummary{Count: 1, Total: 7, Avg: 7}) {
		t.Fatalf("fat: got=%+v", got.Stats.MacroSummary["fat"])
	}
	if got.Stats.UniqueDays != 2 || got.Stats.Expected != 31 || got.CompletionRate != 6 {
		t.Fatalf("macro completion: unique=%d expected=%d rate=%d", got.Stats.UniqueDays, got.Stats.Expected, got.CompletionRate)
	}
	if got.Stats.MaxEntriesPerDay != 2 || got.Stats.MinEntriesPerDay != 0 {
		t.Fatalf("per-day: got min=%d max=%d", got.Stats.MinEntriesPerDay, got.Stats.MaxEntriesPerDay)
	}
}

func TestAggregateNoRollups(t *testing.T) {
	got, err := Aggregate(glucose, nil, "2026-04-01", "2026-04-30", ModeInclusive)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got.RollupsIncluded != 0 || got.Score != 0 || got.Stats.TotalEntries != 0 || len(got.Badges) != 0 {
		t.Fatalf("empty month: got=%+v", got)
	}
	if got.Message != scoring.MessageDefault {
		t.Fatalf("message: got=%q", got.Message)
	}
}

func TestAggregateRejectsInvertedMonth(t *testing.T) {
	_, err := Aggregate(glucose, nil, "2026-04-30", "2026-04-01", ModeInclusive)
	var rangeErr *calendar.InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("want InvalidRangeError, got=%v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeInclusive {
		t.Fatalf("ParseMode(blank): got=%v err=%v", m, err)
	}
	if m, err := ParseMode("STRICT"); err != nil || m != ModeStrict {
		t.Fatalf("ParseMode(STRICT): got=%v err=%v", m, err)
	}
	if _, err := ParseMode("loose"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("ParseMode(loose): want ErrInvalidArgument, got=%v", err)
	}
}
