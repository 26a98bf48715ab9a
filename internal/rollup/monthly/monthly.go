// Package monthly folds stored weekly rollups into a month-level summary.
package monthly

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/rollup-backend/internal/platform/errs"
	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/rollup/calendar"
	"github.com/yungbote/rollup-backend/internal/rollup/scoring"
)

// Mode decides which weekly rollups take part in a month.
type Mode string

const (
	// ModeStrict keeps rollups whose period lies entirely inside the month.
	ModeStrict Mode = "strict"
	// ModeInclusive keeps every rollup whose period touches the month.
	ModeInclusive Mode = "inclusive"
)

// ParseMode defaults to inclusive, since weekly periods rarely align with month bounds.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeInclusive:
		return ModeInclusive, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("mode %q: %w", raw, errs.ErrInvalidArgument)
	}
}

// Select filters rollups by mode and returns them ordered by period start.
func Select(rollups []rollup.WeeklyRollup, monthStart, monthEnd string, mode Mode) []rollup.WeeklyRollup {
	out := make([]rollup.WeeklyRollup, 0, len(rollups))
	for _, r := range rollups {
		var keep bool
		switch mode {
		case ModeStrict:
			keep = r.PeriodStart >= monthStart && r.PeriodEnd <= monthEnd
		default:
			keep = r.PeriodStart <= monthEnd && r.PeriodEnd >= monthStart
		}
		if keep {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PeriodStart < out[j].PeriodStart })
	return out
}

// Aggregate merges the weekly rollups of one category into a summary for [monthStart, monthEnd].
// Per-day counts from overlapping rollups are merged with max, never summed; completion and streak
// are recomputed against the month itself.
func Aggregate(cat rollup.Category, rollups []rollup.WeeklyRollup, monthStart, monthEnd string, mode Mode) (rollup.MonthlySummary, error) {
	dateRange, err := calendar.ListDateRange(monthStart, monthEnd)
	if err != nil {
		return rollup.MonthlySummary{}, err
	}
	monthStart, monthEnd = dateRange[0], dateRange[len(dateRange)-1]
	category := rollup.NormalizeCategory(cat.Name)

	sameCategory := make([]rollup.WeeklyRollup, 0, len(rollups))
	for _, r := range rollups {
		if rollup.NormalizeCategory(r.Category) == category {
			sameCategory = append(sameCategory, r)
		}
	}
	included := Select(sameCategory, monthStart, monthEnd, mode)

	entriesByDate := map[string]int{}
	var (
		score     int
		badges    []string
		seenBadge = map[string]bool{}
		avgs      []float64
		weights   []int
		macros    []map[string]rollup.MacroSummary
		dropped   int
		minVal    float64
		maxVal    float64
		haveRange bool
	)
	for _, r := range included {
		for day, n := range r.Stats.EntriesByDate {
			if day < monthStart || day > monthEnd {
				continue
			}
			if n > entriesByDate[day] {
				entriesByDate[day] = n
			}
		}
		score += r.Score
		for _, b := range r.Badges {
			if !seenBadge[b] {
				seenBadge[b] = true
				badges = append(badges, b)
			}
		}
		dropped += r.Stats.Dropped
		if len(r.Stats.MacroSummary) > 0 {
			macros = append(macros, r.Stats.MacroSummary)
		}
		if r.Stats.TotalEntries <= 0 {
			continue
		}
		avgs = append(avgs, r.Stats.Avg)
		weights = append(weights, r.Stats.TotalEntries)
		if !haveRange {
			minVal, maxVal = r.Stats.Min, r.Stats.Max
			haveRange = true
			continue
		}
		minVal = min(minVal, r.Stats.Min)
		maxVal = max(maxVal, r.Stats.Max)
	}
	if badges == nil {
		badges = []string{}
	}

	stats := rollup.Stats{
		EntriesByDate: entriesByDate,
		Dropped:       dropped,
	}
	for _, n := range entriesByDate {
		stats.TotalEntries += n
	}

	var observed int
	switch cat.Kind {
	case rollup.KindMacro:
		rollup.ApplyDayDistribution(&stats, dateRange)
		stats.MacroSummary = rollup.MergeMacroSummaries(macros...)
		observed = stats.UniqueDays
	case rollup.KindMeasurement:
		stats.Expected = len(dateRange) * rollup.MeasurementsPerDay
		stats.Missing = max(0, stats.Expected-stats.TotalEntries)
		stats.Avg = rollup.WeightedAverage(avgs, weights)
		stats.Min, stats.Max = minVal, maxVal
		observed = stats.TotalEntries
	default:
		return rollup.MonthlySummary{}, fmt.Errorf("category %q: unsupported kind %q", cat.Name, cat.Kind)
	}

	completion := rollup.CompletionRate(observed, stats.Expected)
	streak := calendar.CalculateCurrentStreak(dateRange, entriesByDate)

	return rollup.MonthlySummary{
		Category:        category,
		PeriodStart:     monthStart,
		PeriodEnd:       monthEnd,
		Mode:            string(mode),
		Streak:          streak,
		CompletionRate:  completion,
		Score:           score,
		Badges:          badges,
		Stats:           stats,
		RollupsIncluded: len(included),
		Message:         scoring.EncouragementMessage(completion, streak),
	}, nil
}
