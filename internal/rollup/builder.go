package rollup

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/rollup-backend/internal/rollup/calendar"
	"github.com/yungbote/rollup-backend/internal/rollup/scoring"
)

// Builder produces one WeeklyRollup per call. It holds no state besides the day-normalization zone,
// so a single instance can serve every category.
type Builder struct {
	loc *time.Location
}

// NewBuilder uses loc to turn event timestamps into calendar days; nil means UTC.
func NewBuilder(loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{loc: loc}
}

func (b *Builder) Location() *time.Location { return b.loc }

// Result is the built rollup plus the events that were left out of it.
type Result struct {
	Rollup  WeeklyRollup
	Dropped []*MissingDataWarning
}

type entry struct {
	day    string
	value  float64
	macros map[string]float64
}

// Build summarizes events for [periodStart, periodEnd]. Empty input yields a valid all-zero rollup;
// only malformed bounds fail.
func (b *Builder) Build(cat Category, events []Event, periodStart, periodEnd string) (Result, error) {
	dateRange, err := calendar.ListDateRange(periodStart, periodEnd)
	if err != nil {
		return Result{}, err
	}
	periodStart, periodEnd = dateRange[0], dateRange[len(dateRange)-1]
	cfg := cat.Scoring.WithDefaults()

	entries, dropped := b.normalize(cat, events, periodStart, periodEnd)
	counts := calendar.CountEntriesByDate(entries, func(e entry) string { return e.day })
	streak := calendar.CalculateCurrentStreak(dateRange, counts)
	perfect := cfg.HasPerfectWeekStreak(dateRange, counts)

	var (
		stats    Stats
		observed int
	)
	switch cat.Kind {
	case KindMeasurement:
		stats = measurementStats(entries, dateRange, counts)
		observed = stats.TotalEntries
	case KindMacro:
		stats = macroStats(entries, dateRange, counts, cat.MacroAttributes)
		observed = stats.UniqueDays
	default:
		return Result{}, fmt.Errorf("category %q: unsupported kind %q", cat.Name, cat.Kind)
	}
	stats.Dropped = len(dropped)

	scored := cfg.Evaluate(scoring.Input{
		TotalEntries: stats.TotalEntries,
		Avg:          stats.Avg,
		PerfectWeek:  perfect,
	})

	return Result{
		Rollup: WeeklyRollup{
			RunID:          RunID(cat.Name, periodStart, periodEnd),
			Category:       NormalizeCategory(cat.Name),
			PeriodStart:    periodStart,
			PeriodEnd:      periodEnd,
			Streak:         streak,
			CompletionRate: CompletionRate(observed, stats.Expected),
			Score:          scored.Score,
			Badges:         scored.Badges,
			Stats:          stats,
		},
		Dropped: dropped,
	}, nil
}

// BadgeEvents lists one audit row per badge on r.
func BadgeEvents(cat Category, r WeeklyRollup, awardedAt time.Time) []BadgeEvent {
	cfg := cat.Scoring.WithDefaults()
	out := make([]BadgeEvent, 0, len(r.Badges))
	for _, badge := range r.Badges {
		out = append(out, BadgeEvent{
			Category:    r.Category,
			Badge:       badge,
			PeriodStart: r.PeriodStart,
			PeriodEnd:   r.PeriodEnd,
			AwardedAt:   awardedAt.UTC(),
			Reason:      cfg.BadgeReason(badge),
		})
	}
	return out
}

func (b *Builder) normalize(cat Category, events []Event, start, end string) ([]entry, []*MissingDataWarning) {
	entries := make([]entry, 0, len(events))
	var dropped []*MissingDataWarning
	for i, ev := range events {
		day, ok := b.dayOf(ev)
		if !ok {
			dropped = append(dropped, &MissingDataWarning{Index: i, Reason: "missing or malformed date"})
			continue
		}
		if day < start || day > end {
			dropped = append(dropped, &MissingDataWarning{Index: i, Date: day, Reason: "outside period"})
			continue
		}
		e := entry{day: day}
		switch cat.Kind {
		case KindMeasurement:
			v, ok := parseNumber(ev.Value)
			if !ok {
				dropped = append(dropped, &MissingDataWarning{Index: i, Date: day, Reason: "missing or non-finite value"})
				continue
			}
			e.value = v
		case KindMacro:
			macros, ok := parseMacros(ev.Value, cat.MacroAttributes)
			if !ok {
				dropped = append(dropped, &MissingDataWarning{Index: i, Date: day, Reason: "value is not an attribute record"})
				continue
			}
			e.macros = macros
		}
		entries = append(entries, e)
	}
	return entries, dropped
}

func (b *Builder) dayOf(ev Event) (string, bool) {
	if d := strings.TrimSpace(ev.Date); d != "" {
		t, err := calendar.ParseDay(d)
		if err != nil {
			return "", false
		}
		return calendar.FormatDay(t), true
	}
	if ev.Timestamp != nil && !ev.Timestamp.IsZero() {
		return calendar.DayOf(*ev.Timestamp, b.loc), true
	}
	return "", false
}

// parseMacros keeps only the finite numeric attributes; a nil value is an entry whose enrichment has
// not landed yet and still counts.
func parseMacros(v any, tracked []string) (map[string]float64, bool) {
	if v == nil {
		return map[string]float64{}, true
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(raw))
	if len(tracked) == 0 {
		for k, val := range raw {
			if f, ok := parseNumber(val); ok {
				out[k] = f
			}
		}
		return out, true
	}
	for _, k := range tracked {
		if f, ok := parseNumber(raw[k]); ok {
			out[k] = f
		}
	}
	return out, true
}
