// Package rollup turns per-period event snapshots into rollup records and defines the records shared by
// the monthly aggregator, the store and the HTTP layer.
package rollup

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/rollup-backend/internal/rollup/scoring"
)

// Kind selects the stats variant a category is summarized with.
type Kind string

const (
	// KindMeasurement summarizes one number per event (e.g. a blood-sugar reading).
	KindMeasurement Kind = "measurement"
	// KindMacro counts entries per day and sums macro attributes (e.g. a food log).
	KindMacro Kind = "macro"
)

func (k Kind) Valid() bool { return k == KindMeasurement || k == KindMacro }

// Category is one tracked stream and the configuration it is scored with.
type Category struct {
	Name            string         `json:"name" yaml:"name"`
	Kind            Kind           `json:"kind" yaml:"kind"`
	Scoring         scoring.Config `json:"scoring" yaml:"scoring"`
	MacroAttributes []string       `json:"macroAttributes,omitempty" yaml:"macroAttributes"`
}

// Event is one logged observation as handed over by the event source. Value is a number for
// measurements and a partial attribute map for macro categories; the engine only reads it.
type Event struct {
	Date      string     `json:"date,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Value     any        `json:"value,omitempty"`
}

type MacroSummary struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
	Avg   float64 `json:"avg"`
}

// Stats is the category-specific aggregate payload. Measurement rollups fill Avg/Min/Max, macro
// rollups fill the per-day distribution and MacroSummary.
type Stats struct {
	TotalEntries  int            `json:"totalEntries"`
	Expected      int            `json:"expected"`
	Missing       int            `json:"missing"`
	Dropped       int            `json:"dropped,omitempty"`
	EntriesByDate map[string]int `json:"entriesByDate"`

	Avg float64 `json:"avg,omitempty"`
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`

	UniqueDays       int                     `json:"uniqueDays,omitempty"`
	AvgEntriesPerDay float64                 `json:"avgEntriesPerDay,omitempty"`
	MinEntriesPerDay int                     `json:"minEntriesPerDay,omitempty"`
	MaxEntriesPerDay int                     `json:"maxEntriesPerDay,omitempty"`
	MacroSummary     map[string]MacroSummary `json:"macroSummary,omitempty"`
}

// WeeklyRollup is one summary row per (category, period). It is replaced wholesale on replay.
type WeeklyRollup struct {
	RunID          string   `json:"runId"`
	Category       string   `json:"category"`
	PeriodStart    string   `json:"periodStart"`
	PeriodEnd      string   `json:"periodEnd"`
	Streak         int      `json:"streak"`
	CompletionRate int      `json:"completionRate"`
	Score          int      `json:"score"`
	Badges         []string `json:"badges"`
	Stats          Stats    `json:"stats"`
}

// BadgeEvent is the append-only audit row written for each awarded badge. Replays may append duplicates.
type BadgeEvent struct {
	Category    string    `json:"category"`
	Badge       string    `json:"badge"`
	PeriodStart string    `json:"periodStart"`
	PeriodEnd   string    `json:"periodEnd"`
	AwardedAt   time.Time `json:"awardedAt"`
	Reason      string    `json:"reason,omitempty"`
}

// MonthlySummary is a derived view over the weekly rollups touching a month. It is never stored.
type MonthlySummary struct {
	Category        string   `json:"category"`
	PeriodStart     string   `json:"periodStart"`
	PeriodEnd       string   `json:"periodEnd"`
	Mode            string   `json:"mode"`
	Streak          int      `json:"streak"`
	CompletionRate  int      `json:"completionRate"`
	Score           int      `json:"score"`
	Badges          []string `json:"badges"`
	Stats           Stats    `json:"stats"`
	RollupsIncluded int      `json:"rollupsIncluded"`
	Message         string   `json:"message"`
}

// NormalizeCategory trims and lowercases a category tag.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// RunID is the idempotency key of a rollup: a pure function of category and period bounds.
func RunID(category, periodStart, periodEnd string) string {
	return fmt.Sprintf("%s-%s-%s", NormalizeCategory(category), periodStart, periodEnd)
}

// MissingDataWarning describes an event that was left out of aggregation.
type MissingDataWarning struct {
	Index  int
	Date   string
	Reason string
}

func (w *MissingDataWarning) Error() string {
	if w.Date == "" {
		return fmt.Sprintf("event %d dropped: %s", w.Index, w.Reason)
	}
	return fmt.Sprintf("event %d (%s) dropped: %s", w.Index, w.Date, w.Reason)
}
