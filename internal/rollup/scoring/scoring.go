package scoring

import "math"

// Badge identifiers, listed in display order.
const (
	BadgeWeeklyConsistency = "weekly_consistency"
	BadgeDoubleFrequency   = "double_frequency"
	BadgePerfectWeek       = "perfect_week"
	BadgeHealthyAverage    = "healthy_average"
)

// Config carries the thresholds and multipliers for one category. Numeric thresholds are product
// configuration, not clinical guidance.
type Config struct {
	PointsPerEntry       int     `json:"pointsPerEntry" yaml:"pointsPerEntry"`
	StreakBonus          float64 `json:"streakBonus" yaml:"streakBonus"`
	AvgBonus             float64 `json:"avgBonus" yaml:"avgBonus"`
	HealthyAvgThreshold  float64 `json:"healthyAvgThreshold" yaml:"healthyAvgThreshold"`
	WeeklyConsistencyMin int     `json:"weeklyConsistencyMin" yaml:"weeklyConsistencyMin"`
	DoubleFrequencyMin   int     `json:"doubleFrequencyMin" yaml:"doubleFrequencyMin"`
	PerfectWeekMinDays   int     `json:"perfectWeekMinDays" yaml:"perfectWeekMinDays"`
	PerfectDayMinEntries int     `json:"perfectDayMinEntries" yaml:"perfectDayMinEntries"`
	// DoubleFrequency enables the double-frequency badge; it only makes sense for 2x/day categories.
	DoubleFrequency bool `json:"doubleFrequency" yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		PointsPerEntry:       12,
		StreakBonus:          1.2,
		AvgBonus:             1.2,
		HealthyAvgThreshold:  100,
		WeeklyConsistencyMin: 7,
		DoubleFrequencyMin:   14,
		PerfectWeekMinDays:   7,
		PerfectDayMinEntries: 2,
		DoubleFrequency:      true,
	}
}

// WithDefaults fills every zero numeric field from DefaultConfig. DoubleFrequency is left as is.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.PointsPerEntry <= 0 {
		c.PointsPerEntry = d.PointsPerEntry
	}
	if c.StreakBonus <= 0 {
		c.StreakBonus = d.StreakBonus
	}
	if c.AvgBonus <= 0 {
		c.AvgBonus = d.AvgBonus
	}
	if c.HealthyAvgThreshold <= 0 {
		c.HealthyAvgThreshold = d.HealthyAvgThreshold
	}
	if c.WeeklyConsistencyMin <= 0 {
		c.WeeklyConsistencyMin = d.WeeklyConsistencyMin
	}
	if c.DoubleFrequencyMin <= 0 {
		c.DoubleFrequencyMin = d.DoubleFrequencyMin
	}
	if c.PerfectWeekMinDays <= 0 {
		c.PerfectWeekMinDays = d.PerfectWeekMinDays
	}
	if c.PerfectDayMinEntries <= 0 {
		c.PerfectDayMinEntries = d.PerfectDayMinEntries
	}
	return c
}

// Input is what the rollup builders hand to the scoring engine.
type Input struct {
	TotalEntries int
	Avg          float64
	PerfectWeek  bool
}

type Result struct {
	Badges []string
	Score  int
}

func (c Config) Evaluate(in Input) Result {
	return Result{
		Badges: c.Badges(in),
		Score:  c.CalculateXP(in.TotalEntries, in.Avg, in.PerfectWeek),
	}
}

// HasPerfectWeekStreak requires at least PerfectWeekMinDays days in range and every one of them
// reaching PerfectDayMinEntries.
func (c Config) HasPerfectWeekStreak(dateRange []string, counts map[string]int) bool {
	if len(dateRange) < c.PerfectWeekMinDays {
		return false
	}
	for _, day := range dateRange {
		if counts[day] < c.PerfectDayMinEntries {
			return false
		}
	}
	return true
}

func (c Config) healthyAverage(avg float64) bool {
	return avg > 0 && avg < c.HealthyAvgThreshold
}

// Badges evaluates every threshold independently and returns the qualifying badges in display order.
func (c Config) Badges(in Input) []string {
	out := []string{}
	if in.TotalEntries >= c.WeeklyConsistencyMin {
		out = append(out, BadgeWeeklyConsistency)
	}
	if c.DoubleFrequency && in.TotalEntries >= c.DoubleFrequencyMin {
		out = append(out, BadgeDoubleFrequency)
	}
	if in.PerfectWeek {
		out = append(out, BadgePerfectWeek)
	}
	if c.healthyAverage(in.Avg) {
		out = append(out, BadgeHealthyAverage)
	}
	return out
}

// CalculateXP is round(totalEntries*pointsPerEntry*streakBonus*avgBonus); bonuses compound and a
// zero base always scores zero.
func (c Config) CalculateXP(totalEntries int, avg float64, perfectWeek bool) int {
	base := float64(totalEntries * c.PointsPerEntry)
	if base <= 0 {
		return 0
	}
	streak := 1.0
	if perfectWeek {
		streak = c.StreakBonus
	}
	avgMult := 1.0
	if c.healthyAverage(avg) {
		avgMult = c.AvgBonus
	}
	return int(math.Round(base * streak * avgMult))
}

// BadgeReason is the human-readable justification stored on badge audit rows.
func (c Config) BadgeReason(badge string) string {
	switch badge {
	case BadgeWeeklyConsistency:
		return "logged at least the weekly minimum of entries"
	case BadgeDoubleFrequency:
		return "logged twice the weekly minimum of entries"
	case BadgePerfectWeek:
		return "hit the daily target on every day of the period"
	case BadgeHealthyAverage:
		return "period average stayed below the configured threshold"
	default:
		return ""
	}
}
