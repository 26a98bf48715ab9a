// Package categories holds the set of tracked categories and their scoring configuration.
package categories

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/rollup-backend/internal/platform/errs"
	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/rollup/scoring"
)

const (
	Glucose = "glucose"
	Food    = "food"
)

// DefaultMacroAttributes are the food attributes summarized when no override names them.
var DefaultMacroAttributes = []string{"calories", "protein", "carbs", "fat"}

type Registry struct {
	byName map[string]rollup.Category
}

// Defaults returns glucose (two readings a day) and food (macro log).
func Defaults() *Registry {
	glucose := scoring.DefaultConfig()
	food := scoring.DefaultConfig()
	food.DoubleFrequency = false
	r, _ := New(
		rollup.Category{Name: Glucose, Kind: rollup.KindMeasurement, Scoring: glucose},
		rollup.Category{Name: Food, Kind: rollup.KindMacro, Scoring: food, MacroAttributes: append([]string(nil), DefaultMacroAttributes...)},
	)
	return r
}

func New(cats ...rollup.Category) (*Registry, error) {
	r := &Registry{byName: make(map[string]rollup.Category, len(cats))}
	for _, c := range cats {
		if err := r.put(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) put(c rollup.Category) error {
	c.Name = rollup.NormalizeCategory(c.Name)
	if c.Name == "" {
		return fmt.Errorf("category name required: %w", errs.ErrInvalidArgument)
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("category %q: unknown kind %q: %w", c.Name, c.Kind, errs.ErrInvalidArgument)
	}
	c.Scoring = c.Scoring.WithDefaults()
	r.byName[c.Name] = c
	return nil
}

// Get looks a category up by its normalized name.
func (r *Registry) Get(name string) (rollup.Category, error) {
	c, ok := r.byName[rollup.NormalizeCategory(name)]
	if !ok {
		return rollup.Category{}, fmt.Errorf("category %q: %w", name, errs.ErrUnknownCategory)
	}
	return c, nil
}

// Names lists every registered category in alphabetical order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

type fileCategory struct {
	Name            string         `yaml:"name"`
	Kind            rollup.Kind    `yaml:"kind"`
	DoubleFrequency *bool          `yaml:"doubleFrequency"`
	MacroAttributes []string       `yaml:"macroAttributes"`
	Scoring         scoring.Config `yaml:"scoring"`
}

type file struct {
	Categories []fileCategory `yaml:"categories"`
}

// Load starts from Defaults and applies the YAML file at path on top. A blank path returns the
// defaults. Entries naming a default category may omit kind; unset numbers keep their defaults.
func Load(path string) (*Registry, error) {
	r := Defaults()
	if strings.TrimSpace(path) == "" {
		return r, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category config: %w", err)
	}
	return r.apply(raw)
}

func (r *Registry) apply(raw []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse category config: %w", err)
	}
	for _, fc := range f.Categories {
		name := rollup.NormalizeCategory(fc.Name)
		base, known := r.byName[name]
		if !known {
			base = rollup.Category{Name: name, Kind: fc.Kind, Scoring: scoring.DefaultConfig()}
			base.Scoring.DoubleFrequency = fc.Kind == rollup.KindMeasurement
		}
		if fc.Kind != "" {
			base.Kind = fc.Kind
		}
		base.Scoring = mergeScoring(base.Scoring, fc.Scoring)
		if fc.DoubleFrequency != nil {
			base.Scoring.DoubleFrequency = *fc.DoubleFrequency
		}
		if fc.MacroAttributes != nil {
			base.MacroAttributes = fc.MacroAttributes
		}
		if err := r.put(base); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// mergeScoring overlays the positive numbers of o on base.
func mergeScoring(base, o scoring.Config) scoring.Config {
	if o.PointsPerEntry > 0 {
		base.PointsPerEntry = o.PointsPerEntry
	}
	if o.StreakBonus > 0 {
		base.StreakBonus = o.StreakBonus
	}
	if o.AvgBonus > 0 {
		base.AvgBonus = o.AvgBonus
	}
	if o.HealthyAvgThreshold > 0 {
		base.HealthyAvgThreshold = o.HealthyAvgThreshold
	}
	if o.WeeklyConsistencyMin > 0 {
		base.WeeklyConsistencyMin = o.WeeklyConsistencyMin
	}
	if o.DoubleFrequencyMin > 0 {
		base.DoubleFrequencyMin = o.DoubleFrequencyMin
	}
	if o.PerfectWeekMinDays > 0 {
		base.PerfectWeekMinDays = o.PerfectWeekMinDays
	}
	if o.PerfectDayMinEntries > 0 {
		base.PerfectDayMinEntries = o.PerfectDayMinEntries
	}
	return base
}
