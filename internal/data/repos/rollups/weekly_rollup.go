package rollups

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/rollup-backend/internal/domain"
	"github.com/yungbote/rollup-backend/internal/platform/dbctx"
	"github.com/yungbote/rollup-backend/internal/platform/errs"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/rollup"
)

// RangeMode picks how QueryRange matches stored periods against the requested window.
type RangeMode int

const (
	// RangeOverlap matches rollups whose period intersects [start, end].
	RangeOverlap RangeMode = iota
	// RangeWithin matches rollups whose period lies inside [start, end].
	RangeWithin
)

// DeserializationWarning reports a stored JSON column that could not be decoded. The affected field
// falls back to its zero value; the row is still returned.
type DeserializationWarning struct {
	RunID  string
	Column string
	Err    error
}

func (w *DeserializationWarning) Error() string {
	return fmt.Sprintf("rollup %s: column %s: %v", w.RunID, w.Column, w.Err)
}

func (w *DeserializationWarning) Unwrap() error { return w.Err }

type WeeklyRollupRepo interface {
	Upsert(dbc dbctx.Context, r rollup.WeeklyRollup) error
	QueryRange(dbc dbctx.Context, category, start, end string, mode RangeMode) ([]rollup.WeeklyRollup, error)
	GetByRunID(dbc dbctx.Context, runID string) (*rollup.WeeklyRollup, error)
}

type weeklyRollupRepo struct {
	db     *gorm.DB
	log    *logger.Logger
	onWarn func(*DeserializationWarning)
}

// NewWeeklyRollupRepo builds the repo. onWarn, when set, is called for every corrupt column read.
func NewWeeklyRollupRepo(db *gorm.DB, baseLog *logger.Logger, onWarn func(*DeserializationWarning)) WeeklyRollupRepo {
	return &weeklyRollupRepo{
		db:     db,
		log:    baseLog.With("repo", "WeeklyRollupRepo"),
		onWarn: onWarn,
	}
}

func (r *weeklyRollupRepo) Upsert(dbc dbctx.Context, wr rollup.WeeklyRollup) error {
	row, err := toRow(wr)
	if err != nil {
		return err
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category"}, {Name: "period_start"}},
			DoUpdates: clause.AssignmentColumns(types.RollupUpsertColumns),
		}).
		Create(row).Error
}

func (r *weeklyRollupRepo) QueryRange(dbc dbctx.Context, category, start, end string, mode RangeMode) ([]rollup.WeeklyRollup, error) {
	q := dbc.DB(r.db).Where("category = ?", rollup.NormalizeCategory(category))
	switch mode {
	case RangeWithin:
		q = q.Where("period_start >= ? AND period_end <= ?", start, end)
	default:
		q = q.Where("period_start <= ? AND period_end >= ?", end, start)
	}
	var rows []*types.WeeklyRollup
	if err := q.Order("period_start ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]rollup.WeeklyRollup, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.fromRow(row))
	}
	return out, nil
}

func (r *weeklyRollupRepo) GetByRunID(dbc dbctx.Context, runID string) (*rollup.WeeklyRollup, error) {
	var row types.WeeklyRollup
	err := dbc.DB(r.db).Where("run_id = ?", runID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("rollup %s: %w", runID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	out := r.fromRow(&row)
	return &out, nil
}

func toRow(wr rollup.WeeklyRollup) (*types.WeeklyRollup, error) {
	badges := wr.Badges
	if badges == nil {
		badges = []string{}
	}
	badgesJSON, err := json.Marshal(badges)
	if err != nil {
		return nil, fmt.Errorf("encode badges: %w", err)
	}
	statsJSON, err := json.Marshal(wr.Stats)
	if err != nil {
		return nil, fmt.Errorf("encode stats: %w", err)
	}
	return &types.WeeklyRollup{
		RunID:          wr.RunID,
		Category:       rollup.NormalizeCategory(wr.Category),
		PeriodStart:    wr.PeriodStart,
		PeriodEnd:      wr.PeriodEnd,
		Streak:         wr.Streak,
		CompletionRate: wr.CompletionRate,
		Score:          wr.Score,
		Badges:         datatypes.JSON(badgesJSON),
		Stats:          datatypes.JSON(statsJSON),
	}, nil
}

func (r *weeklyRollupRepo) fromRow(row *types.WeeklyRollup) rollup.WeeklyRollup {
	out := rollup.WeeklyRollup{
		RunID:          row.RunID,
		Category:       row.Category,
		PeriodStart:    row.PeriodStart,
		PeriodEnd:      row.PeriodEnd,
		Streak:         row.Streak,
		CompletionRate: row.CompletionRate,
		Score:          row.Score,
		Badges:         []string{},
		Stats:          rollup.Stats{EntriesByDate: map[string]int{}},
	}
	if len(row.Badges) > 0 {
		var badges []string
		if err := json.Unmarshal(row.Badges, &badges); err != nil {
			r.warn(&DeserializationWarning{RunID: row.RunID, Column: "badges", Err: err})
		} else if badges != nil {
			out.Badges = badges
		}
	}
	if len(row.Stats) > 0 {
		var stats rollup.Stats
		if err := json.Unmarshal(row.Stats, &stats); err != nil {
			r.warn(&DeserializationWarning{RunID: row.RunID, Column: "stats", Err: err})
		} else {
			if stats.EntriesByDate == nil {
				stats.EntriesByDate = map[string]int{}
			}
			out.Stats = stats
		}
	}
	return out
}

func (r *weeklyRollupRepo) warn(w *DeserializationWarning) {
	r.log.Warn("Stored rollup payload unreadable, using defaults", "run_id", w.RunID, "column", w.Column, "error", w.Err)
	if r.onWarn != nil {
		r.onWarn(w)
	}
}
