package rollups

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/rollup-backend/internal/data/repos/testutil"
	types "github.com/yungbote/rollup-backend/internal/domain"
	"github.com/yungbote/rollup-backend/internal/platform/dbctx"
	"github.com/yungbote/rollup-backend/internal/platform/errs"
	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/rollup/scoring"
	"gorm.io/datatypes"
)

func sample(start, end string, score int) rollup.WeeklyRollup {
	return rollup.WeeklyRollup{
		RunID:          rollup.RunID("glucose", start, end),
		Category:       "glucose",
		PeriodStart:    start,
		PeriodEnd:      end,
		Streak:         3,
		CompletionRate: 43,
		Score:          score,
		Badges:         []string{scoring.BadgeHealthyAverage},
		Stats: rollup.Stats{
			TotalEntries:  6,
			Expected:      14,
			Missing:       8,
			EntriesByDate: map[string]int{start: 2, end: 4},
			Avg:           97.5,
			Min:           80,
			Max:           110,
		},
	}
}

func TestWeeklyRollupRepoUpsertRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	repo := NewWeeklyRollupRepo(db, testutil.Logger(t), nil)
	dbc := dbctx.Context{Ctx: context.Background()}

	in := sample("2026-01-01", "2026-01-07", 72)
	if err := repo.Upsert(dbc, in); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := repo.GetByRunID(dbc, in.RunID)
	if err != nil {
		t.Fatalf("GetByRunID: %v", err)
	}
	if !reflect.DeepEqual(*got, in) {
		t.Fatalf("round trip: got=%+v want=%+v", *got, in)
	}

	listed, err := repo.QueryRange(dbc, in.Category, in.PeriodStart, in.PeriodEnd, RangeOverlap)
	if err != nil {
		t.Fatalf("QueryRange: %v", err)
	}
	if len(listed) != 1 || !reflect.DeepEqual(listed[0], in) {
		t.Fatalf("range round trip: got=%+v want=[%+v]", listed, in)
	}
}

func TestWeeklyRollupRepoUpsertIsIdempotentAndLastWriteWins(t *testing.T) {
	db := testutil.DB(t)
	repo := NewWeeklyRollupRepo(db, testutil.Logger(t), nil)
	dbc := dbctx.Context{Ctx: context.Background()}

	first := sample("2026-01-01", "2026-01-07", 72)
	for i := 0; i < 2; i++ {
		if err := repo.Upsert(dbc, first); err != nil {
			t.Fatalf("Upsert #%d: %v", i, err)
		}
	}
	replaced := sample("2026-01-01", "2026-01-07", 242)
	replaced.Badges = []string{scoring.BadgePerfectWeek}
	replaced.Stats = rollup.Stats{TotalEntries: 14, Expected: 14, EntriesByDate: map[string]int{"2026-01-07": 14}}
	if err := repo.Upsert(dbc, replaced); err != nil {
		t.Fatalf("Upsert replaced: %v", err)
	}

	var count int64
	if err := db.Model(&types.WeeklyRollup{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows: got=%d want=1", count)
	}
	got, err := repo.GetByRunID(dbc, replaced.RunID)
	if err != nil {
		t.Fatalf("GetByRunID: %v", err)
	}
	if !reflect.DeepEqual(*got, replaced) {
		t.Fatalf("last write: got=%+v want=%+v", *got, replaced)
	}
}

func TestWeeklyRollupRepoQueryRange(t *testing.T) {
	db := testutil.DB(t)
	repo := NewWeeklyRollupRepo(db, testutil.Logger(t), nil)
	dbc := dbctx.Context{Ctx: context.Background()}

	for _, r := range []rollup.WeeklyRollup{
		sample("2026-02-02", "2026-02-08", 1),
		sample("2025-12-29", "2026-01-04", 2),
		sample("2026-01-26", "2026-02-01", 3),
		sample("2026-01-05", "2026-01-11", 4),
	} {
		if err := repo.Upsert(dbc, r); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	other := sample("2026-01-05", "2026-01-11", 9)
	other.Category = "food"
	other.RunID = rollup.RunID("food", other.PeriodStart, other.PeriodEnd)
	if err := repo.Upsert(dbc, other); err != nil {
		t.Fatalf("Upsert food: %v", err)
	}

	starts := func(rows []rollup.WeeklyRollup) []string {
		out := []string{}
		for _, r := range rows {
			out = append(out, r.PeriodStart)
		}
		return out
	}

	overlap, err := repo.QueryRange(dbc, "Glucose", "2026-01-01", "2026-01-31", RangeOverlap)
	if err != nil {
		t.Fatalf("QueryRange overlap: %v", err)
	}
	if want := []string{"2025-12-29", "2026-01-05", "2026-01-26"}; !reflect.DeepEqual(starts(overlap), want) {
		t.Fatalf("overlap: got=%v want=%v", starts(overlap), want)
	}

	within, err := repo.QueryRange(dbc, "glucose", "2026-01-01", "2026-01-31", RangeWithin)
	if err != nil {
		t.Fatalf("QueryRange within: %v", err)
	}
	if want := []string{"2026-01-05"}; !reflect.DeepEqual(starts(within), want) {
		t.Fatalf("within: got=%v want=%v", starts(within), want)
	}

	none, err := repo.QueryRange(dbc, "glucose", "2027-01-01", "2027-01-31", RangeOverlap)
	if err != nil || len(none) != 0 {
		t.Fatalf("empty range: got=%v err=%v", none, err)
	}
}

func TestWeeklyRollupRepoCorruptPayloadFallsBackToDefaults(t *testing.T) {
	db := testutil.DB(t)
	var warnings []*DeserializationWarning
	repo := NewWeeklyRollupRepo(db, testutil.Logger(t), func(w *DeserializationWarning) {
		warnings = append(warnings, w)
	})
	dbc := dbctx.Context{Ctx: context.Background()}

	row := &types.WeeklyRollup{
		RunID:       "glucose-2026-01-01-2026-01-07",
		Category:    "glucose",
		PeriodStart: "2026-01-01",
		PeriodEnd:   "2026-01-07",
		Score:       50,
		Badges:      datatypes.JSON([]byte(`{"not":"a list"}`)),
		Stats:       datatypes.JSON([]byte(`{"totalEntries":"many"`)),
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := repo.QueryRange(dbc, "glucose", "2026-01-01", "2026-01-07", RangeOverlap)
	if err != nil {
		t.Fatalf("QueryRange: %v", err)
	}
	if len(got) != 1 || got[0].Score != 50 {
		t.Fatalf("row must still be returned: got=%+v", got)
	}
	if got[0].Badges == nil || len(got[0].Badges) != 0 || got[0].Stats.TotalEntries != 0 || got[0].Stats.EntriesByDate == nil {
		t.Fatalf("defaults: got=%+v", got[0])
	}
	if len(warnings) != 2 || warnings[0].Column != "badges" || warnings[1].Column != "stats" {
		t.Fatalf("warnings: got=%v", warnings)
	}
}

func TestWeeklyRollupRepoGetByRunIDNotFound(t *testing.T) {
	repo := NewWeeklyRollupRepo(testutil.DB(t), testutil.Logger(t), nil)
	_, err := repo.GetByRunID(dbctx.Context{Ctx: context.Background()}, "glucose-2026-01-01-2026-01-07")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got=%v", err)
	}
}

func TestBadgeEventRepoAppendKeepsDuplicates(t *testing.T) {
	db := testutil.DB(t)
	repo := NewBadgeEventRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	awarded := time.Date(2026, 1, 8, 3, 0, 0, 0, time.UTC)
	events := []rollup.BadgeEvent{
		{Category: "glucose", Badge: scoring.BadgePerfectWeek, PeriodStart: "2026-01-01", PeriodEnd: "2026-01-07", AwardedAt: awarded, Reason: "r1"},
		{Category: "glucose", Badge: scoring.BadgeHealthyAverage, PeriodStart: "2026-01-01", PeriodEnd: "2026-01-07", AwardedAt: awarded, Reason: "r2"},
	}
	for i := 0; i < 2; i++ {
		n, err := repo.Append(dbc, "glucose-2026-01-01-2026-01-07", events)
		if err != nil || n != 2 {
			t.Fatalf("Append #%d: n=%d err=%v", i, n, err)
		}
	}
	if n, err := repo.Append(dbc, "x", nil); err != nil || n != 0 {
		t.Fatalf("Append(empty): n=%d err=%v", n, err)
	}

	got, err := repo.ListByPeriod(dbc, "glucose", "2026-01-01")
	if err != nil {
		t.Fatalf("ListByPeriod: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("append-only: got=%d want=4", len(got))
	}
	if got[0].Badge != scoring.BadgePerfectWeek || !got[0].AwardedAt.Equal(awarded) {
		t.Fatalf("first event: got=%+v", got[0])
	}
}
