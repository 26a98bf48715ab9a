package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/rollup-backend/internal/domain"
	"github.com/yungbote/rollup-backend/internal/platform/dbctx"
	"github.com/yungbote/rollup-backend/internal/platform/errs"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/rollup/calendar"
)

type TrackedEventRepo interface {
	Insert(dbc dbctx.Context, category, source string, events []rollup.Event) (int, error)
	ListWindow(dbc dbctx.Context, category, start, end string) ([]rollup.Event, error)
	// Fetch satisfies eventsource.Source.
	Fetch(ctx context.Context, category, start, end string) ([]rollup.Event, error)
}

type trackedEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
	loc *time.Location
}

// NewTrackedEventRepo reads calendar days of timestamp-only events in loc (nil means UTC).
func NewTrackedEventRepo(db *gorm.DB, baseLog *logger.Logger, loc *time.Location) TrackedEventRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &trackedEventRepo{
		db:  db,
		log: baseLog.With("repo", "TrackedEventRepo"),
		loc: loc,
	}
}

// Insert stores raw events. Each event needs a valid date or a timestamp; values are kept as JSON.
func (r *trackedEventRepo) Insert(dbc dbctx.Context, category, source string, in []rollup.Event) (int, error) {
	category = rollup.NormalizeCategory(category)
	if category == "" {
		return 0, fmt.Errorf("category required: %w", errs.ErrInvalidArgument)
	}
	if len(in) == 0 {
		return 0, nil
	}
	rows := make([]*types.TrackedEvent, 0, len(in))
	for i, ev := range in {
		row := &types.TrackedEvent{Category: category, Source: strings.TrimSpace(source)}
		switch {
		case strings.TrimSpace(ev.Date) != "":
			t, err := calendar.ParseDay(ev.Date)
			if err != nil {
				return 0, fmt.Errorf("event %d: malformed date %q: %w", i, ev.Date, errs.ErrInvalidArgument)
			}
			row.Date = calendar.FormatDay(t)
			row.IndexDay = row.Date
		case ev.Timestamp != nil && !ev.Timestamp.IsZero():
			ts := ev.Timestamp.UTC()
			row.OccurredAt = &ts
			row.IndexDay = calendar.DayOf(ts, time.UTC)
		default:
			return 0, fmt.Errorf("event %d: date or timestamp required: %w", i, errs.ErrInvalidArgument)
		}
		if ev.Value != nil {
			raw, err := json.Marshal(ev.Value)
			if err != nil {
				return 0, fmt.Errorf("event %d: encode value: %w", i, errs.ErrInvalidArgument)
			}
			row.Value = types.EventPayload(raw)
		}
		rows = append(rows, row)
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ListWindow returns the events whose calendar day, in the repo's zone, lies in [start, end]. The
// index scan is widened by a day on each side because IndexDay is UTC-derived.
func (r *trackedEventRepo) ListWindow(dbc dbctx.Context, category, start, end string) ([]rollup.Event, error) {
	if _, _, err := calendar.ParseRange(start, end); err != nil {
		return nil, err
	}
	lo, _ := calendar.AddDays(start, -1)
	hi, _ := calendar.AddDays(end, 1)

	var rows []*types.TrackedEvent
	err := dbc.DB(r.db).
		Where("category = ? AND index_day >= ? AND index_day <= ?", rollup.NormalizeCategory(category), lo, hi).
		Order("index_day ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]rollup.Event, 0, len(rows))
	for _, row := range rows {
		ev := rollup.Event{Date: row.Date, Timestamp: row.OccurredAt}
		day := row.Date
		if day == "" && row.OccurredAt != nil {
			day = calendar.DayOf(*row.OccurredAt, r.loc)
		}
		if day < start || day > end {
			continue
		}
		if len(row.Value) > 0 {
			v, err := decodeValue(row.Value)
			if err != nil {
				r.log.Warn("Unreadable event value", "event_id", row.ID, "error", err)
			} else {
				ev.Value = v
			}
		}
		out = append(out, ev)
	}
	return out, nil
}

func (r *trackedEventRepo) Fetch(ctx context.Context, category, start, end string) ([]rollup.Event, error) {
	return r.ListWindow(dbctx.Context{Ctx: ctx}, category, start, end)
}

// decodeValue keeps numbers as json.Number so integers and decimals survive unchanged.
func decodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
