// Package eventsource defines how the rollup service obtains the events of a period.
package eventsource

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/rollup/calendar"
)

// Source returns every event of category whose calendar day falls in [start, end]. Paging and retries
// are the implementation's concern.
type Source interface {
	Fetch(ctx context.Context, category, start, end string) ([]rollup.Event, error)
}

// Static serves a fixed set of events per category. The CLI uses it for dry runs from a file.
// Timestamp-only events are placed on calendar days in Location (nil means UTC).
type Static struct {
	Events   map[string][]rollup.Event
	Location *time.Location
}

// Fetch keeps the events dated inside [start, end]. Events without a usable day are passed through so
// the builder reports them as dropped.
func (s Static) Fetch(_ context.Context, category, start, end string) ([]rollup.Event, error) {
	if _, _, err := calendar.ParseRange(start, end); err != nil {
		return nil, err
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	var out []rollup.Event
	for _, ev := range s.Events[rollup.NormalizeCategory(category)] {
		day, ok := dayOf(ev, loc)
		if ok && (day < start || day > end) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func dayOf(ev rollup.Event, loc *time.Location) (string, bool) {
	if d := strings.TrimSpace(ev.Date); d != "" {
		t, err := calendar.ParseDay(d)
		if err != nil {
			return "", false
		}
		return calendar.FormatDay(t), true
	}
	if ev.Timestamp != nil && !ev.Timestamp.IsZero() {
		return calendar.DayOf(*ev.Timestamp, loc), true
	}
	return "", false
}
