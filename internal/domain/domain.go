package domain

import "github.com/yungbote/rollup-backend/internal/domain/tracking"

type WeeklyRollup = tracking.WeeklyRollup
type BadgeEvent = tracking.BadgeEvent
type TrackedEvent = tracking.TrackedEvent
type EventPayload = tracking.Payload

var RollupUpsertColumns = tracking.RollupUpsertColumns

// All lists every model owned by this service, in migration order.
func All() []any {
	return []any{
		&WeeklyRollup{},
		&BadgeEvent{},
		&TrackedEvent{},
	}
}
