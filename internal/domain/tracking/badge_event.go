package tracking

import "time"

// BadgeEvent is append-only; replays of a period may add duplicate awards.
type BadgeEvent struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID       string    `gorm:"column:run_id;not null;index" json:"run_id"`
	Category    string    `gorm:"column:category;not null;index:idx_badge_event_category_period,priority:1" json:"category"`
	Badge       string    `gorm:"column:badge;not null;index" json:"badge"`
	PeriodStart string    `gorm:"column:period_start;type:varchar(10);not null;index:idx_badge_event_category_period,priority:2" json:"period_start"`
	PeriodEnd   string    `gorm:"column:period_end;type:varchar(10);not null" json:"period_end"`
	AwardedAt   time.Time `gorm:"column:awarded_at;not null;index" json:"awarded_at"`
	Reason      string    `gorm:"column:reason" json:"reason,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (BadgeEvent) TableName() string { return "badge_event" }
