package tracking

import "time"

// TrackedEvent is a raw observation held by the event source. Date is set when the client logged a
// calendar day; otherwise OccurredAt is normalized at read time. IndexDay is a UTC-derived day used
// only to narrow range scans.
type TrackedEvent struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Category   string         `gorm:"column:category;not null;index:idx_tracked_event_category_day,priority:1" json:"category"`
	IndexDay   string         `gorm:"column:index_day;type:varchar(10);not null;index:idx_tracked_event_category_day,priority:2" json:"index_day"`
	Date       string         `gorm:"column:date;type:varchar(10)" json:"date,omitempty"`
	OccurredAt *time.Time     `gorm:"column:occurred_at" json:"occurred_at,omitempty"`
	Value      Payload        `gorm:"column:value" json:"value"`
	Source     string         `gorm:"column:source" json:"source,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (TrackedEvent) TableName() string { return "tracked_event" }
