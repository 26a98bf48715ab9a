package tracking

import (
	"time"

	"gorm.io/datatypes"
)

// WeeklyRollup is the stored form of a rollup. (category, period_start) is the upsert key; the
// surrogate ID never leaves the repo layer.
type WeeklyRollup struct {
	ID             uint64         `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID          string         `gorm:"column:run_id;not null;index" json:"run_id"`
	Category       string         `gorm:"column:category;not null;uniqueIndex:idx_weekly_rollup_category_start,priority:1" json:"category"`
	PeriodStart    string         `gorm:"column:period_start;type:varchar(10);not null;uniqueIndex:idx_weekly_rollup_category_start,priority:2" json:"period_start"`
	PeriodEnd      string         `gorm:"column:period_end;type:varchar(10);not null;index" json:"period_end"`
	Streak         int            `gorm:"column:streak;not null;default:0" json:"streak"`
	CompletionRate int            `gorm:"column:completion_rate;not null;default:0" json:"completion_rate"`
	Score          int            `gorm:"column:score;not null;default:0" json:"score"`
	Badges         datatypes.JSON `gorm:"column:badges;type:jsonb" json:"badges"`
	Stats          datatypes.JSON `gorm:"column:stats;type:jsonb" json:"stats"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WeeklyRollup) TableName() string { return "weekly_rollup" }

// RollupUpsertColumns are replaced wholesale when a period is rebuilt.
var RollupUpsertColumns = []string{
	"run_id",
	"period_end",
	"streak",
	"completion_rate",
	"score",
	"badges",
	"stats",
	"updated_at",
}
