package db

import (
	"fmt"

	types "github.com/yungbote/rollup-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
