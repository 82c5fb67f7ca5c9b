package db

import (
	"fmt"

	"github.com/zulandar/studio/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model that has a table in the site database.
// DocType precedes DocField so the field foreign key has a target.
func AllModels() []interface{} {
	return []interface{}{
		&models.DocType{},
		&models.DocField{},
		&models.StudioPage{},
		&models.StudioPageWatcher{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
