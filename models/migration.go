package models

import (
	"github.com/mlovric/trosak/config"
)

// MigrateAll runs the gorm auto-migrations for every entity.
func MigrateAll() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&User{},
		&Category{},
		&Transaction{},
		&MonthHistory{},
		&YearHistory{},
		&UserSettings{},
		&DashboardLayout{},
		&ChatMessage{},
	)
}
