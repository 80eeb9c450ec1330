package database

import (
	"github.com/ini272/open-flair-shiftplan/config"
	"github.com/ini272/open-flair-shiftplan/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect() error {
	cfg := config.GetConfig()

	var err error
	DB, err = gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	return Migrate(DB)
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Admin{},
		&models.AccessToken{},
		&models.User{},
		&models.Group{},
		&models.Shift{},
		&models.ShiftUserOptOut{},
		&models.ShiftGroupOptOut{},
		&models.ShiftPreference{},
		&models.AuditLog{},
	)
}

func IsSetupComplete() bool {
	var count int64
	DB.Model(&models.Admin{}).Count(&count)
	return count > 0
}
