package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ini272/open-flair-shiftplan/database"
	"github.com/ini272/open-flair-shiftplan/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createGroup(t *testing.T, db *gorm.DB, name string, members ...*models.User) *models.Group {
	t.Helper()

	group := models.Group{Name: name, IsActive: true}
	require.NoError(t, db.Create(&group).Error)
	for _, m := range members {
		require.NoError(t, db.Model(m).Update("group_id", group.ID).Error)
	}
	return &group
}

func createShift(t *testing.T, db *gorm.DB, title string, start, end time.Time, capacity *int) *models.Shift {
	t.Helper()

	shift := models.Shift{
		Title:     title,
		StartTime: start,
		EndTime:   end,
		Capacity:  capacity,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&shift).Error)
	return &shift
}

func intPtr(n int) *int { return &n }

// festival day used throughout the tests
var day = time.Date(2025, 8, 6, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}
