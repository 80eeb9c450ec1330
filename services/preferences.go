package services

import (
	"gorm.io/gorm"

	"github.com/ini272/open-flair-shiftplan/models"
)

// SetPreference records whether a user can work a shift, replacing any
// previous record for the pair.
func SetPreference(db *gorm.DB, userID, shiftID uint, canWork bool) error {
	if _, err := getUser(db, userID); err != nil {
		return err
	}
	if _, err := getShift(db, shiftID); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if result := tx.Where("user_id = ? AND shift_id = ?", userID, shiftID).
			Delete(&models.ShiftPreference{}); result.Error != nil {
			return result.Error
		}
		pref := models.ShiftPreference{UserID: userID, ShiftID: shiftID, CanWork: canWork}
		return tx.Create(&pref).Error
	})
}

// UserPreferences returns all preferences a user has recorded.
func UserPreferences(db *gorm.DB, userID uint) ([]models.ShiftPreference, error) {
	if _, err := getUser(db, userID); err != nil {
		return nil, err
	}

	var prefs []models.ShiftPreference
	result := db.Where("user_id = ?", userID).Order("shift_id").Find(&prefs)
	return prefs, result.Error
}

// UsersForShift returns the IDs of users whose preference for the shift
// matches canWork.
func UsersForShift(db *gorm.DB, shiftID uint, canWork bool) ([]uint, error) {
	if _, err := getShift(db, shiftID); err != nil {
		return nil, err
	}

	var userIDs []uint
	result := db.Model(&models.ShiftPreference{}).
		Where("shift_id = ? AND can_work = ?", shiftID, canWork).
		Order("user_id").
		Pluck("user_id", &userIDs)
	return userIDs, result.Error
}
