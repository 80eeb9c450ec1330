package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ini272/open-flair-shiftplan/models"
)

func getUser(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if result := db.First(&user, userID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func getGroup(db *gorm.DB, groupID uint) (*models.Group, error) {
	var group models.Group
	if result := db.First(&group, groupID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &group, nil
}

// OptOutUser excludes a user from a shift. Users who belong to a group are
// rejected; their whole group opts out or nobody does.
func OptOutUser(db *gorm.DB, shiftID, userID uint) error {
	if _, err := getShift(db, shiftID); err != nil {
		return err
	}
	user, err := getUser(db, userID)
	if err != nil {
		return err
	}
	if user.GroupID != nil {
		return ErrUserInGroup
	}

	optOut := models.ShiftUserOptOut{ShiftID: shiftID, UserID: userID}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&optOut).Error
}

// OptInUser removes a user's direct opt-out. Removing a record that does
// not exist is a no-op, but grouped users are still rejected so the caller
// learns to use the group operation.
func OptInUser(db *gorm.DB, shiftID, userID uint) error {
	if _, err := getShift(db, shiftID); err != nil {
		return err
	}
	user, err := getUser(db, userID)
	if err != nil {
		return err
	}
	if user.GroupID != nil {
		return ErrUserInGroup
	}

	return db.Where("shift_id = ? AND user_id = ?", shiftID, userID).
		Delete(&models.ShiftUserOptOut{}).Error
}

// OptOutGroup excludes a group (and, by inheritance, its current members)
// from a shift.
func OptOutGroup(db *gorm.DB, shiftID, groupID uint) error {
	if _, err := getShift(db, shiftID); err != nil {
		return err
	}
	if _, err := getGroup(db, groupID); err != nil {
		return err
	}

	optOut := models.ShiftGroupOptOut{ShiftID: shiftID, GroupID: groupID}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&optOut).Error
}

// OptInGroup removes a group's opt-out record. Idempotent.
func OptInGroup(db *gorm.DB, shiftID, groupID uint) error {
	if _, err := getShift(db, shiftID); err != nil {
		return err
	}
	if _, err := getGroup(db, groupID); err != nil {
		return err
	}

	return db.Where("shift_id = ? AND group_id = ?", shiftID, groupID).
		Delete(&models.ShiftGroupOptOut{}).Error
}

// IsOptedOut resolves the effective status for a user against a shift:
// a direct record, or the user's current group holding one. The group half
// is derived at query time, never stored, so joining or leaving a group
// changes the answer immediately.
func IsOptedOut(db *gorm.DB, shiftID, userID uint) (bool, error) {
	user, err := getUser(db, userID)
	if err != nil {
		return false, err
	}

	var count int64
	if result := db.Model(&models.ShiftUserOptOut{}).
		Where("shift_id = ? AND user_id = ?", shiftID, userID).
		Count(&count); result.Error != nil {
		return false, result.Error
	}
	if count > 0 {
		return true, nil
	}

	if user.GroupID == nil {
		return false, nil
	}

	if result := db.Model(&models.ShiftGroupOptOut{}).
		Where("shift_id = ? AND group_id = ?", shiftID, *user.GroupID).
		Count(&count); result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// ListUserOptOuts returns all shifts a user is opted out of, direct and
// inherited via their current group, de-duplicated.
func ListUserOptOuts(db *gorm.DB, userID uint) ([]models.Shift, error) {
	user, err := getUser(db, userID)
	if err != nil {
		return nil, err
	}

	var shiftIDs []uint
	if result := db.Model(&models.ShiftUserOptOut{}).
		Where("user_id = ?", userID).
		Pluck("shift_id", &shiftIDs); result.Error != nil {
		return nil, result.Error
	}

	if user.GroupID != nil {
		var groupShiftIDs []uint
		if result := db.Model(&models.ShiftGroupOptOut{}).
			Where("group_id = ?", *user.GroupID).
			Pluck("shift_id", &groupShiftIDs); result.Error != nil {
			return nil, result.Error
		}
		shiftIDs = append(shiftIDs, groupShiftIDs...)
	}

	if len(shiftIDs) == 0 {
		return []models.Shift{}, nil
	}

	var shifts []models.Shift
	result := db.Where("id IN ?", shiftIDs).Order("start_time").Find(&shifts)
	return shifts, result.Error
}

// ListGroupOptOuts returns all shifts a group is opted out of.
func ListGroupOptOuts(db *gorm.DB, groupID uint) ([]models.Shift, error) {
	if _, err := getGroup(db, groupID); err != nil {
		return nil, err
	}

	var shiftIDs []uint
	if result := db.Model(&models.ShiftGroupOptOut{}).
		Where("group_id = ?", groupID).
		Pluck("shift_id", &shiftIDs); result.Error != nil {
		return nil, result.Error
	}

	if len(shiftIDs) == 0 {
		return []models.Shift{}, nil
	}

	var shifts []models.Shift
	result := db.Where("id IN ?", shiftIDs).Order("start_time").Find(&shifts)
	return shifts, result.Error
}

// AvailableUsers returns all active users not opted out of the shift.
// Re-evaluates every user on each call; fine at crew-roster scale, not
// meant for large populations.
func AvailableUsers(db *gorm.DB, shiftID uint) ([]models.User, error) {
	if _, err := getShift(db, shiftID); err != nil {
		return nil, err
	}

	var users []models.User
	if result := db.Where("is_active = ?", true).Order("id").Find(&users); result.Error != nil {
		return nil, result.Error
	}

	available := []models.User{}
	for _, u := range users {
		optedOut, err := IsOptedOut(db, shiftID, u.ID)
		if err != nil {
			return nil, err
		}
		if !optedOut {
			available = append(available, u)
		}
	}
	return available, nil
}
