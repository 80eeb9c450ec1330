package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ini272/open-flair-shiftplan/models"
)

// JoinGroup puts a user into a group. A user can only belong to one group
// at a time; leaving must be explicit before joining another. The user's
// direct opt-out records are dropped on join — group members opt out at
// the group level only.
func JoinGroup(db *gorm.DB, groupID, userID uint, maxSize int) error {
	var group models.Group
	if result := db.First(&group, groupID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return result.Error
	}

	var user models.User
	if result := db.First(&user, userID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return result.Error
	}

	if user.GroupID != nil {
		return ErrAlreadyInGroup
	}

	if maxSize > 0 {
		var size int64
		if result := db.Model(&models.User{}).Where("group_id = ?", groupID).Count(&size); result.Error != nil {
			return result.Error
		}
		if size >= int64(maxSize) {
			return ErrGroupFull
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if result := tx.Model(&user).Update("group_id", groupID); result.Error != nil {
			return result.Error
		}
		return tx.Where("user_id = ?", userID).Delete(&models.ShiftUserOptOut{}).Error
	})
}

// LeaveGroup removes a user from their group. Shift assignments made while
// the user was in the group are left untouched.
func LeaveGroup(db *gorm.DB, userID uint) error {
	var user models.User
	if result := db.First(&user, userID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return result.Error
	}

	if user.GroupID == nil {
		return ErrNotInGroup
	}

	return db.Model(&user).Update("group_id", nil).Error
}

// GroupSize counts the current members of a group.
func GroupSize(db *gorm.DB, groupID uint) (int, error) {
	var size int64
	result := db.Model(&models.User{}).Where("group_id = ?", groupID).Count(&size)
	return int(size), result.Error
}
