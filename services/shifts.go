package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ini272/open-flair-shiftplan/models"
)

func getShift(db *gorm.DB, shiftID uint) (*models.Shift, error) {
	var shift models.Shift
	if result := db.First(&shift, shiftID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &shift, nil
}

// CurrentUserCount counts the users assigned to a shift, always computed
// fresh from the association table.
func CurrentUserCount(db *gorm.DB, shiftID uint) (int, error) {
	shift, err := getShift(db, shiftID)
	if err != nil {
		return 0, err
	}
	return int(db.Model(shift).Association("Users").Count()), nil
}

// HasCapacity reports whether the shift can take one more user. A nil
// capacity means unlimited.
func HasCapacity(db *gorm.DB, shiftID uint) (bool, error) {
	shift, err := getShift(db, shiftID)
	if err != nil {
		return false, err
	}
	if shift.Capacity == nil {
		return true, nil
	}
	count := int(db.Model(shift).Association("Users").Count())
	return count < *shift.Capacity, nil
}

// AddUserToShift assigns a single user to a shift. Adding an already
// assigned user succeeds as a no-op; a full shift is rejected.
func AddUserToShift(db *gorm.DB, shiftID, userID uint) error {
	shift, err := getShift(db, shiftID)
	if err != nil {
		return err
	}

	var user models.User
	if result := db.First(&user, userID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return result.Error
	}

	assoc := db.Model(shift).Association("Users")

	var existing []models.User
	if err := assoc.Find(&existing, "users.id = ?", userID); err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	if shift.Capacity != nil && int(assoc.Count()) >= *shift.Capacity {
		return ErrCapacityExceeded
	}

	return assoc.Append(&user)
}

// AddGroupToShift assigns a group and flattens all its current members into
// the shift's user list. The whole group either fits or is rejected; partial
// placement never happens. Adding an already assigned group is a no-op.
func AddGroupToShift(db *gorm.DB, shiftID, groupID uint) error {
	shift, err := getShift(db, shiftID)
	if err != nil {
		return err
	}

	var group models.Group
	if result := db.Preload("Users").First(&group, groupID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return result.Error
	}

	var existingGroups []models.Group
	if err := db.Model(shift).Association("Groups").Find(&existingGroups, "groups.id = ?", groupID); err != nil {
		return err
	}
	if len(existingGroups) > 0 {
		return nil
	}

	var assigned []models.User
	if err := db.Model(shift).Association("Users").Find(&assigned); err != nil {
		return err
	}
	assignedIDs := make(map[uint]bool, len(assigned))
	for _, u := range assigned {
		assignedIDs[u.ID] = true
	}

	var newUsers []models.User
	for _, u := range group.Users {
		if !assignedIDs[u.ID] {
			newUsers = append(newUsers, u)
		}
	}

	if shift.Capacity != nil && len(assigned)+len(newUsers) > *shift.Capacity {
		return ErrCapacityExceeded
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(shift).Association("Groups").Append(&group); err != nil {
			return err
		}
		if len(newUsers) > 0 {
			if err := tx.Model(shift).Association("Users").Append(&newUsers); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveUserFromShift unassigns a user. Removing a user who is not assigned
// is a no-op.
func RemoveUserFromShift(db *gorm.DB, shiftID, userID uint) error {
	shift, err := getShift(db, shiftID)
	if err != nil {
		return err
	}

	var user models.User
	if result := db.First(&user, userID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return result.Error
	}

	return db.Model(shift).Association("Users").Delete(&user)
}

// RemoveGroupFromShift removes only the group association. Members that
// were flattened in when the group was added stay individually assigned;
// group membership is a bulk-add convenience, not a live binding.
func RemoveGroupFromShift(db *gorm.DB, shiftID, groupID uint) error {
	shift, err := getShift(db, shiftID)
	if err != nil {
		return err
	}

	var group models.Group
	if result := db.First(&group, groupID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return result.Error
	}

	return db.Model(shift).Association("Groups").Delete(&group)
}
