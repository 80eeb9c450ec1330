package models

import (
	"time"

	"gorm.io/gorm"
)

// Shift is a time-boxed unit of work with an optional capacity.
// Capacity nil means unlimited. Users and Groups are independent
// many-to-many sets: a group assignment also flattens the group's
// members into Users, and removing the group later does not undo that.
type Shift struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description,omitempty"`
	StartTime   time.Time      `gorm:"not null;index" json:"start_time"`
	EndTime     time.Time      `gorm:"not null" json:"end_time"`
	Capacity    *int           `json:"capacity"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	Users       []User         `gorm:"many2many:shift_users;" json:"users,omitempty"`
	Groups      []Group        `gorm:"many2many:shift_groups;" json:"groups,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ShiftInput is used for creating/updating shifts
type ShiftInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Capacity    *int       `json:"capacity"`
	IsActive    *bool      `json:"is_active"`
}

// ShiftUserInput references a (shift, user) pair for assignment and opt-out requests
type ShiftUserInput struct {
	ShiftID uint `json:"shift_id"`
	UserID  uint `json:"user_id"`
}

// ShiftGroupInput references a (shift, group) pair for assignment and opt-out requests
type ShiftGroupInput struct {
	ShiftID uint `json:"shift_id"`
	GroupID uint `json:"group_id"`
}
