package models

import "time"

// ShiftUserOptOut excludes a single user from a shift. Users who belong to
// a group never hold these records; they opt out at the group level.
type ShiftUserOptOut struct {
	ShiftID   uint      `gorm:"primaryKey" json:"shift_id"`
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ShiftUserOptOut) TableName() string { return "shift_user_opt_outs" }

// ShiftGroupOptOut excludes a whole group from a shift. Members inherit it
// dynamically for as long as they stay in the group.
type ShiftGroupOptOut struct {
	ShiftID   uint      `gorm:"primaryKey" json:"shift_id"`
	GroupID   uint      `gorm:"primaryKey" json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ShiftGroupOptOut) TableName() string { return "shift_group_opt_outs" }
