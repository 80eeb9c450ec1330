package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a volunteer who can be assigned to shifts, either directly or
// through their group. A user belongs to at most one group at a time.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	GroupID   *uint          `gorm:"index" json:"group_id"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserInput is used for creating/updating users
type UserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive *bool  `json:"is_active"`
}
